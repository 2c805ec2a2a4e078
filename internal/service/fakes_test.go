package service

import (
	"context"
	"sync"
	"time"

	"vextract/parse-gateway/internal/client"
	"vextract/parse-gateway/internal/models"
	"vextract/parse-gateway/internal/mq"
	"vextract/parse-gateway/internal/utils"
)

type fakeKeyProvider struct {
	key   *models.APIKey
	err   error
	calls int
}

func (f *fakeKeyProvider) GetAvailableKey(ctx context.Context) (*models.APIKey, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.key, nil
}

type fakeUpstream struct {
	resp     map[string]any
	err      error
	calls    int
	lastURL  string
	lastCred string
}

func (f *fakeUpstream) Call(ctx context.Context, videoURL, credential string, platform models.Platform) (map[string]any, error) {
	f.calls++
	f.lastURL, f.lastCred = videoURL, credential
	return f.resp, f.err
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]*models.VideoDescriptor
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]*models.VideoDescriptor{}}
}

func cacheKey(url string, platform models.Platform, opts models.ParseOptions) string {
	return url + "|" + string(platform) + "|" + string(opts.PreferredQuality)
}

func (f *fakeCache) Get(ctx context.Context, url string, platform models.Platform, opts models.ParseOptions) (*models.VideoDescriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.entries[cacheKey(url, platform, opts)]; ok {
		return d, nil
	}
	return nil, utils.ErrCacheMiss
}

func (f *fakeCache) Set(ctx context.Context, url string, platform models.Platform, opts models.ParseOptions, result *models.VideoDescriptor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[cacheKey(url, platform, opts)] = result
	return nil
}

type fakePublisher struct {
	events []*mq.ParseEvent
}

func (f *fakePublisher) PublishParseEvent(ctx context.Context, event *mq.ParseEvent) error {
	f.events = append(f.events, event)
	return nil
}

type fakeKeyStore struct {
	keys   map[int64]*models.APIKey
	nextID int64
}

func newFakeKeyStore(keys ...models.APIKey) *fakeKeyStore {
	s := &fakeKeyStore{keys: map[int64]*models.APIKey{}}
	for i := range keys {
		k := keys[i]
		s.keys[k.ID] = &k
		if k.ID > s.nextID {
			s.nextID = k.ID
		}
	}
	return s
}

func (s *fakeKeyStore) FindAll(ctx context.Context) ([]models.APIKey, error) {
	out := make([]models.APIKey, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, *k)
	}
	return out, nil
}

func (s *fakeKeyStore) FindActive(ctx context.Context) ([]models.APIKey, error) {
	var out []models.APIKey
	for id := int64(1); id <= s.nextID; id++ {
		if k, ok := s.keys[id]; ok && k.Status == models.KeyStatusActive {
			out = append(out, *k)
		}
	}
	return out, nil
}

func (s *fakeKeyStore) FindByID(ctx context.Context, id int64) (*models.APIKey, error) {
	k, ok := s.keys[id]
	if !ok {
		return nil, nil
	}
	cp := *k
	return &cp, nil
}

func (s *fakeKeyStore) NameExists(ctx context.Context, name string, excludeID int64) (bool, error) {
	for _, k := range s.keys {
		if k.KeyName == name && k.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeKeyStore) Create(ctx context.Context, key *models.APIKey) error {
	s.nextID++
	key.ID = s.nextID
	key.CreatedAt = time.Now()
	key.UpdatedAt = key.CreatedAt
	cp := *key
	s.keys[key.ID] = &cp
	return nil
}

func (s *fakeKeyStore) Update(ctx context.Context, id int64, upd models.KeyUpdate) (bool, error) {
	k, ok := s.keys[id]
	if !ok {
		return false, nil
	}
	if upd.KeyName != nil {
		k.KeyName = *upd.KeyName
	}
	if upd.KeyValue != nil {
		k.KeyValue = *upd.KeyValue
	}
	if upd.Status != nil {
		k.Status = *upd.Status
	}
	if upd.Description != nil {
		k.Description = upd.Description
	}
	return true, nil
}

func (s *fakeKeyStore) Delete(ctx context.Context, id int64) (bool, error) {
	if _, ok := s.keys[id]; !ok {
		return false, nil
	}
	delete(s.keys, id)
	return true, nil
}

func (s *fakeKeyStore) BatchUpdateStatus(ctx context.Context, ids []int64, status models.KeyStatus) (int64, error) {
	var n int64
	for _, id := range ids {
		if k, ok := s.keys[id]; ok {
			k.Status = status
			n++
		}
	}
	return n, nil
}

type fakeAnnouncementStore struct {
	items  map[int64]*models.Announcement
	nextID int64
	filter models.AnnouncementFilter
}

func newFakeAnnouncementStore() *fakeAnnouncementStore {
	return &fakeAnnouncementStore{items: map[int64]*models.Announcement{}}
}

func (s *fakeAnnouncementStore) FindActive(ctx context.Context, now time.Time) ([]models.Announcement, error) {
	var out []models.Announcement
	for id := int64(1); id <= s.nextID; id++ {
		a, ok := s.items[id]
		if !ok || a.Status != models.AnnouncementEnabled {
			continue
		}
		if a.StartTime != nil && a.StartTime.After(now) {
			continue
		}
		if a.EndTime != nil && a.EndTime.Before(now) {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (s *fakeAnnouncementStore) List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int64, error) {
	s.filter = filter
	var out []models.Announcement
	for _, a := range s.items {
		out = append(out, *a)
	}
	return out, int64(len(out)), nil
}

func (s *fakeAnnouncementStore) FindByID(ctx context.Context, id int64) (*models.Announcement, error) {
	a, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (s *fakeAnnouncementStore) Create(ctx context.Context, a *models.Announcement) error {
	s.nextID++
	a.ID = s.nextID
	cp := *a
	s.items[a.ID] = &cp
	return nil
}

func (s *fakeAnnouncementStore) Update(ctx context.Context, id int64, upd models.AnnouncementUpdate) (bool, error) {
	a, ok := s.items[id]
	if !ok {
		return false, nil
	}
	if upd.Content != nil {
		a.Content = *upd.Content
	}
	if upd.Status != nil {
		a.Status = *upd.Status
	}
	if upd.Priority != nil {
		a.Priority = *upd.Priority
	}
	if upd.StartTime != nil {
		a.StartTime = *upd.StartTime
	}
	if upd.EndTime != nil {
		a.EndTime = *upd.EndTime
	}
	return true, nil
}

func (s *fakeAnnouncementStore) Delete(ctx context.Context, id int64) (bool, error) {
	if _, ok := s.items[id]; !ok {
		return false, nil
	}
	delete(s.items, id)
	return true, nil
}

func (s *fakeAnnouncementStore) BatchUpdateStatus(ctx context.Context, ids []int64, status int) (int64, error) {
	var n int64
	for _, id := range ids {
		if a, ok := s.items[id]; ok {
			a.Status = status
			n++
		}
	}
	return n, nil
}

type fakeWeChat struct {
	session  *client.Session
	err      error
	phone    string
	phoneErr error
}

func (f *fakeWeChat) Code2Session(ctx context.Context, code string) (*client.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

func (f *fakeWeChat) PhoneNumber(ctx context.Context, code string) (string, error) {
	return f.phone, f.phoneErr
}

type fakeUserStore struct {
	users map[int64]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[int64]*models.User{}}
}

func (s *fakeUserStore) UpsertLogin(ctx context.Context, openID string, unionID, phone *string) (*models.User, error) {
	for _, u := range s.users {
		if u.OpenID == openID {
			u.LoginCount++
			if phone != nil {
				u.Phone = phone
			}
			cp := *u
			return &cp, nil
		}
	}
	u := &models.User{ID: int64(len(s.users) + 1), OpenID: openID, UnionID: unionID, Phone: phone, LoginCount: 1}
	s.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (s *fakeUserStore) FindByID(ctx context.Context, id int64) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

type fakeRevoker struct {
	revoked map[string]time.Duration
}

func newFakeRevoker() *fakeRevoker {
	return &fakeRevoker{revoked: map[string]time.Duration{}}
}

func (f *fakeRevoker) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	f.revoked[token] = ttl
	return nil
}

func (f *fakeRevoker) IsRevoked(ctx context.Context, token string) (bool, error) {
	_, ok := f.revoked[token]
	return ok, nil
}
