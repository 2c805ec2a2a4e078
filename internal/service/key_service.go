package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"

	"vextract/parse-gateway/internal/models"
	"vextract/parse-gateway/internal/utils"
)

// KeyStore 密钥持久化
type KeyStore interface {
	FindAll(ctx context.Context) ([]models.APIKey, error)
	FindActive(ctx context.Context) ([]models.APIKey, error)
	FindByID(ctx context.Context, id int64) (*models.APIKey, error)
	NameExists(ctx context.Context, name string, excludeID int64) (bool, error)
	Create(ctx context.Context, key *models.APIKey) error
	Update(ctx context.Context, id int64, upd models.KeyUpdate) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	BatchUpdateStatus(ctx context.Context, ids []int64, status models.KeyStatus) (int64, error)
}

// KeyService 密钥池服务
type KeyService struct {
	store  KeyStore
	pick   func(n int) int
	logger *zap.Logger
}

// NewKeyService 创建密钥服务
func NewKeyService(store KeyStore, logger *zap.Logger) *KeyService {
	return &KeyService{
		store:  store,
		pick:   rand.Intn,
		logger: logger,
	}
}

// GetAvailableKey 从可用密钥中随机选择一个
func (s *KeyService) GetAvailableKey(ctx context.Context) (*models.APIKey, error) {
	keys, err := s.store.FindActive(ctx)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, utils.ErrNoActiveKey
	}

	selected := keys[s.pick(len(keys))]
	return &selected, nil
}

// ListKeys 获取全部密钥
func (s *KeyService) ListKeys(ctx context.Context) ([]models.APIKey, error) {
	return s.store.FindAll(ctx)
}

// GetKey 获取密钥详情
func (s *KeyService) GetKey(ctx context.Context, id int64) (*models.APIKey, error) {
	key, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if key == nil {
		return nil, utils.ErrKeyNotFound
	}
	return key, nil
}

// CreateKey 添加密钥, 名称不能重复
func (s *KeyService) CreateKey(ctx context.Context, req *models.CreateKeyRequest) (*models.APIKey, error) {
	name := utils.SanitizeString(req.KeyName)
	if err := validateKeyName(name); err != nil {
		return nil, err
	}

	exists, err := s.store.NameExists(ctx, name, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, utils.ErrKeyNameExists
	}

	key := &models.APIKey{
		KeyName:  name,
		KeyValue: strings.TrimSpace(req.KeyValue),
		Status:   models.KeyStatusActive,
	}
	if desc := strings.TrimSpace(req.Description); desc != "" {
		key.Description = &desc
	}

	if err := s.store.Create(ctx, key); err != nil {
		return nil, err
	}

	s.logger.Info("添加新密钥成功",
		zap.Int64("key_id", key.ID),
		zap.String("key_name", key.KeyName),
		zap.String("key_value", utils.MaskKey(key.KeyValue)),
	)
	return key, nil
}

// UpdateKey 部分更新密钥
func (s *KeyService) UpdateKey(ctx context.Context, id int64, req *models.UpdateKeyRequest) (*models.APIKey, error) {
	var upd models.KeyUpdate

	if req.KeyName != nil {
		name := utils.SanitizeString(*req.KeyName)
		if err := validateKeyName(name); err != nil {
			return nil, err
		}
		exists, err := s.store.NameExists(ctx, name, id)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, utils.ErrKeyNameExists
		}
		upd.KeyName = &name
	}
	if req.KeyValue != nil {
		v := strings.TrimSpace(*req.KeyValue)
		upd.KeyValue = &v
	}
	if req.Status != nil {
		st := models.KeyStatus(*req.Status)
		upd.Status = &st
	}
	if req.Description != nil {
		d := strings.TrimSpace(*req.Description)
		upd.Description = &d
	}

	if upd.IsEmpty() {
		return nil, utils.ErrNoFieldsToUpdate
	}

	ok, err := s.store.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, utils.ErrKeyNotFound
	}

	s.logger.Info("更新密钥成功", zap.Int64("key_id", id))
	return s.GetKey(ctx, id)
}

// DeleteKey 删除密钥
func (s *KeyService) DeleteKey(ctx context.Context, id int64) error {
	ok, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return utils.ErrKeyNotFound
	}
	s.logger.Info("删除密钥成功", zap.Int64("key_id", id))
	return nil
}

// BatchUpdateStatus 批量更新密钥状态, 返回更新条数
func (s *KeyService) BatchUpdateStatus(ctx context.Context, ids []int64, status models.KeyStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, utils.ErrEmptyIDList
	}
	n, err := s.store.BatchUpdateStatus(ctx, ids, status)
	if err != nil {
		return 0, err
	}
	s.logger.Info("批量更新密钥状态", zap.Int("requested", len(ids)), zap.Int64("affected", n), zap.String("status", string(status)))
	return n, nil
}

func validateKeyName(name string) error {
	if n := len([]rune(name)); n < 2 || n > 100 {
		return fmt.Errorf("%w: 密钥名称长度需在2到100个字符之间", utils.ErrInvalidKeyName)
	}
	if !utils.IsValidKeyName(name) {
		return fmt.Errorf("%w: 密钥名称只能包含中文、英文、数字、下划线、连字符和空格", utils.ErrInvalidKeyName)
	}
	return nil
}

// StaticKeyProvider 无数据库模式下的固定密钥池
type StaticKeyProvider struct {
	keys []models.APIKey
	pick func(n int) int
}

// NewStaticKeyProvider 由配置中的密钥创建密钥池
func NewStaticKeyProvider(values []string) *StaticKeyProvider {
	now := time.Now()
	keys := make([]models.APIKey, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		keys = append(keys, models.APIKey{
			ID:        int64(len(keys) + 1),
			KeyName:   fmt.Sprintf("static-%d", len(keys)+1),
			KeyValue:  v,
			Status:    models.KeyStatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return &StaticKeyProvider{keys: keys, pick: rand.Intn}
}

// GetAvailableKey 随机选择一个密钥
func (p *StaticKeyProvider) GetAvailableKey(ctx context.Context) (*models.APIKey, error) {
	if len(p.keys) == 0 {
		return nil, utils.ErrNoActiveKey
	}
	selected := p.keys[p.pick(len(p.keys))]
	return &selected, nil
}

// Len 密钥数量
func (p *StaticKeyProvider) Len() int {
	return len(p.keys)
}
