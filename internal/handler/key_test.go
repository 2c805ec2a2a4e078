package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"vextract/parse-gateway/internal/models"
	"vextract/parse-gateway/internal/utils"
)

type stubKeys struct {
	keys map[int64]models.APIKey
}

func (s *stubKeys) ListKeys(ctx context.Context) ([]models.APIKey, error) {
	var out []models.APIKey
	for _, k := range s.keys {
		out = append(out, k)
	}
	return out, nil
}

func (s *stubKeys) GetKey(ctx context.Context, id int64) (*models.APIKey, error) {
	k, ok := s.keys[id]
	if !ok {
		return nil, utils.ErrKeyNotFound
	}
	return &k, nil
}

func (s *stubKeys) CreateKey(ctx context.Context, req *models.CreateKeyRequest) (*models.APIKey, error) {
	for _, k := range s.keys {
		if k.KeyName == req.KeyName {
			return nil, utils.ErrKeyNameExists
		}
	}
	k := models.APIKey{ID: int64(len(s.keys) + 1), KeyName: req.KeyName, KeyValue: req.KeyValue, Status: models.KeyStatusActive}
	s.keys[k.ID] = k
	return &k, nil
}

func (s *stubKeys) UpdateKey(ctx context.Context, id int64, req *models.UpdateKeyRequest) (*models.APIKey, error) {
	if _, ok := s.keys[id]; !ok {
		return nil, utils.ErrKeyNotFound
	}
	return nil, utils.ErrNoFieldsToUpdate
}

func (s *stubKeys) DeleteKey(ctx context.Context, id int64) error {
	if _, ok := s.keys[id]; !ok {
		return utils.ErrKeyNotFound
	}
	delete(s.keys, id)
	return nil
}

func (s *stubKeys) BatchUpdateStatus(ctx context.Context, ids []int64, status models.KeyStatus) (int64, error) {
	return int64(len(ids)), nil
}

func newKeyRouter() *gin.Engine {
	h := NewKeyHandler(&stubKeys{keys: map[int64]models.APIKey{
		1: {ID: 1, KeyName: "primary", KeyValue: "abcdefghijkl", Status: models.KeyStatusActive},
	}})
	r := gin.New()
	g := r.Group("/keys")
	g.GET("", h.List)
	g.GET("/:keyId", h.Get)
	g.POST("", h.Create)
	g.PUT("/:keyId", h.Update)
	g.DELETE("/:keyId", h.Delete)
	g.POST("/batch/status", h.BatchStatus)
	return r
}

func TestKeyHandlerStatusCodes(t *testing.T) {
	r := newKeyRouter()

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"list", http.MethodGet, "/keys", nil, http.StatusOK},
		{"get", http.MethodGet, "/keys/1", nil, http.StatusOK},
		{"get invalid id", http.MethodGet, "/keys/abc", nil, http.StatusBadRequest},
		{"get missing", http.MethodGet, "/keys/9", nil, http.StatusNotFound},
		{"create", http.MethodPost, "/keys", gin.H{"keyName": "backup", "keyValue": "0123456789ab"}, http.StatusOK},
		{"create duplicate", http.MethodPost, "/keys", gin.H{"keyName": "primary", "keyValue": "0123456789ab"}, http.StatusConflict},
		{"create short value", http.MethodPost, "/keys", gin.H{"keyName": "other", "keyValue": "short"}, http.StatusBadRequest},
		{"update empty", http.MethodPut, "/keys/1", gin.H{}, http.StatusBadRequest},
		{"update bad status", http.MethodPut, "/keys/1", gin.H{"status": "gone"}, http.StatusBadRequest},
		{"batch", http.MethodPost, "/keys/batch/status", gin.H{"keyIds": []int{1, 2}, "status": "inactive"}, http.StatusOK},
		{"batch duplicate ids", http.MethodPost, "/keys/batch/status", gin.H{"keyIds": []int{1, 1}, "status": "inactive"}, http.StatusBadRequest},
		{"delete", http.MethodDelete, "/keys/1", nil, http.StatusOK},
		{"delete again", http.MethodDelete, "/keys/1", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		w, resp := doJSON(t, r, tt.method, tt.path, tt.body)
		if w.Code != tt.want || resp.Code != tt.want {
			t.Fatalf("%s: status = %d (body code %d), want %d; msg %q", tt.name, w.Code, resp.Code, tt.want, resp.Msg)
		}
	}
}
