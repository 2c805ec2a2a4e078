package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"vextract/parse-gateway/internal/models"
	"vextract/parse-gateway/internal/utils"
)

func newTestKeyService(keys ...models.APIKey) (*KeyService, *fakeKeyStore) {
	store := newFakeKeyStore(keys...)
	svc := NewKeyService(store, zap.NewNop())
	svc.pick = func(n int) int { return n - 1 }
	return svc, store
}

func TestGetAvailableKeyOnlyActive(t *testing.T) {
	svc, _ := newTestKeyService(
		models.APIKey{ID: 1, KeyName: "a", KeyValue: "v1", Status: models.KeyStatusActive},
		models.APIKey{ID: 2, KeyName: "b", KeyValue: "v2", Status: models.KeyStatusInactive},
	)

	key, err := svc.GetAvailableKey(context.Background())
	if err != nil {
		t.Fatalf("GetAvailableKey error = %v", err)
	}
	if key.ID != 1 {
		t.Fatalf("key id = %d, want 1", key.ID)
	}
}

func TestGetAvailableKeyEmpty(t *testing.T) {
	svc, _ := newTestKeyService(models.APIKey{ID: 1, KeyName: "a", KeyValue: "v1", Status: models.KeyStatusInactive})

	if _, err := svc.GetAvailableKey(context.Background()); !errors.Is(err, utils.ErrNoActiveKey) {
		t.Fatalf("error = %v, want ErrNoActiveKey", err)
	}
}

func TestCreateKey(t *testing.T) {
	svc, _ := newTestKeyService()

	key, err := svc.CreateKey(context.Background(), &models.CreateKeyRequest{
		KeyName:     "  主 密钥  ",
		KeyValue:    " abcdefghijkl ",
		Description: "desc",
	})
	if err != nil {
		t.Fatalf("CreateKey error = %v", err)
	}
	if key.KeyName != "主 密钥" || key.KeyValue != "abcdefghijkl" || key.Status != models.KeyStatusActive {
		t.Fatalf("unexpected key %+v", key)
	}
	if key.Description == nil || *key.Description != "desc" {
		t.Fatalf("description = %v", key.Description)
	}

	_, err = svc.CreateKey(context.Background(), &models.CreateKeyRequest{KeyName: "主 密钥", KeyValue: "abcdefghijkl"})
	if !errors.Is(err, utils.ErrKeyNameExists) {
		t.Fatalf("error = %v, want ErrKeyNameExists", err)
	}
}

func TestCreateKeyInvalidName(t *testing.T) {
	svc, _ := newTestKeyService()

	for _, name := range []string{"a", "bad/name", "名字!"} {
		_, err := svc.CreateKey(context.Background(), &models.CreateKeyRequest{KeyName: name, KeyValue: "abcdefghijkl"})
		if !errors.Is(err, utils.ErrInvalidKeyName) {
			t.Fatalf("CreateKey(%q) error = %v, want ErrInvalidKeyName", name, err)
		}
	}
}

func TestUpdateKey(t *testing.T) {
	svc, _ := newTestKeyService(
		models.APIKey{ID: 1, KeyName: "alpha", KeyValue: "v1", Status: models.KeyStatusActive},
		models.APIKey{ID: 2, KeyName: "beta", KeyValue: "v2", Status: models.KeyStatusActive},
	)
	ctx := context.Background()

	if _, err := svc.UpdateKey(ctx, 1, &models.UpdateKeyRequest{}); !errors.Is(err, utils.ErrNoFieldsToUpdate) {
		t.Fatalf("error = %v, want ErrNoFieldsToUpdate", err)
	}

	beta := "beta"
	if _, err := svc.UpdateKey(ctx, 1, &models.UpdateKeyRequest{KeyName: &beta}); !errors.Is(err, utils.ErrKeyNameExists) {
		t.Fatalf("error = %v, want ErrKeyNameExists", err)
	}

	// 保持原名不算重复
	alpha := "alpha"
	inactive := string(models.KeyStatusInactive)
	key, err := svc.UpdateKey(ctx, 1, &models.UpdateKeyRequest{KeyName: &alpha, Status: &inactive})
	if err != nil {
		t.Fatalf("UpdateKey error = %v", err)
	}
	if key.Status != models.KeyStatusInactive {
		t.Fatalf("status = %s", key.Status)
	}

	if _, err := svc.UpdateKey(ctx, 99, &models.UpdateKeyRequest{Status: &inactive}); !errors.Is(err, utils.ErrKeyNotFound) {
		t.Fatalf("error = %v, want ErrKeyNotFound", err)
	}
}

func TestDeleteAndBatchKeys(t *testing.T) {
	svc, store := newTestKeyService(
		models.APIKey{ID: 1, KeyName: "alpha", KeyValue: "v1", Status: models.KeyStatusActive},
		models.APIKey{ID: 2, KeyName: "beta", KeyValue: "v2", Status: models.KeyStatusActive},
	)
	ctx := context.Background()

	n, err := svc.BatchUpdateStatus(ctx, []int64{1, 2, 3}, models.KeyStatusInactive)
	if err != nil || n != 2 {
		t.Fatalf("BatchUpdateStatus = %d, %v", n, err)
	}
	if _, err := svc.GetAvailableKey(ctx); !errors.Is(err, utils.ErrNoActiveKey) {
		t.Fatalf("error = %v, want ErrNoActiveKey", err)
	}
	if _, err := svc.BatchUpdateStatus(ctx, nil, models.KeyStatusActive); !errors.Is(err, utils.ErrEmptyIDList) {
		t.Fatalf("error = %v, want ErrEmptyIDList", err)
	}

	if err := svc.DeleteKey(ctx, 1); err != nil {
		t.Fatalf("DeleteKey error = %v", err)
	}
	if _, ok := store.keys[1]; ok {
		t.Fatal("key 1 should be deleted")
	}
	if err := svc.DeleteKey(ctx, 1); !errors.Is(err, utils.ErrKeyNotFound) {
		t.Fatalf("error = %v, want ErrKeyNotFound", err)
	}
	if _, err := svc.GetKey(ctx, 1); !errors.Is(err, utils.ErrKeyNotFound) {
		t.Fatalf("error = %v, want ErrKeyNotFound", err)
	}
}

func TestStaticKeyProvider(t *testing.T) {
	p := NewStaticKeyProvider([]string{" k1 ", "", "k2"})
	if p.Len() != 2 {
		t.Fatalf("Len = %d, want 2", p.Len())
	}
	p.pick = func(n int) int { return 1 }

	key, err := p.GetAvailableKey(context.Background())
	if err != nil {
		t.Fatalf("GetAvailableKey error = %v", err)
	}
	if key.KeyValue != "k2" || key.KeyName != "static-2" {
		t.Fatalf("unexpected key %+v", key)
	}

	if _, err := NewStaticKeyProvider(nil).GetAvailableKey(context.Background()); !errors.Is(err, utils.ErrNoActiveKey) {
		t.Fatalf("error = %v, want ErrNoActiveKey", err)
	}
}
