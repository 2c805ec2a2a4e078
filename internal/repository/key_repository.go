package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"vextract/parse-gateway/internal/models"
	"vextract/parse-gateway/internal/utils"
)

// uniqueViolation Postgres 唯一约束冲突错误码
const uniqueViolation = "23505"

const keyColumns = `id, key_name, key_value, status, description, created_at, updated_at`

// KeyRepository API密钥数据访问层
type KeyRepository struct {
	db *sql.DB
}

// NewKeyRepository 创建密钥仓储
func NewKeyRepository(db *sql.DB) *KeyRepository {
	return &KeyRepository{db: db}
}

// FindAll 查询全部密钥, 新建的在前
func (r *KeyRepository) FindAll(ctx context.Context) ([]models.APIKey, error) {
	query := `SELECT ` + keyColumns + ` FROM api_keys ORDER BY created_at DESC`
	return r.query(ctx, query)
}

// FindActive 查询可用密钥
func (r *KeyRepository) FindActive(ctx context.Context) ([]models.APIKey, error) {
	query := `SELECT ` + keyColumns + ` FROM api_keys WHERE status = $1 ORDER BY created_at ASC`
	return r.query(ctx, query, models.KeyStatusActive)
}

// FindByID 根据 ID 查询密钥, 不存在时返回 nil
func (r *KeyRepository) FindByID(ctx context.Context, id int64) (*models.APIKey, error) {
	query := `SELECT ` + keyColumns + ` FROM api_keys WHERE id = $1`

	key, err := scanKey(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find key by id: %w", err)
	}
	return key, nil
}

// NameExists 名称是否已被其他密钥使用, excludeID 为 0 时不排除
func (r *KeyRepository) NameExists(ctx context.Context, name string, excludeID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM api_keys WHERE key_name = $1 AND id <> $2)`,
		name, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check key name: %w", err)
	}
	return exists, nil
}

// Create 创建密钥
func (r *KeyRepository) Create(ctx context.Context, key *models.APIKey) error {
	query := `
		INSERT INTO api_keys (key_name, key_value, status, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		key.KeyName,
		key.KeyValue,
		key.Status,
		key.Description,
	).Scan(&key.ID, &key.CreatedAt, &key.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %w", utils.ErrKeyNameExists, err)
	}
	if err != nil {
		return fmt.Errorf("failed to create key: %w", err)
	}
	return nil
}

// Update 部分更新密钥, 返回是否命中记录
func (r *KeyRepository) Update(ctx context.Context, id int64, upd models.KeyUpdate) (bool, error) {
	var b updateBuilder
	if upd.KeyName != nil {
		b.set("key_name", *upd.KeyName)
	}
	if upd.KeyValue != nil {
		b.set("key_value", *upd.KeyValue)
	}
	if upd.Status != nil {
		b.set("status", *upd.Status)
	}
	if upd.Description != nil {
		b.set("description", *upd.Description)
	}
	if b.empty() {
		return false, nil
	}

	query, args := b.build("api_keys", id)
	res, err := r.db.ExecContext(ctx, query, args...)
	if isUniqueViolation(err) {
		return false, fmt.Errorf("%w: %w", utils.ErrKeyNameExists, err)
	}
	if err != nil {
		return false, fmt.Errorf("failed to update key: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n > 0, nil
}

// Delete 删除密钥
func (r *KeyRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM api_keys WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete key: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n > 0, nil
}

// BatchUpdateStatus 批量更新状态, 返回更新条数
func (r *KeyRepository) BatchUpdateStatus(ctx context.Context, ids []int64, status models.KeyStatus) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE api_keys SET status = $1, updated_at = NOW() WHERE id = ANY($2)`,
		status, pq.Array(ids),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to batch update key status: %w", err)
	}
	return res.RowsAffected()
}

func (r *KeyRepository) query(ctx context.Context, query string, args ...any) ([]models.APIKey, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query keys: %w", err)
	}
	defer rows.Close()

	keys := make([]models.APIKey, 0)
	for rows.Next() {
		key, err := scanKey(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, *key)
	}
	return keys, rows.Err()
}

// isUniqueViolation 并发创建或改名时名称检查之后仍可能撞上 uk_api_keys_key_name
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// rowScanner sql.Row 与 sql.Rows 的公共接口
type rowScanner interface {
	Scan(dest ...any) error
}

func scanKey(s rowScanner) (*models.APIKey, error) {
	key := &models.APIKey{}
	err := s.Scan(
		&key.ID,
		&key.KeyName,
		&key.KeyValue,
		&key.Status,
		&key.Description,
		&key.CreatedAt,
		&key.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return key, nil
}
