package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"vextract/parse-gateway/internal/models"
)

const userColumns = `id, openid, unionid, phone, login_count, last_login_time, created_at`

// UserRepository 用户数据访问层
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// UpsertLogin 登录时创建或更新用户, 登录次数加一, 手机号为空时保留原值
func (r *UserRepository) UpsertLogin(ctx context.Context, openID string, unionID, phone *string) (*models.User, error) {
	query := `
		INSERT INTO users (openid, unionid, phone, login_count, created_at, last_login_time)
		VALUES ($1, $2, $3, 1, NOW(), NOW())
		ON CONFLICT (openid) DO UPDATE SET
			unionid = COALESCE(EXCLUDED.unionid, users.unionid),
			phone = COALESCE(EXCLUDED.phone, users.phone),
			login_count = users.login_count + 1,
			last_login_time = NOW()
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query, openID, unionID, phone))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return user, nil
}

// FindByID 根据 ID 查询用户, 不存在时返回 nil
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by id: %w", err)
	}
	return user, nil
}

// FindByOpenID 根据 openid 查询用户, 不存在时返回 nil
func (r *UserRepository) FindByOpenID(ctx context.Context, openID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE openid = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, openID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by openid: %w", err)
	}
	return user, nil
}

func scanUser(s rowScanner) (*models.User, error) {
	u := &models.User{}
	err := s.Scan(
		&u.ID,
		&u.OpenID,
		&u.UnionID,
		&u.Phone,
		&u.LoginCount,
		&u.LastLoginTime,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}
