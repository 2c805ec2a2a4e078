package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"vextract/parse-gateway/internal/models"
)

const announcementColumns = `id, content, status, priority, start_time, end_time, created_by, created_at, updated_at`

// AnnouncementRepository 公告数据访问层
type AnnouncementRepository struct {
	db *sql.DB
}

// NewAnnouncementRepository 创建公告仓储
func NewAnnouncementRepository(db *sql.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

// FindActive 查询当前生效的公告
func (r *AnnouncementRepository) FindActive(ctx context.Context, now time.Time) ([]models.Announcement, error) {
	query := `
		SELECT ` + announcementColumns + `
		FROM announcements
		WHERE status = $1
		  AND (start_time IS NULL OR start_time <= $2)
		  AND (end_time IS NULL OR end_time >= $2)
		ORDER BY priority DESC, created_at DESC
	`
	return r.query(ctx, query, models.AnnouncementEnabled, now)
}

// List 分页查询公告
func (r *AnnouncementRepository) List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int64, error) {
	where := ""
	args := []any{}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		where = "WHERE status = $1"
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM announcements `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count announcements: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	query := fmt.Sprintf(
		`SELECT %s FROM announcements %s ORDER BY priority DESC, created_at DESC LIMIT $%d OFFSET $%d`,
		announcementColumns, where, len(args)+1, len(args)+2,
	)
	list, err := r.query(ctx, query, append(args, filter.Limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// FindByID 根据 ID 查询公告, 不存在时返回 nil
func (r *AnnouncementRepository) FindByID(ctx context.Context, id int64) (*models.Announcement, error) {
	query := `SELECT ` + announcementColumns + ` FROM announcements WHERE id = $1`

	a, err := scanAnnouncement(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find announcement by id: %w", err)
	}
	return a, nil
}

// Create 创建公告
func (r *AnnouncementRepository) Create(ctx context.Context, a *models.Announcement) error {
	query := `
		INSERT INTO announcements (content, status, priority, start_time, end_time, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		a.Content,
		a.Status,
		a.Priority,
		a.StartTime,
		a.EndTime,
		a.CreatedBy,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create announcement: %w", err)
	}
	return nil
}

// Update 部分更新公告, 返回是否命中记录
func (r *AnnouncementRepository) Update(ctx context.Context, id int64, upd models.AnnouncementUpdate) (bool, error) {
	var b updateBuilder
	if upd.Content != nil {
		b.set("content", *upd.Content)
	}
	if upd.Status != nil {
		b.set("status", *upd.Status)
	}
	if upd.Priority != nil {
		b.set("priority", *upd.Priority)
	}
	if upd.StartTime != nil {
		b.set("start_time", *upd.StartTime)
	}
	if upd.EndTime != nil {
		b.set("end_time", *upd.EndTime)
	}
	if b.empty() {
		return false, nil
	}

	query, args := b.build("announcements", id)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update announcement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n > 0, nil
}

// Delete 删除公告
func (r *AnnouncementRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete announcement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n > 0, nil
}

// BatchUpdateStatus 批量更新公告状态
func (r *AnnouncementRepository) BatchUpdateStatus(ctx context.Context, ids []int64, status int) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE announcements SET status = $1, updated_at = NOW() WHERE id = ANY($2)`,
		status, pq.Array(ids),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to batch update announcement status: %w", err)
	}
	return res.RowsAffected()
}

func (r *AnnouncementRepository) query(ctx context.Context, query string, args ...any) ([]models.Announcement, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query announcements: %w", err)
	}
	defer rows.Close()

	list := make([]models.Announcement, 0)
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan announcement: %w", err)
		}
		list = append(list, *a)
	}
	return list, rows.Err()
}

func scanAnnouncement(s rowScanner) (*models.Announcement, error) {
	a := &models.Announcement{}
	err := s.Scan(
		&a.ID,
		&a.Content,
		&a.Status,
		&a.Priority,
		&a.StartTime,
		&a.EndTime,
		&a.CreatedBy,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}
