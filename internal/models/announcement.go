package models

import "time"

// 公告状态
const (
	AnnouncementDisabled = 0
	AnnouncementEnabled  = 1
)

// Announcement 公告
type Announcement struct {
	ID        int64      `json:"id"`
	Content   string     `json:"content"`
	Status    int        `json:"status"`
	Priority  int        `json:"priority"`
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	CreatedBy *string    `json:"created_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// AnnouncementFilter 公告列表查询条件
type AnnouncementFilter struct {
	Status *int
	Page   int
	Limit  int
}

// AnnouncementPage 公告分页结果
type AnnouncementPage struct {
	List  []Announcement `json:"list"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// AnnouncementUpdate 公告部分更新
type AnnouncementUpdate struct {
	Content   *string
	Status    *int
	Priority  *int
	StartTime **time.Time
	EndTime   **time.Time
}

// IsEmpty 是否没有任何需要更新的字段
func (u *AnnouncementUpdate) IsEmpty() bool {
	return u.Content == nil && u.Status == nil && u.Priority == nil && u.StartTime == nil && u.EndTime == nil
}

// CreateAnnouncementRequest 创建公告请求
type CreateAnnouncementRequest struct {
	Content   string     `json:"content" binding:"required"`
	Status    *int       `json:"status" binding:"omitempty,oneof=0 1"`
	Priority  int        `json:"priority"`
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	CreatedBy string     `json:"created_by"`
}

// UpdateAnnouncementRequest 更新公告请求
type UpdateAnnouncementRequest struct {
	Content   *string    `json:"content" binding:"omitempty,min=1"`
	Status    *int       `json:"status" binding:"omitempty,oneof=0 1"`
	Priority  *int       `json:"priority"`
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
}

// BatchAnnouncementStatusRequest 批量更新公告状态请求
type BatchAnnouncementStatusRequest struct {
	IDs    []int64 `json:"ids" binding:"required,min=1,dive,gt=0"`
	Status *int    `json:"status" binding:"required,oneof=0 1"`
}
