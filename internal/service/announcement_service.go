package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"vextract/parse-gateway/internal/models"
	"vextract/parse-gateway/internal/utils"
)

const (
	defaultAnnouncementLimit = 10
	maxAnnouncementLimit     = 100
)

// AnnouncementStore 公告持久化
type AnnouncementStore interface {
	FindActive(ctx context.Context, now time.Time) ([]models.Announcement, error)
	List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int64, error)
	FindByID(ctx context.Context, id int64) (*models.Announcement, error)
	Create(ctx context.Context, a *models.Announcement) error
	Update(ctx context.Context, id int64, upd models.AnnouncementUpdate) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	BatchUpdateStatus(ctx context.Context, ids []int64, status int) (int64, error)
}

// AnnouncementService 公告服务
type AnnouncementService struct {
	store  AnnouncementStore
	now    func() time.Time
	logger *zap.Logger
}

// NewAnnouncementService 创建公告服务
func NewAnnouncementService(store AnnouncementStore, logger *zap.Logger) *AnnouncementService {
	return &AnnouncementService{
		store:  store,
		now:    time.Now,
		logger: logger,
	}
}

// GetActive 获取当前有效的公告
func (s *AnnouncementService) GetActive(ctx context.Context) ([]models.Announcement, error) {
	return s.store.FindActive(ctx, s.now())
}

// List 分页获取公告
func (s *AnnouncementService) List(ctx context.Context, filter models.AnnouncementFilter) (*models.AnnouncementPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = defaultAnnouncementLimit
	}
	if filter.Limit > maxAnnouncementLimit {
		filter.Limit = maxAnnouncementLimit
	}

	list, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &models.AnnouncementPage{
		List:  list,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

// Create 创建公告, 未指定状态时默认启用
func (s *AnnouncementService) Create(ctx context.Context, req *models.CreateAnnouncementRequest) (*models.Announcement, error) {
	if err := checkTimeRange(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	a := &models.Announcement{
		Content:   strings.TrimSpace(req.Content),
		Status:    models.AnnouncementEnabled,
		Priority:  req.Priority,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}
	if req.Status != nil {
		a.Status = *req.Status
	}
	if by := strings.TrimSpace(req.CreatedBy); by != "" {
		a.CreatedBy = &by
	}

	if err := s.store.Create(ctx, a); err != nil {
		return nil, err
	}

	s.logger.Info("创建公告成功", zap.Int64("id", a.ID))
	return a, nil
}

// Update 部分更新公告
func (s *AnnouncementService) Update(ctx context.Context, id int64, req *models.UpdateAnnouncementRequest) (*models.Announcement, error) {
	existing, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, utils.ErrAnnouncementNotFound
	}

	var upd models.AnnouncementUpdate
	if req.Content != nil {
		c := strings.TrimSpace(*req.Content)
		upd.Content = &c
	}
	upd.Status = req.Status
	upd.Priority = req.Priority
	if req.StartTime != nil {
		upd.StartTime = &req.StartTime
	}
	if req.EndTime != nil {
		upd.EndTime = &req.EndTime
	}

	if upd.IsEmpty() {
		return nil, utils.ErrNoFieldsToUpdate
	}

	start, end := existing.StartTime, existing.EndTime
	if req.StartTime != nil {
		start = req.StartTime
	}
	if req.EndTime != nil {
		end = req.EndTime
	}
	if err := checkTimeRange(start, end); err != nil {
		return nil, err
	}

	ok, err := s.store.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, utils.ErrAnnouncementNotFound
	}

	s.logger.Info("更新公告成功", zap.Int64("id", id))
	return s.store.FindByID(ctx, id)
}

// Delete 删除公告
func (s *AnnouncementService) Delete(ctx context.Context, id int64) error {
	ok, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return utils.ErrAnnouncementNotFound
	}
	s.logger.Info("删除公告成功", zap.Int64("id", id))
	return nil
}

// BatchUpdateStatus 批量更新公告状态
func (s *AnnouncementService) BatchUpdateStatus(ctx context.Context, ids []int64, status int) (int64, error) {
	if len(ids) == 0 {
		return 0, utils.ErrEmptyIDList
	}
	return s.store.BatchUpdateStatus(ctx, ids, status)
}

func checkTimeRange(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return utils.ErrInvalidTimeRange
	}
	return nil
}
