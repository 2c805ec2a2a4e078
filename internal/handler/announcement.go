package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"vextract/parse-gateway/internal/models"
)

const msgInvalidAnnouncementID = "公告ID无效"

// AnnouncementManager 公告服务
type AnnouncementManager interface {
	GetActive(ctx context.Context) ([]models.Announcement, error)
	List(ctx context.Context, filter models.AnnouncementFilter) (*models.AnnouncementPage, error)
	Create(ctx context.Context, req *models.CreateAnnouncementRequest) (*models.Announcement, error)
	Update(ctx context.Context, id int64, req *models.UpdateAnnouncementRequest) (*models.Announcement, error)
	Delete(ctx context.Context, id int64) error
	BatchUpdateStatus(ctx context.Context, ids []int64, status int) (int64, error)
}

// AnnouncementHandler 公告处理器
type AnnouncementHandler struct {
	announcements AnnouncementManager
}

// NewAnnouncementHandler 创建公告处理器
func NewAnnouncementHandler(announcements AnnouncementManager) *AnnouncementHandler {
	return &AnnouncementHandler{announcements: announcements}
}

// Active 获取当前有效公告
func (h *AnnouncementHandler) Active(c *gin.Context) {
	list, err := h.announcements.GetActive(c.Request.Context())
	if err != nil {
		respondError(c, err, "获取公告失败")
		return
	}
	if list == nil {
		list = []models.Announcement{}
	}
	models.Success(c, "获取成功", list)
}

// List 分页获取公告
func (h *AnnouncementHandler) List(c *gin.Context) {
	filter := models.AnnouncementFilter{
		Page:  queryInt(c, "page"),
		Limit: queryInt(c, "limit"),
	}
	if s := c.Query("status"); s != "" {
		status, err := strconv.Atoi(s)
		if err != nil || (status != models.AnnouncementDisabled && status != models.AnnouncementEnabled) {
			models.BadRequest(c, "status 必须是 0 或 1", nil)
			return
		}
		filter.Status = &status
	}

	page, err := h.announcements.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "获取公告列表失败")
		return
	}
	if page.List == nil {
		page.List = []models.Announcement{}
	}
	models.Success(c, "获取成功", page)
}

// Create 创建公告
func (h *AnnouncementHandler) Create(c *gin.Context) {
	var req models.CreateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		models.BadRequest(c, "公告内容不能为空", err.Error())
		return
	}

	a, err := h.announcements.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "创建公告失败")
		return
	}
	models.Success(c, "创建成功", a)
}

// Update 更新公告
func (h *AnnouncementHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		models.BadRequest(c, msgInvalidAnnouncementID, nil)
		return
	}

	var req models.UpdateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		models.BadRequest(c, msgInvalidParams, err.Error())
		return
	}

	a, err := h.announcements.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err, "更新公告失败")
		return
	}
	models.Success(c, "更新成功", a)
}

// Delete 删除公告
func (h *AnnouncementHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		models.BadRequest(c, msgInvalidAnnouncementID, nil)
		return
	}

	if err := h.announcements.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err, "删除公告失败")
		return
	}
	models.Success(c, "删除成功", nil)
}

// BatchStatus 批量更新公告状态
func (h *AnnouncementHandler) BatchStatus(c *gin.Context) {
	var req models.BatchAnnouncementStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		models.BadRequest(c, msgInvalidParams, err.Error())
		return
	}

	n, err := h.announcements.BatchUpdateStatus(c.Request.Context(), req.IDs, *req.Status)
	if err != nil {
		respondError(c, err, "批量更新失败")
		return
	}
	models.Success(c, "更新成功", gin.H{"updatedCount": n})
}

func queryInt(c *gin.Context, name string) int {
	n, _ := strconv.Atoi(c.Query(name))
	return n
}
