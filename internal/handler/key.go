package handler

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"vextract/parse-gateway/internal/models"
)

const msgInvalidKeyID = "密钥ID无效"

// KeyManager 密钥管理服务
type KeyManager interface {
	ListKeys(ctx context.Context) ([]models.APIKey, error)
	GetKey(ctx context.Context, id int64) (*models.APIKey, error)
	CreateKey(ctx context.Context, req *models.CreateKeyRequest) (*models.APIKey, error)
	UpdateKey(ctx context.Context, id int64, req *models.UpdateKeyRequest) (*models.APIKey, error)
	DeleteKey(ctx context.Context, id int64) error
	BatchUpdateStatus(ctx context.Context, ids []int64, status models.KeyStatus) (int64, error)
}

// KeyHandler 密钥管理处理器
type KeyHandler struct {
	keys KeyManager
}

// NewKeyHandler 创建密钥管理处理器
func NewKeyHandler(keys KeyManager) *KeyHandler {
	return &KeyHandler{keys: keys}
}

// List 获取密钥列表
func (h *KeyHandler) List(c *gin.Context) {
	keys, err := h.keys.ListKeys(c.Request.Context())
	if err != nil {
		respondError(c, err, "获取密钥列表失败")
		return
	}
	if keys == nil {
		keys = []models.APIKey{}
	}
	models.Success(c, "获取成功", keys)
}

// Get 获取密钥详情
func (h *KeyHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "keyId")
	if !ok {
		models.BadRequest(c, msgInvalidKeyID, nil)
		return
	}

	key, err := h.keys.GetKey(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "获取密钥详情失败")
		return
	}
	models.Success(c, "获取成功", key)
}

// Create 添加密钥
func (h *KeyHandler) Create(c *gin.Context) {
	var req models.CreateKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		models.BadRequest(c, msgInvalidParams, err.Error())
		return
	}

	key, err := h.keys.CreateKey(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "添加密钥失败")
		return
	}
	models.Success(c, "添加成功", key)
}

// Update 更新密钥
func (h *KeyHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "keyId")
	if !ok {
		models.BadRequest(c, msgInvalidKeyID, nil)
		return
	}

	var req models.UpdateKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		models.BadRequest(c, msgInvalidParams, err.Error())
		return
	}

	key, err := h.keys.UpdateKey(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err, "更新密钥失败")
		return
	}
	models.Success(c, "更新成功", key)
}

// Delete 删除密钥
func (h *KeyHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "keyId")
	if !ok {
		models.BadRequest(c, msgInvalidKeyID, nil)
		return
	}

	if err := h.keys.DeleteKey(c.Request.Context(), id); err != nil {
		respondError(c, err, "删除密钥失败")
		return
	}
	models.Success(c, "删除成功", nil)
}

// BatchStatus 批量更新密钥状态
func (h *KeyHandler) BatchStatus(c *gin.Context) {
	var req models.BatchKeyStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		models.BadRequest(c, msgInvalidParams, err.Error())
		return
	}

	status := models.KeyStatus(req.Status)
	n, err := h.keys.BatchUpdateStatus(c.Request.Context(), req.KeyIDs, status)
	if err != nil {
		respondError(c, err, "批量更新失败")
		return
	}
	models.Success(c, fmt.Sprintf("成功更新%d个密钥状态", n), gin.H{
		"updatedCount": n,
		"status":       status,
	})
}
