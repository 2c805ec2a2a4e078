package models

import "time"

// KeyStatus API密钥状态
type KeyStatus string

const (
	KeyStatusActive   KeyStatus = "active"
	KeyStatusInactive KeyStatus = "inactive"
)

// APIKey 第三方解析接口密钥
type APIKey struct {
	ID          int64     `json:"id"`
	KeyName     string    `json:"keyName"`
	KeyValue    string    `json:"keyValue"`
	Status      KeyStatus `json:"status"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// KeyUpdate 密钥部分更新, nil 字段不修改
type KeyUpdate struct {
	KeyName     *string
	KeyValue    *string
	Status      *KeyStatus
	Description *string
}

// IsEmpty 是否没有任何需要更新的字段
func (u *KeyUpdate) IsEmpty() bool {
	return u.KeyName == nil && u.KeyValue == nil && u.Status == nil && u.Description == nil
}

// CreateKeyRequest 添加密钥请求
type CreateKeyRequest struct {
	KeyName     string `json:"keyName" binding:"required,min=2,max=100"`
	KeyValue    string `json:"keyValue" binding:"required,min=10,max=255"`
	Description string `json:"description" binding:"max=500"`
}

// UpdateKeyRequest 更新密钥请求
type UpdateKeyRequest struct {
	KeyName     *string `json:"keyName" binding:"omitempty,min=2,max=100"`
	KeyValue    *string `json:"keyValue" binding:"omitempty,min=10,max=255"`
	Status      *string `json:"status" binding:"omitempty,oneof=active inactive"`
	Description *string `json:"description" binding:"omitempty,max=500"`
}

// BatchKeyStatusRequest 批量更新密钥状态请求
type BatchKeyStatusRequest struct {
	KeyIDs []int64 `json:"keyIds" binding:"required,min=1,max=50,unique,dive,gt=0"`
	Status string  `json:"status" binding:"required,oneof=active inactive"`
}
