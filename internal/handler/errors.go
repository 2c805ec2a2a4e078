package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"vextract/parse-gateway/internal/models"
	"vextract/parse-gateway/internal/utils"
)

// statusFor 业务错误对应的 HTTP 状态码
func statusFor(err error) int {
	switch {
	case errors.Is(err, utils.ErrKeyNotFound),
		errors.Is(err, utils.ErrAnnouncementNotFound),
		errors.Is(err, utils.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, utils.ErrKeyNameExists):
		return http.StatusConflict
	case errors.Is(err, utils.ErrInvalidKeyName),
		errors.Is(err, utils.ErrNoFieldsToUpdate),
		errors.Is(err, utils.ErrEmptyIDList),
		errors.Is(err, utils.ErrInvalidTimeRange),
		errors.Is(err, utils.ErrWeChatLogin):
		return http.StatusBadRequest
	case errors.Is(err, utils.ErrInvalidToken),
		errors.Is(err, utils.ErrTokenRevoked):
		return http.StatusUnauthorized
	case errors.Is(err, utils.ErrNoDatabase):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError 写出业务错误, 未分类的错误使用 fallback 作为提示
func respondError(c *gin.Context, err error, fallback string) {
	code := statusFor(err)
	msg := fallback
	if code != http.StatusInternalServerError {
		msg = err.Error()
	}
	_ = c.Error(err)
	models.Error(c, code, msg, err.Error())
}

// paramID 解析路径中的正整数 ID
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
