package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vextract/parse-gateway/internal/middleware"
	"vextract/parse-gateway/internal/models"
	"vextract/parse-gateway/internal/service"
)

// Authenticator 认证服务
type Authenticator interface {
	Login(ctx context.Context, req *models.WeChatLoginRequest) (*models.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	UserInfo(ctx context.Context, userID int64) (*models.User, error)
	Logout(ctx context.Context, accessToken string) error
}

// AuthHandler 小程序认证处理器
type AuthHandler struct {
	auth   Authenticator
	logger *zap.Logger
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(auth Authenticator, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

// Login 微信登录
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.WeChatLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		models.BadRequest(c, "缺少登录凭证 loginCode", err.Error())
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), &req)
	if err != nil {
		h.logger.Error("login failed", zap.Error(err))
		respondError(c, err, "登录失败")
		return
	}
	models.Success(c, "登录成功", resp)
}

// UserInfo 获取当前用户信息
func (h *AuthHandler) UserInfo(c *gin.Context) {
	user, err := h.auth.UserInfo(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err, "获取用户信息失败")
		return
	}
	models.Success(c, "获取成功", user)
}

// Refresh 刷新令牌
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req models.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		models.BadRequest(c, "缺少 refreshToken", err.Error())
		return
	}

	pair, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if service.IsAuthError(err) {
			models.Error(c, http.StatusUnauthorized, "Token 无效或已过期", err.Error())
			return
		}
		respondError(c, err, "Token 刷新失败")
		return
	}
	models.Success(c, "Token 刷新成功", pair)
}

// Logout 退出登录
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), middleware.GetToken(c)); err != nil {
		respondError(c, err, "退出登录失败")
		return
	}
	models.Success(c, "退出登录成功", nil)
}
