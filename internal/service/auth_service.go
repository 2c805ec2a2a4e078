package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"vextract/parse-gateway/internal/client"
	"vextract/parse-gateway/internal/models"
	"vextract/parse-gateway/internal/utils"
)

// UserStore 用户持久化
type UserStore interface {
	UpsertLogin(ctx context.Context, openID string, unionID, phone *string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

// WeChatAPI 微信开放接口
type WeChatAPI interface {
	Code2Session(ctx context.Context, code string) (*client.Session, error)
	PhoneNumber(ctx context.Context, code string) (string, error)
}

// TokenRevoker 令牌吊销记录
type TokenRevoker interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// AuthService 小程序登录认证服务
type AuthService struct {
	wechat  WeChatAPI
	users   UserStore
	revoker TokenRevoker
	jwt     *utils.JWTUtil
	logger  *zap.Logger
}

// NewAuthService 创建认证服务, users 和 revoker 可为空
func NewAuthService(wechat WeChatAPI, users UserStore, revoker TokenRevoker, jwtUtil *utils.JWTUtil, logger *zap.Logger) *AuthService {
	return &AuthService{
		wechat:  wechat,
		users:   users,
		revoker: revoker,
		jwt:     jwtUtil,
		logger:  logger,
	}
}

// Login 微信登录, 手机号获取失败不影响登录
func (s *AuthService) Login(ctx context.Context, req *models.WeChatLoginRequest) (*models.LoginResponse, error) {
	session, err := s.wechat.Code2Session(ctx, req.LoginCode)
	if err != nil {
		return nil, err
	}

	var phone *string
	if req.PhoneCode != "" {
		p, err := s.wechat.PhoneNumber(ctx, req.PhoneCode)
		if err != nil {
			s.logger.Warn("获取手机号失败", zap.String("openid", session.OpenID), zap.Error(err))
		} else if p != "" {
			phone = &p
		}
	}

	var unionID *string
	if session.UnionID != "" {
		unionID = &session.UnionID
	}

	user := &models.User{OpenID: session.OpenID, UnionID: unionID, Phone: phone}
	if s.users != nil {
		user, err = s.users.UpsertLogin(ctx, session.OpenID, unionID, phone)
		if err != nil {
			return nil, fmt.Errorf("failed to save user: %w", err)
		}
	} else {
		s.logger.Warn("数据库不可用, 用户信息未保存", zap.String("openid", session.OpenID))
	}

	pair, err := s.issueTokens(user.ID, user.OpenID, user.Phone)
	if err != nil {
		return nil, err
	}

	s.logger.Info("用户登录成功", zap.Int64("user_id", user.ID), zap.String("openid", user.OpenID))
	return &models.LoginResponse{
		Token:        pair.Token,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
		OpenID:       user.OpenID,
		Phone:        user.Phone,
		UserID:       user.ID,
	}, nil
}

// Refresh 使用 Refresh Token 换取新的令牌对, 旧的 Refresh Token 随即失效
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	claims, err := s.verify(ctx, refreshToken, utils.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	phone := (*string)(nil)
	if s.users != nil {
		user, err := s.users.FindByID(ctx, claims.UserID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, utils.ErrUserNotFound
		}
		phone = user.Phone
	}

	pair, err := s.issueTokens(claims.UserID, claims.OpenID, phone)
	if err != nil {
		return nil, err
	}

	s.revoke(ctx, refreshToken, claims)
	return pair, nil
}

// UserInfo 获取当前用户信息
func (s *AuthService) UserInfo(ctx context.Context, userID int64) (*models.User, error) {
	if s.users == nil {
		return nil, utils.ErrNoDatabase
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, utils.ErrUserNotFound
	}
	return user, nil
}

// Logout 注销 Access Token
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.verify(ctx, accessToken, utils.TokenTypeAccess)
	if err != nil {
		return err
	}
	s.revoke(ctx, accessToken, claims)
	return nil
}

// VerifyAccessToken 校验 Access Token
func (s *AuthService) VerifyAccessToken(ctx context.Context, token string) (*utils.Claims, error) {
	return s.verify(ctx, token, utils.TokenTypeAccess)
}

func (s *AuthService) verify(ctx context.Context, token, tokenType string) (*utils.Claims, error) {
	claims, err := s.jwt.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", utils.ErrInvalidToken, err)
	}
	if claims.Type != tokenType {
		return nil, fmt.Errorf("%w: unexpected token type %q", utils.ErrInvalidToken, claims.Type)
	}

	if s.revoker != nil {
		revoked, err := s.revoker.IsRevoked(ctx, token)
		if err != nil {
			// redis 不可用时不阻断认证
			s.logger.Warn("failed to check token revocation", zap.Error(err))
		} else if revoked {
			return nil, utils.ErrTokenRevoked
		}
	}
	return claims, nil
}

func (s *AuthService) revoke(ctx context.Context, token string, claims *utils.Claims) {
	if s.revoker == nil || claims.ExpiresAt == nil {
		return
	}
	if err := s.revoker.Revoke(ctx, token, time.Until(claims.ExpiresAt.Time)); err != nil {
		s.logger.Warn("failed to revoke token", zap.Error(err))
	}
}

func (s *AuthService) issueTokens(userID int64, openID string, phone *string) (*models.TokenPair, error) {
	p := ""
	if phone != nil {
		p = *phone
	}

	token, err := s.jwt.GenerateToken(userID, openID, p)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	refresh, err := s.jwt.GenerateRefreshToken(userID, openID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &models.TokenPair{
		Token:        token,
		RefreshToken: refresh,
		ExpiresIn:    s.jwt.GetAccessTokenTTL(),
	}, nil
}

// IsAuthError 是否是认证失败类错误
func IsAuthError(err error) bool {
	return errors.Is(err, utils.ErrInvalidToken) || errors.Is(err, utils.ErrTokenRevoked)
}
