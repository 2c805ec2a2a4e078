package router

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"vextract/parse-gateway/internal/config"
	"vextract/parse-gateway/internal/handler"
	"vextract/parse-gateway/internal/middleware"
	"vextract/parse-gateway/internal/models"
	"vextract/parse-gateway/internal/utils"
	"vextract/parse-gateway/internal/ws"
)

// AuthService 认证服务, 同时用于 JWT 中间件
type AuthService interface {
	handler.Authenticator
	middleware.TokenVerifier
}

// Dependencies 路由依赖, 无数据库时 Keys 和 Announcements 为空
type Dependencies struct {
	Config        *config.Config
	Logger        *zap.Logger
	DB            *sql.DB
	RedisClient   *redis.Client
	Parser        handler.VideoParser
	Keys          handler.KeyManager
	Announcements handler.AnnouncementManager
	Auth          AuthService
	Events        *ws.Hub
}

// SetupRouter 设置路由
func SetupRouter(deps *Dependencies) *gin.Engine {
	cfg := deps.Config
	logger := deps.Logger
	// test 模式与 release 一样不返回调试信息
	debug := cfg.IsDebug()
	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// 全局中间件
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.SecureHeaders())
	r.Use(middleware.CORS(&cfg.CORS))

	videoHandler := handler.NewVideoHandler(deps.Parser, !debug, logger)
	healthHandler := handler.NewHealthHandler(deps.DB, deps.RedisClient, cfg.Server.Version)
	adminAuth := middleware.AdminAuth(cfg.Admin.TokenHash, logger)
	adminLimit := middleware.AdminRateLimit(&cfg.RateLimit)
	startTime := time.Now()

	// ==================== 公开路由 ====================
	r.GET("/", func(c *gin.Context) {
		models.Success(c, "视频提取后端API服务", gin.H{
			"name":    "video-extract-backend",
			"version": cfg.Server.Version,
			"documentation": gin.H{
				"video_parse":   "/api/video/parse",
				"platforms":     "/api/video/platforms",
				"health":        "/api/video/health",
				"admin_keys":    "/api/admin/keys",
				"admin_events":  "/api/admin/events/ws",
				"announcements": "/api/announcements/active",
				"auth":          "/api/auth/login",
			},
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"uptime":    time.Since(startTime).Seconds(),
		})
	})
	r.GET("/health", healthHandler.Health)
	r.GET("/ready", healthHandler.Ready)
	r.GET("/live", healthHandler.Live)

	api := r.Group("/api")
	api.Use(middleware.GeneralRateLimit(&cfg.RateLimit))
	api.GET("", apiIndex)

	// 视频解析
	video := api.Group("/video")
	{
		video.POST("/parse", middleware.ParseRateLimit(&cfg.RateLimit), videoHandler.Parse)
		video.GET("/platforms", videoHandler.Platforms)
		video.GET("/health", healthHandler.Health)
	}

	// 密钥管理
	keys := api.Group("/admin/keys", adminLimit, adminAuth)
	if deps.Keys != nil {
		keyHandler := handler.NewKeyHandler(deps.Keys)
		keys.GET("", keyHandler.List)
		keys.GET("/:keyId", keyHandler.Get)
		keys.POST("", keyHandler.Create)
		keys.PUT("/:keyId", keyHandler.Update)
		keys.DELETE("/:keyId", keyHandler.Delete)
		keys.POST("/batch/status", keyHandler.BatchStatus)
	} else {
		for _, path := range []string{"", "/:keyId", "/batch/status"} {
			keys.Any(path, databaseUnavailable)
		}
	}

	// 解析事件实时推送
	if deps.Events != nil {
		api.GET("/admin/events/ws", adminLimit, adminAuth, deps.Events.HandleConnection)
	}

	// 公告
	announcements := api.Group("/announcements")
	if deps.Announcements != nil {
		h := handler.NewAnnouncementHandler(deps.Announcements)
		announcements.GET("/active", h.Active)

		admin := announcements.Group("", adminLimit, adminAuth)
		admin.GET("", h.List)
		admin.POST("", h.Create)
		admin.PUT("/:id", h.Update)
		admin.DELETE("/:id", h.Delete)
		admin.POST("/batch/status", h.BatchStatus)
	} else {
		announcements.GET("/active", func(c *gin.Context) {
			models.Success(c, "获取成功", []models.Announcement{})
		})
	}

	// 小程序认证
	if deps.Auth != nil {
		authHandler := handler.NewAuthHandler(deps.Auth, logger)
		jwtAuth := middleware.JWTAuth(deps.Auth, logger)

		auth := api.Group("/auth")
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.GET("/userinfo", jwtAuth, authHandler.UserInfo)
		auth.POST("/logout", jwtAuth, authHandler.Logout)
	}

	r.NoRoute(func(c *gin.Context) {
		logger.Warn("route not found", zap.String("method", c.Request.Method), zap.String("path", c.Request.URL.Path))
		models.Error(c, http.StatusNotFound, "请求的资源不存在", gin.H{
			"url":    c.Request.URL.String(),
			"method": c.Request.Method,
		})
	})

	return r
}

// endpoint 接口说明
type endpoint struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

// apiIndex 接口目录
func apiIndex(c *gin.Context) {
	models.Success(c, "API文档", gin.H{
		"video_apis": gin.H{
			"parse":     endpoint{http.MethodPost, "/api/video/parse", "解析视频链接，支持抖音、B站、小红书等平台"},
			"platforms": endpoint{http.MethodGet, "/api/video/platforms", "获取支持的平台列表"},
			"health":    endpoint{http.MethodGet, "/api/video/health", "健康检查接口"},
		},
		"admin_apis": gin.H{
			"get_keys":     endpoint{http.MethodGet, "/api/admin/keys", "获取API密钥列表"},
			"create_key":   endpoint{http.MethodPost, "/api/admin/keys", "添加新的API密钥"},
			"update_key":   endpoint{http.MethodPut, "/api/admin/keys/:keyId", "更新指定的API密钥"},
			"delete_key":   endpoint{http.MethodDelete, "/api/admin/keys/:keyId", "删除指定的API密钥"},
			"batch_update": endpoint{http.MethodPost, "/api/admin/keys/batch/status", "批量更新密钥状态"},
			"events":       endpoint{http.MethodGet, "/api/admin/events/ws", "实时解析事件推送"},
		},
		"announcement_apis": gin.H{
			"active": endpoint{http.MethodGet, "/api/announcements/active", "获取当前生效的公告"},
		},
		"auth_apis": gin.H{
			"login":    endpoint{http.MethodPost, "/api/auth/login", "微信小程序登录"},
			"refresh":  endpoint{http.MethodPost, "/api/auth/refresh", "刷新令牌"},
			"userinfo": endpoint{http.MethodGet, "/api/auth/userinfo", "获取当前用户信息"},
			"logout":   endpoint{http.MethodPost, "/api/auth/logout", "退出登录"},
		},
	})
}

func databaseUnavailable(c *gin.Context) {
	models.Error(c, http.StatusServiceUnavailable, utils.ErrNoDatabase.Error(), nil)
}
