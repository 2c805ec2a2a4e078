package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"vextract/parse-gateway/internal/models"
)

// 依赖状态
const (
	depConnected    = "connected"
	depDisconnected = "disconnected"
	depDisabled     = "disabled"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	db          *sql.DB
	redisClient *redis.Client
	startTime   time.Time
	version     string
}

// NewHealthHandler 创建健康检查处理器, db 和 redisClient 可为空
func NewHealthHandler(db *sql.DB, redisClient *redis.Client, version string) *HealthHandler {
	return &HealthHandler{
		db:          db,
		redisClient: redisClient,
		startTime:   time.Now(),
		version:     version,
	}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status    string          `json:"status"`
	Timestamp string          `json:"timestamp"`
	Version   string          `json:"version"`
	Uptime    float64         `json:"uptime"`
	Database  string          `json:"database"`
	Redis     string          `json:"redis"`
	Features  map[string]bool `json:"features"`
}

func (h *HealthHandler) check(ctx context.Context) (dbState, redisState string) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	dbState, redisState = depDisabled, depDisabled
	if h.db != nil {
		dbState = depConnected
		if err := h.db.PingContext(ctx); err != nil {
			dbState = depDisconnected
		}
	}
	if h.redisClient != nil {
		redisState = depConnected
		if err := h.redisClient.Ping(ctx).Err(); err != nil {
			redisState = depDisconnected
		}
	}
	return dbState, redisState
}

// Health 服务健康状态
func (h *HealthHandler) Health(c *gin.Context) {
	dbState, redisState := h.check(c.Request.Context())

	models.Success(c, "服务正常", HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   h.version,
		Uptime:    time.Since(h.startTime).Seconds(),
		Database:  dbState,
		Redis:     redisState,
		Features: map[string]bool{
			"video_parsing":  true,
			"key_management": dbState == depConnected,
			"result_cache":   redisState == depConnected,
		},
	})
}

// Ready 就绪检查, 已配置的依赖不可用时返回 503
func (h *HealthHandler) Ready(c *gin.Context) {
	dbState, redisState := h.check(c.Request.Context())
	if dbState == depDisconnected || redisState == depDisconnected {
		models.Error(c, http.StatusServiceUnavailable, "服务未就绪", gin.H{
			"database": dbState,
			"redis":    redisState,
		})
		return
	}
	models.Success(c, "ready", gin.H{"database": dbState, "redis": redisState})
}

// Live 存活检查
func (h *HealthHandler) Live(c *gin.Context) {
	models.Success(c, "alive", nil)
}
