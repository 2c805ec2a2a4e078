package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vextract/parse-gateway/internal/models"
	"vextract/parse-gateway/internal/utils"
)

// 失败提示
const (
	msgParseFailed      = "视频解析失败"
	msgParseUnavailable = "视频解析服务暂时不可用，请稍后重试"
	msgUnsupported      = "不支持的平台，请检查URL是否来自支持的平台"
	msgInvalidParams    = "请求参数验证失败"
)

// VideoParser 视频解析服务
type VideoParser interface {
	ParseVideo(ctx context.Context, req *models.ParseRequest) *models.ParseOutcome
	SupportedPlatforms() []models.PlatformInfo
	IsSupported(text string) bool
}

// VideoHandler 视频解析处理器
type VideoHandler struct {
	parser  VideoParser
	release bool
	logger  *zap.Logger
}

// NewVideoHandler 创建视频解析处理器, release 模式下隐藏上游错误细节
func NewVideoHandler(parser VideoParser, release bool, logger *zap.Logger) *VideoHandler {
	return &VideoHandler{
		parser:  parser,
		release: release,
		logger:  logger,
	}
}

// Parse 解析视频
func (h *VideoHandler) Parse(c *gin.Context) {
	var req models.ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		models.BadRequest(c, msgInvalidParams, err.Error())
		return
	}

	if !h.parser.IsSupported(req.URL) {
		models.BadRequest(c, msgUnsupported, gin.H{"supportedPlatforms": h.parser.SupportedPlatforms()})
		return
	}

	if req.Platform == "" {
		req.Platform = string(models.PlatformAuto)
	}

	h.logger.Info("开始解析视频",
		zap.String("url", req.URL),
		zap.String("platform", req.Platform),
		zap.String("client_ip", c.ClientIP()),
	)

	outcome := h.parser.ParseVideo(c.Request.Context(), &req)
	if outcome.Success {
		models.JSONWithTime(c, http.StatusOK, "解析成功", outcome.Data, nil, outcome.ExecTime)
		return
	}

	code := http.StatusInternalServerError
	if utils.IsClientError(outcome.Err) {
		code = http.StatusBadRequest
	}
	models.JSONWithTime(c, code, h.failureMessage(outcome), nil, outcome.Error, outcome.ExecTime)
}

func (h *VideoHandler) failureMessage(outcome *models.ParseOutcome) string {
	if h.release && utils.IsUpstreamError(outcome.Err) {
		return msgParseUnavailable
	}
	if outcome.Error == "" {
		return msgParseFailed
	}
	return outcome.Error
}

// Platforms 获取支持的平台列表
func (h *VideoHandler) Platforms(c *gin.Context) {
	platforms := h.parser.SupportedPlatforms()
	models.Success(c, "获取成功", gin.H{
		"platforms": platforms,
		"total":     len(platforms),
	})
}
