package mq

import (
	"time"

	"github.com/google/uuid"

	"vextract/parse-gateway/internal/models"
)

// ParseEvent 解析事件消息
type ParseEvent struct {
	EventID       string  `json:"event_id"`
	RawURL        string  `json:"raw_url"`
	NormalizedURL string  `json:"normalized_url,omitempty"`
	Platform      string  `json:"platform"`
	Success       bool    `json:"success"`
	Error         string  `json:"error,omitempty"`
	Title         string  `json:"title,omitempty"`
	Cached        bool    `json:"cached"`
	ExecTime      float64 `json:"exec_time"`
	KeyID         int64   `json:"key_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// NewParseEvent 根据解析结果构造事件
func NewParseEvent(rawURL, normalizedURL string, platform models.Platform, outcome *models.ParseOutcome) *ParseEvent {
	e := &ParseEvent{
		EventID:       uuid.New().String(),
		RawURL:        rawURL,
		NormalizedURL: normalizedURL,
		Platform:      string(platform),
		Success:       outcome.Success,
		Error:         outcome.Error,
		ExecTime:      outcome.ExecTime,
		CreatedAt:     time.Now(),
	}
	if outcome.Data != nil {
		e.Title = outcome.Data.Title
	}
	return e
}
