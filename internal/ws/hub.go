package ws

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"vextract/parse-gateway/internal/mq"
)

const (
	pingInterval  = 30 * time.Second
	pongWait      = 60 * time.Second
	writeWait     = 10 * time.Second
	subscriberBuf = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // 管理端点已由管理令牌保护
	},
}

// Hub 解析事件实时推送, 实现 mq.Sink
type Hub struct {
	subscribers sync.Map // map[connID]chan *mq.ParseEvent
	dropped     atomic.Int64
	logger      *zap.Logger
}

// NewHub 创建推送中心
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{logger: logger}
}

// PublishParseEvent 投递给所有订阅者, 缓冲区满的订阅者丢弃该事件
func (h *Hub) PublishParseEvent(_ context.Context, event *mq.ParseEvent) error {
	h.subscribers.Range(func(_, value any) bool {
		select {
		case value.(chan *mq.ParseEvent) <- event:
		default:
			h.dropped.Add(1)
		}
		return true
	})
	return nil
}

// SubscriberCount 当前订阅者数量
func (h *Hub) SubscriberCount() int {
	count := 0
	h.subscribers.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

// Dropped 因订阅者过慢而丢弃的事件数
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

func (h *Hub) subscribe() (string, chan *mq.ParseEvent) {
	id := uuid.NewString()
	ch := make(chan *mq.ParseEvent, subscriberBuf)
	h.subscribers.Store(id, ch)
	return id, ch
}

func (h *Hub) unsubscribe(id string) {
	h.subscribers.Delete(id)
}

// HandleConnection 升级为 WebSocket 并持续推送解析事件
func (h *Hub) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("failed to upgrade websocket", zap.Error(err))
		return
	}

	id, events := h.subscribe()
	h.logger.Info("event subscriber connected", zap.String("conn_id", id), zap.String("ip", c.ClientIP()))
	defer func() {
		h.unsubscribe(id)
		conn.Close()
		h.logger.Info("event subscriber disconnected", zap.String("conn_id", id))
	}()

	// 读循环只处理 pong 和关闭帧
	closed := make(chan struct{})
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case <-c.Request.Context().Done():
			return
		case event := <-events:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				h.logger.Warn("failed to push parse event", zap.String("conn_id", id), zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
