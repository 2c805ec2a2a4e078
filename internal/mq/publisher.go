package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"vextract/parse-gateway/internal/config"
)

const maxReconnectBackoff = 30 * time.Second

// ErrChannelUnavailable 通道尚未建立或正在重连
var ErrChannelUnavailable = errors.New("rabbitmq channel is not available")

// Publisher 解析事件的 RabbitMQ 发布器, 使用 topic 交换机按结果和平台路由
type Publisher struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	cfg       *config.RabbitMQConfig
	logger    *zap.Logger
	mu        sync.Mutex
	isClosing atomic.Bool
	done      chan struct{}
	closeOnce sync.Once

	// dial 建立连接和通道, 测试中替换
	dial    func() error
	backoff func(attempt int) time.Duration
}

// NewPublisher 连接 RabbitMQ 并声明拓扑
func NewPublisher(cfg *config.RabbitMQConfig, logger *zap.Logger) (*Publisher, error) {
	p := newPublisher(cfg, logger)
	if err := p.dial(); err != nil {
		return nil, err
	}
	go p.watchConnection()
	return p, nil
}

func newPublisher(cfg *config.RabbitMQConfig, logger *zap.Logger) *Publisher {
	p := &Publisher{
		cfg:     cfg,
		logger:  logger,
		done:    make(chan struct{}),
		backoff: reconnectBackoff,
	}
	p.dial = p.connect
	return p
}

// reconnectBackoff 每次多等一秒, 最长 30 秒
func reconnectBackoff(attempt int) time.Duration {
	d := time.Duration(attempt) * time.Second
	if d > maxReconnectBackoff {
		return maxReconnectBackoff
	}
	return d
}

// RoutingKey 事件路由键, 例如 parse.success.douyin
func RoutingKey(prefix string, event *ParseEvent) string {
	outcome := "failure"
	if event.Success {
		outcome = "success"
	}
	platform := event.Platform
	if platform == "" {
		platform = "unknown"
	}
	return fmt.Sprintf("%s.%s.%s", prefix, outcome, platform)
}

// bindingPattern 队列订阅该前缀下的全部事件
func bindingPattern(prefix string) string {
	return prefix + ".#"
}

func (p *Publisher) connect() error {
	conn, err := amqp.Dial(p.cfg.URL)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err == nil {
		err = declareTopology(ch, p.cfg)
	}
	if err != nil {
		conn.Close()
		return err
	}

	p.mu.Lock()
	p.conn, p.channel = conn, ch
	p.mu.Unlock()

	p.logger.Info("Connected to RabbitMQ",
		zap.String("exchange", p.cfg.Exchange),
		zap.String("queue", p.cfg.Queue),
		zap.String("binding", bindingPattern(p.cfg.RoutingKey)),
	)
	return nil
}

// declareTopology 声明持久化 topic 交换机和事件队列
func declareTopology(ch *amqp.Channel, cfg *config.RabbitMQConfig) error {
	if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err)
	}
	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", cfg.Queue, err)
	}
	if err := ch.QueueBind(cfg.Queue, bindingPattern(cfg.RoutingKey), cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", cfg.Queue, err)
	}
	return nil
}

// watchConnection 连接断开后持续重连, 直到发布器关闭
func (p *Publisher) watchConnection() {
	for {
		p.mu.Lock()
		conn := p.conn
		p.mu.Unlock()

		if conn == nil {
			if !p.reconnect() {
				return
			}
			continue
		}

		select {
		case err := <-conn.NotifyClose(make(chan *amqp.Error, 1)):
			if err != nil {
				p.logger.Warn("RabbitMQ connection lost", zap.Error(err))
			}
		case <-p.done:
			return
		}
		if p.isClosing.Load() {
			return
		}

		p.mu.Lock()
		p.conn, p.channel = nil, nil
		p.mu.Unlock()
	}
}

// reconnect 不限次数重试, 成功返回 true, 发布器关闭时返回 false
func (p *Publisher) reconnect() bool {
	for attempt := 1; !p.isClosing.Load(); attempt++ {
		err := p.dial()
		if err == nil {
			if attempt > 1 {
				p.logger.Info("RabbitMQ reconnected", zap.Int("attempts", attempt))
			}
			return true
		}
		p.logger.Warn("RabbitMQ reconnect failed", zap.Int("attempt", attempt), zap.Error(err))

		select {
		case <-time.After(p.backoff(attempt)):
		case <-p.done:
			return false
		}
	}
	return false
}

// PublishParseEvent 发布解析事件, 平台和缓存命中写入消息头便于消费方过滤
func (p *Publisher) PublishParseEvent(ctx context.Context, event *ParseEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal parse event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel == nil {
		return ErrChannelUnavailable
	}

	key := RoutingKey(p.cfg.RoutingKey, event)
	msg := amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    event.EventID,
		Timestamp:    event.CreatedAt,
		Type:         "parse_event",
		Headers: amqp.Table{
			"platform": event.Platform,
			"cached":   event.Cached,
		},
		Body: body,
	}
	if err := p.channel.PublishWithContext(ctx, p.cfg.Exchange, key, false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}

	p.logger.Debug("Published parse event", zap.String("event_id", event.EventID), zap.String("routing_key", key))
	return nil
}

// Close 停止重连并关闭连接
func (p *Publisher) Close() error {
	p.isClosing.Store(true)
	p.closeOnce.Do(func() { close(p.done) })

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
