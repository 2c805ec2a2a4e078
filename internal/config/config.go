package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	RabbitMQ  RabbitMQConfig  `yaml:"rabbitmq"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Cache     CacheConfig     `yaml:"cache"`
	WeChat    WeChatConfig    `yaml:"wechat"`
	JWT       JWTConfig       `yaml:"jwt"`
	Admin     AdminConfig     `yaml:"admin"`
	CORS      CORSConfig      `yaml:"cors"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port            int           `yaml:"port"`
	GRPCPort        int           `yaml:"grpc_port"` // 0 表示不启动 gRPC
	Mode            string        `yaml:"mode"`      // debug, release
	Version         string        `yaml:"version"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes"`
	SkipDatabase    bool          `yaml:"skip_database"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	DBName          string        `yaml:"dbname"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	MigrationsPath  string        `yaml:"migrations_path"`
}

// RedisConfig Redis配置, Addr 为空时不启用缓存
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// RabbitMQConfig RabbitMQ 配置, URL 为空时不发布解析事件
type RabbitMQConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	Queue      string `yaml:"queue"`
	RoutingKey string `yaml:"routing_key"` // 路由键前缀, 实际为 <前缀>.<success|failure>.<平台>
}

// UpstreamConfig 第三方解析接口配置
type UpstreamConfig struct {
	BaseURL       string        `yaml:"base_url"`
	Timeout       time.Duration `yaml:"timeout"`
	UserAgent     string        `yaml:"user_agent"`
	MaxConcurrent int           `yaml:"max_concurrent"`
	Keys          []string      `yaml:"keys"` // 无数据库模式下使用的静态密钥
}

// CacheConfig 解析结果缓存配置
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
}

// WeChatConfig 微信小程序配置
type WeChatConfig struct {
	AppID     string        `yaml:"app_id"`
	AppSecret string        `yaml:"app_secret"`
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	Secret          string        `yaml:"secret"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl"`
}

// AdminConfig 管理接口配置
type AdminConfig struct {
	TokenHash string `yaml:"token_hash"` // bcrypt 哈希
}

// CORSConfig CORS 配置
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
	MaxAge         int      `yaml:"max_age"`
}

// RateLimitConfig 限流配置, 按IP在窗口内限制请求数
type RateLimitConfig struct {
	General WindowLimit `yaml:"general"`
	Parse   WindowLimit `yaml:"parse"`
	Admin   WindowLimit `yaml:"admin"`
}

// WindowLimit 窗口限流
type WindowLimit struct {
	Max    int           `yaml:"max"`
	Window time.Duration `yaml:"window"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv 从环境变量覆盖配置
func (c *Config) applyEnv() {
	setString(&c.Server.Mode, "SERVER_MODE")
	setInt(&c.Server.Port, "PORT")
	setInt(&c.Server.GRPCPort, "GRPC_PORT")
	if v := os.Getenv("SKIP_DATABASE"); v != "" {
		c.Server.SkipDatabase = v == "true"
	}

	// 数据库
	setString(&c.Database.Host, "DB_HOST")
	setInt(&c.Database.Port, "DB_PORT")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.DBName, "DB_NAME")

	// Redis
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")

	// RabbitMQ
	setString(&c.RabbitMQ.URL, "RABBITMQ_URL")

	// 第三方接口
	setString(&c.Upstream.BaseURL, "THIRD_PARTY_API_URL")
	if key := os.Getenv("THIRD_PARTY_API_KEY"); key != "" {
		c.Upstream.Keys = append(c.Upstream.Keys, strings.Split(key, ",")...)
	}

	// 微信
	setString(&c.WeChat.AppID, "WX_APPID")
	setString(&c.WeChat.AppSecret, "WX_APPSECRET")

	setString(&c.JWT.Secret, "JWT_SECRET")
	setString(&c.Admin.TokenHash, "ADMIN_TOKEN_HASH")
}

// applyDefaults 设置默认值
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "debug"
	}
	if c.Server.Version == "" {
		c.Server.Version = "1.0.0"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 60 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Server.MaxHeaderBytes == 0 {
		c.Server.MaxHeaderBytes = 1 << 20
	}

	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = time.Hour
	}
	if c.Database.MigrationsPath == "" {
		c.Database.MigrationsPath = "file://migrations"
	}

	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 10
	}

	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "video.parse"
	}
	if c.RabbitMQ.Queue == "" {
		c.RabbitMQ.Queue = "video.parse.events"
	}
	if c.RabbitMQ.RoutingKey == "" {
		c.RabbitMQ.RoutingKey = "parse"
	}

	if c.Upstream.BaseURL == "" {
		c.Upstream.BaseURL = "https://www.52api.cn/api/video_parse"
	}
	if c.Upstream.Timeout == 0 {
		c.Upstream.Timeout = 10 * time.Second
	}
	if c.Upstream.MaxConcurrent == 0 {
		c.Upstream.MaxConcurrent = 20
	}

	if c.Cache.TTL == 0 {
		c.Cache.TTL = time.Hour
	}

	if c.WeChat.BaseURL == "" {
		c.WeChat.BaseURL = "https://api.weixin.qq.com"
	}
	if c.WeChat.Timeout == 0 {
		c.WeChat.Timeout = 10 * time.Second
	}

	if c.JWT.AccessTokenTTL == 0 {
		c.JWT.AccessTokenTTL = 7 * 24 * time.Hour
	}
	if c.JWT.RefreshTokenTTL == 0 {
		c.JWT.RefreshTokenTTL = 30 * 24 * time.Hour
	}

	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
	if len(c.CORS.AllowedMethods) == 0 {
		c.CORS.AllowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(c.CORS.AllowedHeaders) == 0 {
		c.CORS.AllowedHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Token", "X-Request-ID"}
	}
	if c.CORS.MaxAge == 0 {
		c.CORS.MaxAge = 86400
	}

	setLimit(&c.RateLimit.General, 100, 15*time.Minute)
	setLimit(&c.RateLimit.Parse, 20, 5*time.Minute)
	setLimit(&c.RateLimit.Admin, 50, 10*time.Minute)

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate 校验必需配置
func (c *Config) Validate() error {
	if c.Server.Mode != "debug" && c.Server.Mode != "release" && c.Server.Mode != "test" {
		return fmt.Errorf("invalid server mode: %s", c.Server.Mode)
	}
	u, err := url.Parse(c.Upstream.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid upstream base_url: %q", c.Upstream.BaseURL)
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt secret is required")
	}
	if c.Server.Mode == "release" && c.Admin.TokenHash == "" {
		return errors.New("admin token hash is required in release mode")
	}
	return nil
}

// IsDebug 是否调试模式
func (c *Config) IsDebug() bool {
	return c.Server.Mode == "debug"
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// GetURL 获取数据库连接URL (用于golang-migrate)
func (c *DatabaseConfig) GetURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.User), url.QueryEscape(c.Password), c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func setInt(dst *int, env string) {
	if v := os.Getenv(env); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setLimit(l *WindowLimit, max int, window time.Duration) {
	if l.Max == 0 {
		l.Max = max
	}
	if l.Window == 0 {
		l.Window = window
	}
}
