package config

import (
	"fmt"
	"os"
	"strconv"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Config 通知服务配置
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig

	// HTTP 控制面配置
	HTTP struct {
		Addr string // 监听地址，如 ":8086"
	}

	// 合规状态 Oracle（外部合规服务）
	Oracle struct {
		BaseURL    string // 合规服务地址，如 "http://worksafe-compliance:8085"
		TimeoutSec int    // 请求超时（秒），默认 10秒
	}

	// 通知引擎特定配置
	Notify struct {
		// 调度配置
		PollInterval  int // 调度周期（秒），默认 300秒
		SendBatchSize int // 单次发送批量大小，默认 50

		// 收件人配置
		DefaultRecipient string // 租户未配置通知邮箱时的兜底收件人

		// 投递通道配置
		Channel struct {
			Mode       string // "log"（本地日志兜底）或 "webhook"
			WebhookURL string // Mode=webhook 时的投递地址
			TimeoutSec int    // 投递超时（秒），默认 15秒
		}

		// 去重账本缓存配置
		Ledger struct {
			KeyPrefix string // Redis 键前缀，如 "notify:ledger:"
			CacheTTL  int    // 正向缓存 TTL（秒），默认 86400（24小时）
		}

		// 周摘要配置
		Digest struct {
			Enabled bool // 是否启用每周摘要通知
		}
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := &Config{}

	// 从环境变量加载（默认值）
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "worksafe")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 10)
	cfg.Database.MaxIdle = getEnvInt("DB_MAX_IDLE", 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8086")

	cfg.Oracle.BaseURL = getEnv("ORACLE_BASE_URL", "http://localhost:8085")
	cfg.Oracle.TimeoutSec = getEnvInt("ORACLE_TIMEOUT_SEC", 10)

	// 通知引擎配置
	cfg.Notify.PollInterval = getEnvInt("NOTIFY_POLL_INTERVAL", 300)
	cfg.Notify.SendBatchSize = getEnvInt("NOTIFY_SEND_BATCH_SIZE", 50)
	cfg.Notify.DefaultRecipient = getEnv("NOTIFY_DEFAULT_RECIPIENT", "compliance@localhost")
	cfg.Notify.Channel.Mode = getEnv("NOTIFY_CHANNEL", "log")
	cfg.Notify.Channel.WebhookURL = getEnv("NOTIFY_WEBHOOK_URL", "")
	cfg.Notify.Channel.TimeoutSec = getEnvInt("NOTIFY_CHANNEL_TIMEOUT_SEC", 15)
	cfg.Notify.Ledger.KeyPrefix = getEnv("NOTIFY_LEDGER_PREFIX", "notify:ledger:")
	cfg.Notify.Ledger.CacheTTL = getEnvInt("NOTIFY_LEDGER_TTL", 86400)
	cfg.Notify.Digest.Enabled = getEnv("NOTIFY_DIGEST_ENABLED", "true") == "true"

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
