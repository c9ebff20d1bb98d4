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

// DSN 获取数据库连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Config lifeband-data 服务配置
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig

	HTTP struct {
		Addr string // 监听地址，如 ":8080"
	}

	MQTT struct {
		Enabled  bool
		Broker   string
		ClientID string
		Username string
		Password string
		Topic    string // 设备遥测主题，如 "lifeband/+/telemetry"
		QoS      byte
	}

	Ingest struct {
		// DemoUserID 开发/测试专用：设备无法解析归属用户时回退到此用户。
		// 生产环境必须留空，留空时未注册设备的数据会被拒绝。
		DemoUserID string
	}

	Retention struct {
		SweepInterval   int // 清理扫描间隔（秒），默认 300
		RetentionWindow int // 遥测数据保留时长（秒），默认 1800
	}

	Notify struct {
		GatewayURL         string // 短信网关地址
		GatewayAppID       string
		GatewayAppSecret   string
		DefaultCountryCode string // 号码缺少国家码时的默认国家码，如 "1"
		MapLinkBase        string // 位置分享链接前缀
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "lifeband")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 10)
	cfg.Database.MaxIdle = getEnvInt("DB_MAX_IDLE", 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.MQTT.Enabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "lifeband-data")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.Topic = getEnv("MQTT_TELEMETRY_TOPIC", "lifeband/+/telemetry")
	cfg.MQTT.QoS = 1

	cfg.Ingest.DemoUserID = getEnv("INGEST_DEMO_USER_ID", "")

	cfg.Retention.SweepInterval = getEnvInt("RETENTION_SWEEP_INTERVAL", 300)
	cfg.Retention.RetentionWindow = getEnvInt("RETENTION_WINDOW", 1800)

	cfg.Notify.GatewayURL = getEnv("SMS_GATEWAY_URL", "http://localhost:9090")
	cfg.Notify.GatewayAppID = getEnv("SMS_GATEWAY_APP_ID", "")
	cfg.Notify.GatewayAppSecret = getEnv("SMS_GATEWAY_APP_SECRET", "")
	cfg.Notify.DefaultCountryCode = getEnv("SMS_DEFAULT_COUNTRY_CODE", "1")
	cfg.Notify.MapLinkBase = getEnv("NOTIFY_MAP_LINK_BASE", "https://maps.google.com/?q=")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

// getEnv 读取环境变量，不存在时返回默认值
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt 读取整数环境变量，解析失败时返回默认值
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return i
}
