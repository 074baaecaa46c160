package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config 主配置结构
type Config struct {
	// 服务配置
	Server ServerConfig `json:"server" mapstructure:"server"`

	// 熔断器配置
	Breaker BreakerConfig `json:"breaker" mapstructure:"breaker"`

	// 数据源配置
	Providers ProvidersConfig `json:"providers" mapstructure:"providers"`

	// 列表缓存配置
	Cache CacheConfig `json:"cache" mapstructure:"cache"`

	// InfluxDB 落库配置
	InfluxDB InfluxDBConfig `json:"influxdb" mapstructure:"influxdb"`

	// 列表定时刷新配置
	Refresh RefreshConfig `json:"refresh" mapstructure:"refresh"`

	// 日志配置
	Logger LoggerConfig `json:"logger" mapstructure:"logger"`
}

// ServerConfig HTTP服务配置
type ServerConfig struct {
	Port string `json:"port" mapstructure:"port"` // 监听端口
	Mode string `json:"mode" mapstructure:"mode"` // gin 模式 (debug, release, test)
}

// BreakerConfig 熔断器配置
type BreakerConfig struct {
	FailureThreshold int           `json:"failure_threshold" mapstructure:"failure_threshold"` // 连续失败阈值
	Cooldown         time.Duration `json:"cooldown" mapstructure:"cooldown"`                   // 熔断冷却时间
}

// ProviderConfig 单个数据源配置
type ProviderConfig struct {
	Enabled  bool          `json:"enabled" mapstructure:"enabled"`   // 是否启用
	Priority int           `json:"priority" mapstructure:"priority"` // 优先级，越小越先尝试
	Timeout  time.Duration `json:"timeout" mapstructure:"timeout"`   // 请求超时时间
	Token    string        `json:"token" mapstructure:"token"`       // API 令牌（仅 tushare 需要）
}

// ProvidersConfig 全部数据源配置
type ProvidersConfig struct {
	Tushare ProviderConfig `json:"tushare" mapstructure:"tushare"`
	Sina    ProviderConfig `json:"sina" mapstructure:"sina"`
	Tencent ProviderConfig `json:"tencent" mapstructure:"tencent"`
	Yahoo   ProviderConfig `json:"yahoo" mapstructure:"yahoo"`
	Stooq   ProviderConfig `json:"stooq" mapstructure:"stooq"`
}

// CacheConfig 列表缓存配置
type CacheConfig struct {
	Backend  string        `json:"backend" mapstructure:"backend"`     // 持久化后端 (disk, redis, none)
	Dir      string        `json:"dir" mapstructure:"dir"`             // disk 后端的存储目录
	KeepDays int           `json:"keep_days" mapstructure:"keep_days"` // disk 后端保留的历史天数
	Redis    RedisConfig   `json:"redis" mapstructure:"redis"`         // redis 后端配置
	TTL      time.Duration `json:"ttl" mapstructure:"ttl"`             // redis 条目过期时间
}

// RedisConfig Redis连接配置
type RedisConfig struct {
	Addr     string `json:"addr" mapstructure:"addr"`
	Password string `json:"password" mapstructure:"password"`
	DB       int    `json:"db" mapstructure:"db"`
}

// InfluxDBConfig InfluxDB连接配置
type InfluxDBConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	URL     string `json:"url" mapstructure:"url"`
	Token   string `json:"token" mapstructure:"token"`
	Org     string `json:"org" mapstructure:"org"`
	Bucket  string `json:"bucket" mapstructure:"bucket"`
}

// RefreshConfig 股票列表定时刷新配置
type RefreshConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Spec    string `json:"spec" mapstructure:"spec"` // cron 表达式（带秒字段）
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level  string `json:"level" mapstructure:"level"`   // 日志级别 (debug, info, warn, error)
	Format string `json:"format" mapstructure:"format"` // 日志格式 (text, json)
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8080",
			Mode: "release",
		},
		Breaker: BreakerConfig{
			FailureThreshold: 3,
			Cooldown:         5 * time.Minute,
		},
		Providers: ProvidersConfig{
			// tushare 必须配置 token 才能工作，默认关闭
			Tushare: ProviderConfig{Enabled: false, Priority: 0, Timeout: 15 * time.Second},
			Sina:    ProviderConfig{Enabled: true, Priority: 1, Timeout: 10 * time.Second},
			Tencent: ProviderConfig{Enabled: true, Priority: 2, Timeout: 10 * time.Second},
			Yahoo:   ProviderConfig{Enabled: true, Priority: 0, Timeout: 15 * time.Second},
			Stooq:   ProviderConfig{Enabled: true, Priority: 1, Timeout: 15 * time.Second},
		},
		Cache: CacheConfig{
			Backend:  "disk",
			Dir:      "./data",
			KeepDays: 7,
			TTL:      48 * time.Hour,
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
		},
		InfluxDB: InfluxDBConfig{
			Enabled: false,
			URL:     "http://localhost:8086",
			Org:     "stockdata",
			Bucket:  "daily_bars",
		},
		Refresh: RefreshConfig{
			Enabled: false,
			Spec:    "0 30 8 * * MON-FRI", // 每个交易日开盘前刷新
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load 从配置文件加载配置，path 为空时返回默认配置。
// 文件中的字段覆盖默认值。
func Load(path string) (*Config, error) {
	config := Default()
	if path == "" {
		return config, nil
	}

	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("配置无效: %w", err)
	}
	return config, nil
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.Breaker.FailureThreshold < 0 {
		return errors.New("breaker failure_threshold cannot be negative")
	}
	if c.Breaker.Cooldown < 0 {
		return errors.New("breaker cooldown cannot be negative")
	}

	switch c.Cache.Backend {
	case "disk", "redis", "none":
	default:
		return fmt.Errorf("invalid cache backend: %s, must be one of: disk, redis, none", c.Cache.Backend)
	}
	if c.Cache.Backend == "redis" && c.Cache.Redis.Addr == "" {
		return errors.New("cache redis addr is required")
	}

	if c.Providers.Tushare.Enabled && c.Providers.Tushare.Token == "" {
		return errors.New("tushare token is required when tushare is enabled")
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			return errors.New("influxdb url is required")
		}
		if c.InfluxDB.Org == "" || c.InfluxDB.Bucket == "" {
			return errors.New("influxdb org and bucket are required")
		}
	}

	if c.Refresh.Enabled && c.Refresh.Spec == "" {
		return errors.New("refresh spec is required when refresh is enabled")
	}

	return nil
}

// EnabledProviders 返回已启用的数据源名称，用于启动日志
func (c *Config) EnabledProviders() []string {
	var names []string
	if c.Providers.Tushare.Enabled {
		names = append(names, "tushare")
	}
	if c.Providers.Sina.Enabled {
		names = append(names, "sina")
	}
	if c.Providers.Tencent.Enabled {
		names = append(names, "tencent")
	}
	if c.Providers.Yahoo.Enabled {
		names = append(names, "yahoo")
	}
	if c.Providers.Stooq.Enabled {
		names = append(names, "stooq")
	}
	return names
}
