package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"stockdata/pkg/core"
)

// RedisListStoreConfig Redis列表存储配置
type RedisListStoreConfig struct {
	Addr      string        `mapstructure:"addr"`       // Redis 地址 host:port
	Password  string        `mapstructure:"password"`   // 密码
	DB        int           `mapstructure:"db"`         // 数据库编号
	KeyPrefix string        `mapstructure:"key_prefix"` // 键前缀
	TTL       time.Duration `mapstructure:"ttl"`        // 条目过期时间
}

// RedisListStore 基于Redis的列表存储
// 键格式: {prefix}:{market}:{date_key}，多个服务实例共享同一份当日列表。
type RedisListStore struct {
	client *redis.Client
	config RedisListStoreConfig
}

// NewRedisListStore 创建Redis列表存储并验证连通性
func NewRedisListStore(config RedisListStoreConfig) (*RedisListStore, error) {
	if config.KeyPrefix == "" {
		config.KeyPrefix = "stocklist"
	}
	if config.TTL <= 0 {
		config.TTL = 48 * time.Hour
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("连接Redis失败: %w", err)
	}

	return &RedisListStore{client: client, config: config}, nil
}

// SaveList 写入股票列表
func (s *RedisListStore) SaveList(ctx context.Context, market core.Market, stocks []core.StockInfo, dateKey string) error {
	data, err := json.Marshal(stocks)
	if err != nil {
		return fmt.Errorf("序列化股票列表失败: %w", err)
	}

	if err := s.client.Set(ctx, s.key(market, dateKey), data, s.config.TTL).Err(); err != nil {
		return fmt.Errorf("写入Redis失败: %w", err)
	}
	return nil
}

// LoadList 读取股票列表，键不存在返回 (nil, nil)
func (s *RedisListStore) LoadList(ctx context.Context, market core.Market, dateKey string) ([]core.StockInfo, error) {
	data, err := s.client.Get(ctx, s.key(market, dateKey)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("读取Redis失败: %w", err)
	}

	var stocks []core.StockInfo
	if err := json.Unmarshal(data, &stocks); err != nil {
		return nil, fmt.Errorf("反序列化股票列表失败: %w", err)
	}
	return stocks, nil
}

// Close 关闭Redis连接
func (s *RedisListStore) Close() error {
	return s.client.Close()
}

// key 构造存储键
func (s *RedisListStore) key(market core.Market, dateKey string) string {
	return fmt.Sprintf("%s:%s:%s", s.config.KeyPrefix, strings.ToLower(string(market)), dateKey)
}

var _ ListStore = (*RedisListStore)(nil)
var _ Closable = (*RedisListStore)(nil)
