package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"stockdata/pkg/core"
)

// DiskListStoreConfig 磁盘列表存储配置
type DiskListStoreConfig struct {
	BaseDir    string `mapstructure:"base_dir"`    // 存储目录
	KeepDays   int    `mapstructure:"keep_days"`   // 最多保留的历史文件天数（按文件数近似），0 表示不清理
	FilePrefix string `mapstructure:"file_prefix"` // 文件名前缀
}

// DiskListStore 基于JSON文件的列表存储
// 每个 (市场, 日期键) 对应一个文件，写入走临时文件+重命名保证原子性。
type DiskListStore struct {
	mu     sync.Mutex
	config DiskListStoreConfig
	dir    string
}

// NewDiskListStore 创建磁盘列表存储
func NewDiskListStore(config DiskListStoreConfig) (*DiskListStore, error) {
	if config.BaseDir == "" {
		config.BaseDir = os.TempDir()
	}
	if config.FilePrefix == "" {
		config.FilePrefix = "stocklist"
	}

	dir := filepath.Join(config.BaseDir, "stocklist")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("创建列表存储目录失败: %w", err)
	}

	return &DiskListStore{config: config, dir: dir}, nil
}

// SaveList 写入股票列表文件
func (s *DiskListStore) SaveList(ctx context.Context, market core.Market, stocks []core.StockInfo, dateKey string) error {
	data, err := json.Marshal(stocks)
	if err != nil {
		return fmt.Errorf("序列化股票列表失败: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.filePath(market, dateKey)
	tempPath := path + ".tmp"

	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("写入临时文件失败: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("重命名文件失败: %w", err)
	}

	s.cleanupOld(market, dateKey)
	return nil
}

// LoadList 读取股票列表文件，不存在返回 (nil, nil)
func (s *DiskListStore) LoadList(ctx context.Context, market core.Market, dateKey string) ([]core.StockInfo, error) {
	s.mu.Lock()
	path := s.filePath(market, dateKey)
	s.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("读取列表文件失败: %w", err)
	}

	var stocks []core.StockInfo
	if err := json.Unmarshal(data, &stocks); err != nil {
		return nil, fmt.Errorf("反序列化股票列表失败: %w", err)
	}
	return stocks, nil
}

// filePath 返回 (市场, 日期键) 对应的文件路径
func (s *DiskListStore) filePath(market core.Market, dateKey string) string {
	name := fmt.Sprintf("%s_%s_%s.json", s.config.FilePrefix, strings.ToLower(string(market)), dateKey)
	return filepath.Join(s.dir, name)
}

// cleanupOld 清理同一市场的过期文件，保留最近 KeepDays 份
func (s *DiskListStore) cleanupOld(market core.Market, currentKey string) {
	if s.config.KeepDays <= 0 {
		return
	}

	pattern := fmt.Sprintf("%s_%s_*.json", s.config.FilePrefix, strings.ToLower(string(market)))
	matches, err := filepath.Glob(filepath.Join(s.dir, pattern))
	if err != nil || len(matches) <= s.config.KeepDays {
		return
	}

	// 文件名中内嵌日期键，字典序即时间序
	sort.Strings(matches)
	for _, path := range matches[:len(matches)-s.config.KeepDays] {
		os.Remove(path)
	}
}

var _ ListStore = (*DiskListStore)(nil)
