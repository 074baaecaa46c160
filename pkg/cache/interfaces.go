// Package cache 提供股票列表的持久化存储。
// 列表按 (市场, 日期键) 分桶，跨进程可见；进程内的当日缓存由
// provider.DataManager 自行维护，本包只负责落盘/落库。
package cache

import (
	"context"

	"stockdata/pkg/core"
)

// ListStore 股票列表持久化接口
type ListStore interface {
	// SaveList 按 (市场, 日期键) 覆盖写入股票列表。
	SaveList(ctx context.Context, market core.Market, stocks []core.StockInfo, dateKey string) error

	// LoadList 读取指定 (市场, 日期键) 的股票列表。
	// 条目不存在返回 (nil, nil)，不作为错误。
	LoadList(ctx context.Context, market core.Market, dateKey string) ([]core.StockInfo, error)
}

// Closable 需要清理资源的存储实现应实现此接口
type Closable interface {
	Close() error
}
