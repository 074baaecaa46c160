package provider

import (
	"context"

	"stockdata/pkg/core"
)

// Fetcher 是所有数据源适配器的基础接口。
// 每个数据源声明自己的名称、优先级以及服务的市场；
// 具体取数能力由下面的能力接口按需实现，调度引擎对未实现的
// 能力一律按"空结果"处理，不做特殊分支。
type Fetcher interface {
	// Name 返回数据源名称，例如 "tushare" 或 "sina"。
	// 同一市场链内名称必须唯一。
	Name() string

	// Priority 返回静态优先级，数值越小越先尝试。
	Priority() int

	// IsAvailableFor 报告该数据源是否服务给定市场。
	// 一个数据源可以同时出现在 CN 和 US 两条链中。
	IsAvailableFor(market core.Market) bool
}

// DailyFetcher 日线数据能力接口
type DailyFetcher interface {
	Fetcher

	// FetchDaily 获取指定股票的日线历史。
	// 返回空切片表示该数据源没有此股票的数据。
	FetchDaily(ctx context.Context, symbol string) ([]core.DailyBar, error)
}

// FinancialFetcher 财务数据能力接口
type FinancialFetcher interface {
	Fetcher

	// FetchFinancials 获取指定股票的财务指标字段。
	// 返回 nil 或空字段集表示无数据。
	FetchFinancials(ctx context.Context, symbol string) (*core.FinancialReport, error)
}

// ListFetcher 股票列表能力接口
type ListFetcher interface {
	Fetcher

	// FetchList 获取指定市场的股票列表。
	FetchList(ctx context.Context, market core.Market) ([]core.StockInfo, error)
}

// Closable 需要清理资源的数据源应实现此接口
type Closable interface {
	Close() error
}
