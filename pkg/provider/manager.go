package provider

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"stockdata/pkg/breaker"
	"stockdata/pkg/cache"
	"stockdata/pkg/core"
	"stockdata/pkg/logger"
)

// ManagerConfig DataManager 配置
type ManagerConfig struct {
	// FailureThreshold 熔断器连续失败阈值，<=0 使用默认值
	FailureThreshold int
	// Cooldown 熔断冷却时间，<=0 使用默认值
	Cooldown time.Duration
	// ListStore 股票列表持久化存储，可为 nil（仅用进程内缓存）
	ListStore cache.ListStore
}

// DataManager 多数据源调度引擎
// 每个市场持有一条按优先级排序的数据源链，每个 (市场, 数据源)
// 对应一个熔断器。所有公开取数方法共用同一个带熔断的顺序回退
// 算法，对调用方只暴露"有数据/无数据"两种结果，从不抛出数据源
// 层面的错误。
type DataManager struct {
	mu       sync.RWMutex
	fetchers map[core.Market][]Fetcher
	breakers map[string]*breaker.CircuitBreaker

	failureThreshold int
	cooldown         time.Duration

	listCache *listCache
	log       *logrus.Entry
}

// NewDataManager 从两条显式有序的数据源链构建调度引擎。
// 任一市场的链为空属于配置错误，在构造期报错而不是调用期。
func NewDataManager(cfg ManagerConfig, cnFetchers, usFetchers []Fetcher) (*DataManager, error) {
	if len(cnFetchers) == 0 {
		return nil, fmt.Errorf("%w: market=CN", core.ErrEmptyFetcherChain)
	}
	if len(usFetchers) == 0 {
		return nil, fmt.Errorf("%w: market=US", core.ErrEmptyFetcherChain)
	}

	m := &DataManager{
		fetchers:         make(map[core.Market][]Fetcher),
		breakers:         make(map[string]*breaker.CircuitBreaker),
		failureThreshold: cfg.FailureThreshold,
		cooldown:         cfg.Cooldown,
		listCache:        newListCache(cfg.ListStore),
		log:              logger.WithComponent("DataManager"),
	}

	m.fetchers[core.MarketCN] = sortByPriority(cnFetchers)
	m.fetchers[core.MarketUS] = sortByPriority(usFetchers)

	for market, chain := range m.fetchers {
		for _, f := range chain {
			m.breakers[breakerKey(market, f.Name())] = breaker.New(m.failureThreshold, m.cooldown)
		}
	}

	return m, nil
}

// AddFetcher 向指定市场追加数据源并按优先级重排。
// 未指定市场时，加入所有该数据源自报服务的市场。
// 为每个新 (市场, 数据源) 对创建全新的熔断器。
func (m *DataManager) AddFetcher(f Fetcher, markets ...core.Market) {
	if len(markets) == 0 {
		for _, market := range []core.Market{core.MarketCN, core.MarketUS} {
			if f.IsAvailableFor(market) {
				markets = append(markets, market)
			}
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, market := range markets {
		m.fetchers[market] = sortByPriority(append(m.fetchers[market], f))
		m.breakers[breakerKey(market, f.Name())] = breaker.New(m.failureThreshold, m.cooldown)
	}
}

// GetDailyData 获取日线数据，返回数据和提供它的数据源名。
// 所有数据源都失败时返回 (nil, "")，不返回错误。
func (m *DataManager) GetDailyData(ctx context.Context, symbol string) ([]core.DailyBar, string) {
	market := core.ClassifyMarket(symbol)
	return executeWithFallback(m, market, "daily",
		func(f Fetcher) ([]core.DailyBar, error) {
			df, ok := f.(DailyFetcher)
			if !ok {
				// 不支持日线能力，按空结果计入该数据源的健康度
				return nil, nil
			}
			return df.FetchDaily(ctx, symbol)
		},
		func(bars []core.DailyBar) bool { return len(bars) == 0 },
	)
}

// GetFinancialData 获取财务指标字段，返回数据和提供它的数据源名。
func (m *DataManager) GetFinancialData(ctx context.Context, symbol string) (*core.FinancialReport, string) {
	market := core.ClassifyMarket(symbol)
	return executeWithFallback(m, market, "financial",
		func(f Fetcher) (*core.FinancialReport, error) {
			ff, ok := f.(FinancialFetcher)
			if !ok {
				return nil, nil
			}
			return ff.FetchFinancials(ctx, symbol)
		},
		func(r *core.FinancialReport) bool { return r == nil || len(r.Fields) == 0 },
	)
}

// GetStockDaily 获取日线数据并附带股票名称。
// 名称查询失败绝不阻塞数据返回，查不到时用代码本身充当显示名。
func (m *DataManager) GetStockDaily(ctx context.Context, symbol string) ([]core.DailyBar, string, string) {
	bars, source := m.GetDailyData(ctx, symbol)

	name := symbol
	if info := m.GetStockInfo(ctx, symbol); info != nil && info.Name != "" {
		name = info.Name
	}

	return bars, name, source
}

// GetStockInfo 查询股票的名称/行业等基础信息。
// 纯缓存查询（内存→持久化存储），从不触发数据源链和熔断器。
// 查不到返回 nil。
func (m *DataManager) GetStockInfo(ctx context.Context, symbol string) *core.StockInfo {
	market := core.ClassifyMarket(symbol)
	return m.listCache.lookup(ctx, market, symbol)
}

// GetList 获取指定市场的股票列表。
// refresh 为 false 且当日缓存有效时直接返回缓存；否则走数据源
// 回退链取列表，成功后同时写入内存和持久化存储。全部失败时清掉
// 过期的内存条目并返回空列表，从不返回错误。
func (m *DataManager) GetList(ctx context.Context, market core.Market, refresh bool) []core.StockInfo {
	if !refresh {
		if stocks, ok := m.listCache.load(ctx, market); ok {
			return stocks
		}
	}

	stocks, source := executeWithFallback(m, market, "list",
		func(f Fetcher) ([]core.StockInfo, error) {
			lf, ok := f.(ListFetcher)
			if !ok {
				return nil, nil
			}
			return lf.FetchList(ctx, market)
		},
		func(stocks []core.StockInfo) bool { return len(stocks) == 0 },
	)

	if source == "" {
		// 取数失败：清掉内存里可能残留的过期条目，下次调用重试
		// 而不是把昨天的列表当作今天的缓存命中
		m.listCache.clear(market)
		return []core.StockInfo{}
	}

	m.listCache.put(ctx, market, stocks)
	return stocks
}

// ResetCircuitBreaker 复位指定数据源在所有市场下的熔断器
func (m *DataManager) ResetCircuitBreaker(sourceName string) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	suffix := ":" + sourceName
	for key, b := range m.breakers {
		if strings.HasSuffix(key, suffix) {
			b.Reset()
		}
	}
}

// ResetAllCircuitBreakers 复位全部熔断器
func (m *DataManager) ResetAllCircuitBreakers() {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, b := range m.breakers {
		b.Reset()
	}
}

// CircuitBreakerStatus 返回全部熔断器的状态快照，键为 "市场:数据源"
func (m *DataManager) CircuitBreakerStatus() map[string]breaker.Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status := make(map[string]breaker.Status, len(m.breakers))
	for key, b := range m.breakers {
		status[key] = b.GetStatus()
	}
	return status
}

// Close 关闭所有实现了 Closable 的数据源
func (m *DataManager) Close() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	var errs []error
	for _, chain := range m.fetchers {
		for _, f := range chain {
			if seen[f.Name()] {
				continue
			}
			seen[f.Name()] = true
			if closable, ok := f.(Closable); ok {
				if err := closable.Close(); err != nil {
					errs = append(errs, fmt.Errorf("关闭数据源 '%s' 失败: %w", f.Name(), err))
				}
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("关闭数据源时发生错误: %v", errs)
	}
	return nil
}

// executeWithFallback 带熔断的顺序回退调度算法。
// 严格按优先级逐个尝试，绝不并行探测：既保证便宜的数据源不被又慢
// 又坏的高价数据源拖累，也不在一次请求里浪费多家配额。
//
// 三类失败全部在此吸收：熔断中跳过、调用出错、返回空结果。空结果
// 与报错对熔断器同等计失败，因为很多数据源对不存在的代码返回的是
// 结构正常的空载荷。本函数永不向外传播错误。
func executeWithFallback[T any](m *DataManager, market core.Market, op string,
	call func(Fetcher) (T, error), isEmpty func(T) bool) (T, string) {

	var zero T

	m.mu.RLock()
	chain := make([]Fetcher, len(m.fetchers[market]))
	copy(chain, m.fetchers[market])
	m.mu.RUnlock()

	var attempts []string
	for _, f := range chain {
		b := m.breakerFor(market, f.Name())

		if !b.IsAvailable() {
			attempts = append(attempts, fmt.Sprintf("%s(熔断中)", f.Name()))
			logger.WithSource(string(market), f.Name()).Debugf("数据源熔断中，跳过 [%s]", op)
			continue
		}

		result, err := call(f)
		if err != nil {
			b.RecordFailure()
			attempts = append(attempts, fmt.Sprintf("%s(错误: %v)", f.Name(), err))
			logger.WithSource(string(market), f.Name()).WithError(err).Warnf("数据源调用失败 [%s]", op)
			continue
		}

		if isEmpty(result) {
			b.RecordFailure()
			attempts = append(attempts, fmt.Sprintf("%s(空结果)", f.Name()))
			logger.WithSource(string(market), f.Name()).Debugf("数据源返回空结果 [%s]", op)
			continue
		}

		b.RecordSuccess()
		return result, f.Name()
	}

	if len(attempts) > 0 {
		m.log.Warnf("[%s] %s 市场所有数据源均失败: %s", op, market, strings.Join(attempts, ", "))
	}
	return zero, ""
}

// breakerFor 返回 (市场, 数据源) 对应的熔断器，不存在则惰性创建
func (m *DataManager) breakerFor(market core.Market, sourceName string) *breaker.CircuitBreaker {
	key := breakerKey(market, sourceName)

	m.mu.RLock()
	b, exists := m.breakers[key]
	m.mu.RUnlock()
	if exists {
		return b
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if b, exists = m.breakers[key]; exists {
		return b
	}
	b = breaker.New(m.failureThreshold, m.cooldown)
	m.breakers[key] = b
	return b
}

// breakerKey 构造熔断器映射键
func breakerKey(market core.Market, sourceName string) string {
	return string(market) + ":" + sourceName
}

// sortByPriority 按优先级升序稳定排序，返回新切片
func sortByPriority(fetchers []Fetcher) []Fetcher {
	sorted := make([]Fetcher, len(fetchers))
	copy(sorted, fetchers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})
	return sorted
}
