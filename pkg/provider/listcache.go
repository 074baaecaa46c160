package provider

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"stockdata/pkg/cache"
	"stockdata/pkg/core"
	"stockdata/pkg/logger"
)

// listEntry 进程内列表缓存条目
type listEntry struct {
	stocks  []core.StockInfo
	dateKey string
}

// valid 条目有效当且仅当日期键是今天且列表非空。
// 空列表永远不算有效命中：瞬时的空响应不应该把缓存冻结一整天。
func (e listEntry) valid(today string) bool {
	return e.dateKey == today && len(e.stocks) > 0
}

// listCache 按日分桶的股票列表缓存
// 内存条目随日期翻转隐式失效；持久化存储（可选）是唯一的跨进程
// 状态，同样按日期键读写。
type listCache struct {
	mu      sync.RWMutex
	entries map[core.Market]listEntry

	store cache.ListStore
	now   func() time.Time
	log   *logrus.Entry
}

// newListCache 创建列表缓存，store 可为 nil
func newListCache(store cache.ListStore) *listCache {
	return &listCache{
		entries: make(map[core.Market]listEntry),
		store:   store,
		now:     time.Now,
		log:     logger.WithComponent("ListCache"),
	}
}

// load 查缓存：先查内存，再查持久化存储。
// 命中持久化存储时回填内存。返回 (列表, 是否命中)。
func (c *listCache) load(ctx context.Context, market core.Market) ([]core.StockInfo, bool) {
	today := core.DateKey(c.now())

	c.mu.RLock()
	entry, exists := c.entries[market]
	c.mu.RUnlock()
	if exists && entry.valid(today) {
		return entry.stocks, true
	}

	if c.store == nil {
		return nil, false
	}

	stocks, err := c.store.LoadList(ctx, market, today)
	if err != nil {
		c.log.WithError(err).Warnf("读取 %s 市场列表持久化存储失败", market)
		return nil, false
	}
	if len(stocks) == 0 {
		return nil, false
	}

	c.mu.Lock()
	c.entries[market] = listEntry{stocks: stocks, dateKey: today}
	c.mu.Unlock()
	return stocks, true
}

// put 写入当日列表。空列表直接丢弃，不产生有效缓存条目。
// 持久化写入失败只记日志，不影响内存缓存生效。
func (c *listCache) put(ctx context.Context, market core.Market, stocks []core.StockInfo) {
	if len(stocks) == 0 {
		return
	}

	today := core.DateKey(c.now())

	c.mu.Lock()
	c.entries[market] = listEntry{stocks: stocks, dateKey: today}
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.SaveList(ctx, market, stocks, today); err != nil {
			c.log.WithError(err).Warnf("持久化 %s 市场列表失败", market)
		}
	}
}

// clear 删除指定市场的内存条目，下次调用强制重新取数
func (c *listCache) clear(market core.Market) {
	c.mu.Lock()
	delete(c.entries, market)
	c.mu.Unlock()
}

// lookup 在当日列表中按代码查找股票信息。
// 只查缓存（内存→持久化），查不到返回 nil，从不触发数据源取数。
func (c *listCache) lookup(ctx context.Context, market core.Market, symbol string) *core.StockInfo {
	stocks, ok := c.load(ctx, market)
	if !ok {
		return nil
	}

	for i := range stocks {
		if stocks[i].Symbol == symbol || stocks[i].TSCode == symbol {
			return &stocks[i]
		}
	}
	return nil
}
