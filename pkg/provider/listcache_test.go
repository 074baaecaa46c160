package provider

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockdata/pkg/core"
)

func TestListEntry_有效性判定(t *testing.T) {
	stocks := []core.StockInfo{{Symbol: "600519"}}

	cases := []struct {
		name  string
		entry listEntry
		want  bool
	}{
		{"当日非空", listEntry{stocks: stocks, dateKey: "2025-06-02"}, true},
		{"日期过期", listEntry{stocks: stocks, dateKey: "2025-06-01"}, false},
		{"当日但为空", listEntry{stocks: nil, dateKey: "2025-06-02"}, false},
		{"零值条目", listEntry{}, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.entry.valid("2025-06-02"))
		})
	}
}

func TestListCache_跨日自动失效(t *testing.T) {
	c := newListCache(nil)

	day1 := time.Date(2025, 6, 2, 10, 0, 0, 0, time.Local)
	c.now = func() time.Time { return day1 }

	ctx := context.Background()
	c.put(ctx, core.MarketCN, []core.StockInfo{{Symbol: "600519", Name: "贵州茅台"}})

	stocks, ok := c.load(ctx, core.MarketCN)
	require.True(t, ok)
	assert.Len(t, stocks, 1)

	// 日期翻转后条目隐式失效
	c.now = func() time.Time { return day1.AddDate(0, 0, 1) }
	_, ok = c.load(ctx, core.MarketCN)
	assert.False(t, ok)
}

func TestListCache_空列表不写入(t *testing.T) {
	c := newListCache(nil)

	ctx := context.Background()
	c.put(ctx, core.MarketCN, nil)
	c.put(ctx, core.MarketCN, []core.StockInfo{})

	_, ok := c.load(ctx, core.MarketCN)
	assert.False(t, ok)
}

func TestListCache_clear强制失效(t *testing.T) {
	c := newListCache(nil)

	ctx := context.Background()
	c.put(ctx, core.MarketCN, []core.StockInfo{{Symbol: "600519"}})

	_, ok := c.load(ctx, core.MarketCN)
	require.True(t, ok)

	c.clear(core.MarketCN)
	_, ok = c.load(ctx, core.MarketCN)
	assert.False(t, ok)
}

func TestListCache_持久化回填内存(t *testing.T) {
	store := newMemListStore()
	c := newListCache(store)

	ctx := context.Background()
	today := core.DateKey(time.Now())
	require.NoError(t, store.SaveList(ctx, core.MarketUS,
		[]core.StockInfo{{Symbol: "NVDA", Name: "NVIDIA"}}, today))

	stocks, ok := c.load(ctx, core.MarketUS)
	require.True(t, ok)
	assert.Equal(t, "NVDA", stocks[0].Symbol)

	// 回填后内存直接命中
	c.store = nil
	stocks, ok = c.load(ctx, core.MarketUS)
	require.True(t, ok)
	assert.Len(t, stocks, 1)
}

func TestListCache_lookup支持两种代码形式(t *testing.T) {
	c := newListCache(nil)

	ctx := context.Background()
	c.put(ctx, core.MarketCN, []core.StockInfo{
		{TSCode: "600519.SH", Symbol: "600519", Name: "贵州茅台"},
		{TSCode: "000001.SZ", Symbol: "000001", Name: "平安银行"},
	})

	info := c.lookup(ctx, core.MarketCN, "600519")
	require.NotNil(t, info)
	assert.Equal(t, "贵州茅台", info.Name)

	info = c.lookup(ctx, core.MarketCN, "000001.SZ")
	require.NotNil(t, info)
	assert.Equal(t, "平安银行", info.Name)

	assert.Nil(t, c.lookup(ctx, core.MarketCN, "300750"))
}
