package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockdata/pkg/core"
)

func TestDiskListStore_读写往返(t *testing.T) {
	store, err := NewDiskListStore(DiskListStoreConfig{BaseDir: t.TempDir()})
	require.NoError(t, err)

	stocks := []core.StockInfo{
		{TSCode: "600519.SH", Symbol: "600519", Name: "贵州茅台", Industry: "白酒"},
		{TSCode: "000001.SZ", Symbol: "000001", Name: "平安银行", Industry: "银行"},
	}

	ctx := context.Background()
	require.NoError(t, store.SaveList(ctx, core.MarketCN, stocks, "2025-06-02"))

	loaded, err := store.LoadList(ctx, core.MarketCN, "2025-06-02")
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "贵州茅台", loaded[0].Name)
	assert.Equal(t, "000001", loaded[1].Symbol)
}

func TestDiskListStore_缺失条目返回nil(t *testing.T) {
	store, err := NewDiskListStore(DiskListStoreConfig{BaseDir: t.TempDir()})
	require.NoError(t, err)

	loaded, err := store.LoadList(context.Background(), core.MarketUS, "2025-06-02")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestDiskListStore_按市场和日期隔离(t *testing.T) {
	store, err := NewDiskListStore(DiskListStoreConfig{BaseDir: t.TempDir()})
	require.NoError(t, err)

	ctx := context.Background()
	cn := []core.StockInfo{{Symbol: "600519", Name: "贵州茅台"}}
	us := []core.StockInfo{{Symbol: "NVDA", Name: "NVIDIA"}}

	require.NoError(t, store.SaveList(ctx, core.MarketCN, cn, "2025-06-02"))
	require.NoError(t, store.SaveList(ctx, core.MarketUS, us, "2025-06-02"))

	loaded, err := store.LoadList(ctx, core.MarketCN, "2025-06-02")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "600519", loaded[0].Symbol)

	// 不同日期键互不可见
	loaded, err = store.LoadList(ctx, core.MarketCN, "2025-06-03")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestDiskListStore_覆盖写入(t *testing.T) {
	store, err := NewDiskListStore(DiskListStoreConfig{BaseDir: t.TempDir()})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.SaveList(ctx, core.MarketCN, []core.StockInfo{{Symbol: "600519"}}, "2025-06-02"))
	require.NoError(t, store.SaveList(ctx, core.MarketCN, []core.StockInfo{{Symbol: "600519"}, {Symbol: "000001"}}, "2025-06-02"))

	loaded, err := store.LoadList(ctx, core.MarketCN, "2025-06-02")
	require.NoError(t, err)
	assert.Len(t, loaded, 2)
}

func TestDiskListStore_清理历史文件(t *testing.T) {
	store, err := NewDiskListStore(DiskListStoreConfig{BaseDir: t.TempDir(), KeepDays: 2})
	require.NoError(t, err)

	ctx := context.Background()
	stocks := []core.StockInfo{{Symbol: "600519"}}
	require.NoError(t, store.SaveList(ctx, core.MarketCN, stocks, "2025-06-02"))
	require.NoError(t, store.SaveList(ctx, core.MarketCN, stocks, "2025-06-03"))
	require.NoError(t, store.SaveList(ctx, core.MarketCN, stocks, "2025-06-04"))

	// 最旧的一份被清理
	loaded, err := store.LoadList(ctx, core.MarketCN, "2025-06-02")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	loaded, err = store.LoadList(ctx, core.MarketCN, "2025-06-04")
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}
