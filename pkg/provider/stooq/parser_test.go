package stooq

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockdata/pkg/core"
)

func TestParseDailyCSV(t *testing.T) {
	raw := `Date,Open,High,Low,Close,Volume
2025-06-02,135.5,138.1,134.8,137.0,210000000
2025-06-03,137.2,139.9,136.5,139.3,195000000`

	bars, err := parseDailyCSV("NVDA", raw)
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.Equal(t, "NVDA", bars[0].Symbol)
	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.Local), bars[0].TradeDate)
	assert.Equal(t, 135.5, bars[0].Open)
	assert.Equal(t, 137.0, bars[0].Close)
	assert.Equal(t, int64(210000000), bars[0].Volume)
	assert.Equal(t, 139.3, bars[1].Close)
}

func TestParseDailyCSV_无数据响应(t *testing.T) {
	for _, raw := range []string{"No data", ""} {
		bars, err := parseDailyCSV("BADSYM", raw)
		require.NoError(t, err, "raw=%q", raw)
		assert.Empty(t, bars, "raw=%q", raw)
	}
}

func TestParseDailyCSV_非法表头(t *testing.T) {
	_, err := parseDailyCSV("NVDA", "foo,bar\n1,2")
	assert.Error(t, err)
}

func TestParseDailyCSV_坏日期跳过(t *testing.T) {
	raw := `Date,Open,High,Low,Close,Volume
bad-date,1,2,3,4,5
2025-06-03,137.2,139.9,136.5,139.3,195000000`

	bars, err := parseDailyCSV("NVDA", raw)
	require.NoError(t, err)
	assert.Len(t, bars, 1)
}

func TestProvider_基本属性(t *testing.T) {
	p := NewProvider(1, 0)
	defer p.Close()

	assert.Equal(t, "stooq", p.Name())
	assert.Equal(t, 1, p.Priority())
	assert.True(t, p.IsAvailableFor(core.MarketUS))
	assert.False(t, p.IsAvailableFor(core.MarketCN))
}
