package sina

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockdata/pkg/core"
)

func TestParseKLineData(t *testing.T) {
	raw := `var=([
		{"day":"2025-06-02","open":"1500.000","high":"1530.000","low":"1495.000","close":"1521.000","volume":"3100000"},
		{"day":"2025-06-03","open":"1520.000","high":"1545.500","low":"1511.000","close":"1540.200","volume":"2800000"}
	])`

	bars, err := parseKLineData("600519", raw)
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.Equal(t, "600519", bars[0].Symbol)
	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.Local), bars[0].TradeDate)
	assert.Equal(t, 1500.0, bars[0].Open)
	assert.Equal(t, 1521.0, bars[0].Close)
	assert.Equal(t, int64(3100000), bars[0].Volume)
	assert.Equal(t, 1540.2, bars[1].Close)
}

func TestParseKLineData_空响应(t *testing.T) {
	for _, raw := range []string{"var=(null)", "var=()", ""} {
		bars, err := parseKLineData("600519", raw)
		require.NoError(t, err, "raw=%q", raw)
		assert.Empty(t, bars, "raw=%q", raw)
	}
}

func TestParseKLineData_坏日期跳过(t *testing.T) {
	raw := `var=([
		{"day":"bad-date","open":"1","high":"2","low":"3","close":"4","volume":"5"},
		{"day":"2025-06-03","open":"1520.0","high":"1545.5","low":"1511.0","close":"1540.2","volume":"2800000"}
	])`

	bars, err := parseKLineData("600519", raw)
	require.NoError(t, err)
	assert.Len(t, bars, 1)
}

func TestParseKLineData_非法JSON(t *testing.T) {
	_, err := parseKLineData("600519", `var=({not json})`)
	assert.Error(t, err)
}

func TestMarketPrefix(t *testing.T) {
	cases := map[string]string{
		"600519": "sh",
		"900901": "sh",
		"000001": "sz",
		"300750": "sz",
		"830799": "bj",
		"430047": "bj",
	}
	for symbol, want := range cases {
		assert.Equal(t, want, marketPrefix(symbol), "symbol=%s", symbol)
	}
}

func TestProvider_基本属性(t *testing.T) {
	p := NewProvider(1, 0)
	defer p.Close()

	assert.Equal(t, "sina", p.Name())
	assert.Equal(t, 1, p.Priority())
	assert.True(t, p.IsAvailableFor(core.MarketCN))
	assert.False(t, p.IsAvailableFor(core.MarketUS))
}
