package tencent

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"stockdata/pkg/core"
)

func TestParseKLineResponse(t *testing.T) {
	body := []byte(`{
		"code": 0,
		"msg": "",
		"data": {
			"sh600519": {
				"qfqday": [
					["2025-06-02", "1500.00", "1521.00", "1530.00", "1495.00", "31000.00"],
					["2025-06-03", "1520.00", "1540.20", "1545.50", "1511.00", "28000.00"]
				]
			}
		}
	}`)

	bars, err := parseKLineResponse("600519", "sh600519", body)
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.Equal(t, "600519", bars[0].Symbol)
	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.Local), bars[0].TradeDate)
	assert.Equal(t, 1500.0, bars[0].Open)
	assert.Equal(t, 1521.0, bars[0].Close)
	assert.Equal(t, 1530.0, bars[0].High)
	assert.Equal(t, 1495.0, bars[0].Low)
	assert.Equal(t, int64(3100000), bars[0].Volume) // 手 -> 股
}

func TestParseKLineResponse_未复权回退(t *testing.T) {
	body := []byte(`{
		"code": 0,
		"data": {
			"sz000001": {
				"day": [["2025-06-03", "11.50", "11.62", "11.70", "11.45", "900000.00"]]
			}
		}
	}`)

	bars, err := parseKLineResponse("000001", "sz000001", body)
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 11.62, bars[0].Close)
}

func TestParseKLineResponse_代码缺失(t *testing.T) {
	body := []byte(`{"code": 0, "data": {}}`)

	bars, err := parseKLineResponse("600519", "sh600519", body)
	require.NoError(t, err)
	assert.Empty(t, bars)
}

func TestParseKLineResponse_接口报错(t *testing.T) {
	body := []byte(`{"code": -1, "msg": "param error", "data": {}}`)

	_, err := parseKLineResponse("600519", "sh600519", body)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "param error")
}

func TestGbkToUtf8(t *testing.T) {
	// 构造一段真实的GBK字节
	encoder := simplifiedchinese.GBK.NewEncoder()
	gbkBytes, err := io.ReadAll(transform.NewReader(bytes.NewReader([]byte("贵州茅台")), encoder))
	require.NoError(t, err)

	assert.Equal(t, []byte("贵州茅台"), gbkToUtf8(gbkBytes))

	// 合法 UTF-8 原样返回
	assert.Equal(t, []byte("平安银行"), gbkToUtf8([]byte("平安银行")))
	assert.Empty(t, gbkToUtf8(nil))
}

func TestMarketPrefix(t *testing.T) {
	cases := map[string]string{
		"600519": "sh",
		"000001": "sz",
		"300750": "sz",
		"830799": "bj",
	}
	for symbol, want := range cases {
		assert.Equal(t, want, marketPrefix(symbol), "symbol=%s", symbol)
	}
}

func TestProvider_基本属性(t *testing.T) {
	p := NewProvider(2, 0)
	defer p.Close()

	assert.Equal(t, "tencent", p.Name())
	assert.Equal(t, 2, p.Priority())
	assert.True(t, p.IsAvailableFor(core.MarketCN))
	assert.False(t, p.IsAvailableFor(core.MarketUS))
}
