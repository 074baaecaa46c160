package tencent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"stockdata/pkg/core"
)

// gbkToUtf8 将GBK编码转换为UTF-8。
// 响应已是合法 UTF-8 时原样返回，避免二次解码破坏内容。
func gbkToUtf8(data []byte) []byte {
	if len(data) == 0 || utf8.Valid(data) {
		return data
	}
	reader := transform.NewReader(bytes.NewReader(data), simplifiedchinese.GBK.NewDecoder())
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return data
	}
	return decoded
}

// klineResponse 腾讯K线接口响应，data 以带市场前缀的代码为键
type klineResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data map[string]struct {
		QfqDay [][]interface{} `json:"qfqday"`
		Day    [][]interface{} `json:"day"`
	} `json:"data"`
}

// parseKLineResponse 解析腾讯日K线响应。
// 每根K线是数组 [日期, 开盘, 收盘, 最高, 最低, 成交量(手), ...]，
// 优先取前复权序列，没有时退回未复权序列。
func parseKLineResponse(symbol, code string, body []byte) ([]core.DailyBar, error) {
	var resp klineResponse
	if err := json.Unmarshal(gbkToUtf8(body), &resp); err != nil {
		return nil, fmt.Errorf("decode kline response failed: %w", err)
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("tencent api error: code=%d msg=%s", resp.Code, resp.Msg)
	}

	entry, ok := resp.Data[code]
	if !ok {
		return nil, nil
	}
	items := entry.QfqDay
	if len(items) == 0 {
		items = entry.Day
	}

	bars := make([]core.DailyBar, 0, len(items))
	for _, item := range items {
		if len(item) < 6 {
			continue
		}
		tradeDate, err := time.ParseInLocation("2006-01-02", asString(item[0]), time.Local)
		if err != nil {
			continue
		}
		bars = append(bars, core.DailyBar{
			Symbol:    symbol,
			TradeDate: tradeDate,
			Open:      asFloat(item[1]),
			Close:     asFloat(item[2]),
			High:      asFloat(item[3]),
			Low:       asFloat(item[4]),
			Volume:    int64(asFloat(item[5])) * 100, // 手 -> 股
		})
	}
	return bars, nil
}

// asString 容忍 string 之外的 JSON 标量
func asString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return ""
	}
}

// asFloat 容忍数值以字符串形式出现
func asFloat(v interface{}) float64 {
	switch f := v.(type) {
	case float64:
		return f
	case string:
		val, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return 0
		}
		return val
	default:
		return 0
	}
}
