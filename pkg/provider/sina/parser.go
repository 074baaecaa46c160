package sina

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"stockdata/pkg/core"
)

// klineItem 新浪日K线接口的单根K线，数值字段是字符串
type klineItem struct {
	Day    string `json:"day"`
	Open   string `json:"open"`
	High   string `json:"high"`
	Low    string `json:"low"`
	Close  string `json:"close"`
	Volume string `json:"volume"`
}

// parseKLineData 解析新浪日K线响应。
// 响应是 jsonp 包装的 JSON 数组，先剥掉 "var=(...)" 外壳再解码。
func parseKLineData(symbol, raw string) ([]core.DailyBar, error) {
	payload := stripJSONP(raw)
	if payload == "" || payload == "null" {
		return nil, nil
	}

	var items []klineItem
	if err := json.Unmarshal([]byte(payload), &items); err != nil {
		return nil, fmt.Errorf("decode kline response failed: %w", err)
	}

	bars := make([]core.DailyBar, 0, len(items))
	for _, item := range items {
		tradeDate, err := time.ParseInLocation("2006-01-02", item.Day, time.Local)
		if err != nil {
			continue
		}
		bars = append(bars, core.DailyBar{
			Symbol:    symbol,
			TradeDate: tradeDate,
			Open:      parseFloat(item.Open),
			High:      parseFloat(item.High),
			Low:       parseFloat(item.Low),
			Close:     parseFloat(item.Close),
			Volume:    parseInt(item.Volume),
		})
	}
	return bars, nil
}

// stripJSONP 剥掉 jsonp 回调外壳，取最外层括号内的内容
func stripJSONP(raw string) string {
	raw = strings.TrimSpace(raw)
	start := strings.Index(raw, "(")
	end := strings.LastIndex(raw, ")")
	if start >= 0 && end > start {
		return strings.TrimSpace(raw[start+1 : end])
	}
	return raw
}

// parseFloat 安全解析浮点数
func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return val
}

// parseInt 安全解析整数
func parseInt(s string) int64 {
	if s == "" {
		return 0
	}
	val, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return val
}
