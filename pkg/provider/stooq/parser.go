package stooq

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"stockdata/pkg/core"
)

// parseDailyCSV 解析 stooq 的日线CSV。
// 格式: Date,Open,High,Low,Close,Volume，按日期升序。
// 代码不存在时 stooq 返回 "No data" 纯文本，按无数据处理。
func parseDailyCSV(symbol, raw string) ([]core.DailyBar, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "No data") {
		return nil, nil
	}

	reader := csv.NewReader(strings.NewReader(raw))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header failed: %w", err)
	}
	if len(header) < 6 || !strings.EqualFold(header[0], "Date") {
		return nil, fmt.Errorf("unexpected csv header: %v", header)
	}

	var bars []core.DailyBar
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv record failed: %w", err)
		}
		if len(record) < 6 {
			continue
		}

		tradeDate, err := time.ParseInLocation("2006-01-02", record[0], time.Local)
		if err != nil {
			continue
		}
		bars = append(bars, core.DailyBar{
			Symbol:    symbol,
			TradeDate: tradeDate,
			Open:      parseFloat(record[1]),
			High:      parseFloat(record[2]),
			Low:       parseFloat(record[3]),
			Close:     parseFloat(record[4]),
			Volume:    parseVolume(record[5]),
		})
	}
	return bars, nil
}

// parseFloat 安全解析浮点数
func parseFloat(s string) float64 {
	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return val
}

// parseVolume 成交量偶尔带小数，截断处理
func parseVolume(s string) int64 {
	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int64(val)
}
