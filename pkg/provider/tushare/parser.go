package tushare

import (
	"sort"
	"strconv"
	"time"

	"stockdata/pkg/core"
)

// row 把列式响应的一行转成 字段名→值 的映射
type row map[string]interface{}

func (r row) str(key string) string {
	if v, ok := r[key].(string); ok {
		return v
	}
	return ""
}

func (r row) float(key string) float64 {
	switch v := r[key].(type) {
	case float64:
		return v
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// rows 将 fields+items 的列式数据转为行映射列表
func rows(resp *apiResponse) []row {
	result := make([]row, 0, len(resp.Data.Items))
	for _, item := range resp.Data.Items {
		if len(item) != len(resp.Data.Fields) {
			continue
		}
		r := make(row, len(item))
		for i, field := range resp.Data.Fields {
			r[field] = item[i]
		}
		result = append(result, r)
	}
	return result
}

// parseDaily 解析 daily 接口响应。
// tushare 返回按交易日倒序，这里翻转为升序；vol 单位是手，amount 单位是千元。
func parseDaily(symbol string, resp *apiResponse) ([]core.DailyBar, error) {
	var bars []core.DailyBar
	for _, r := range rows(resp) {
		tradeDate, err := time.ParseInLocation("20060102", r.str("trade_date"), time.Local)
		if err != nil {
			continue
		}
		bars = append(bars, core.DailyBar{
			Symbol:    symbol,
			TradeDate: tradeDate,
			Open:      r.float("open"),
			High:      r.float("high"),
			Low:       r.float("low"),
			Close:     r.float("close"),
			Volume:    int64(r.float("vol")) * 100,
			Turnover:  r.float("amount") * 1000,
		})
	}

	sort.Slice(bars, func(i, j int) bool {
		return bars[i].TradeDate.Before(bars[j].TradeDate)
	})
	return bars, nil
}

// parseFinancials 解析 fina_indicator 响应，取最新一期报告。
// 除标识列外的全部数值列都进 Fields，调用方按需取用。
func parseFinancials(symbol string, resp *apiResponse) (*core.FinancialReport, error) {
	allRows := rows(resp)
	if len(allRows) == 0 {
		return nil, nil
	}

	// 按报告期倒序取最新一期
	sort.Slice(allRows, func(i, j int) bool {
		return allRows[i].str("end_date") > allRows[j].str("end_date")
	})
	latest := allRows[0]

	report := &core.FinancialReport{
		Symbol: symbol,
		Market: core.MarketCN,
		Fields: make(map[string]float64),
	}
	if end, err := time.ParseInLocation("20060102", latest.str("end_date"), time.Local); err == nil {
		report.ReportEnd = core.DateKey(end)
	}

	for key, value := range latest {
		switch key {
		case "ts_code", "ann_date", "end_date", "update_flag":
			continue
		}
		if f, ok := value.(float64); ok {
			report.Fields[key] = f
		}
	}
	return report, nil
}

// parseStockList 解析 stock_basic 响应
func parseStockList(resp *apiResponse) ([]core.StockInfo, error) {
	var stocks []core.StockInfo
	for _, r := range rows(resp) {
		stocks = append(stocks, core.StockInfo{
			TSCode:   r.str("ts_code"),
			Symbol:   r.str("symbol"),
			Name:     r.str("name"),
			Area:     r.str("area"),
			Industry: r.str("industry"),
			Market:   r.str("market"),
			ListDate: r.str("list_date"),
		})
	}
	return stocks, nil
}
