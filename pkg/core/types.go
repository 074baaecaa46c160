package core

import (
	"time"
)

// Market 市场枚举
type Market string

const (
	// MarketCN A股市场
	MarketCN Market = "CN"
	// MarketUS 美股市场
	MarketUS Market = "US"
)

// ClassifyMarket 根据股票代码推断所属市场。
// 代码中包含任意ASCII字母视为美股（如 "NVDA"、"600519A"），
// 否则视为A股（如 "600519"、"000001"）。纯分类函数，无状态。
func ClassifyMarket(symbol string) Market {
	for i := 0; i < len(symbol); i++ {
		c := symbol[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			return MarketUS
		}
	}
	return MarketCN
}

// DateKey 返回给定时间在本地时区下的日期键 (YYYY-MM-DD)。
// 列表缓存按该键分桶，跨日自动失效。
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// DailyBar 日线数据点
type DailyBar struct {
	Symbol    string    `json:"symbol"`     // 股票代码
	TradeDate time.Time `json:"trade_date"` // 交易日
	Open      float64   `json:"open"`       // 开盘价
	High      float64   `json:"high"`       // 最高价
	Low       float64   `json:"low"`        // 最低价
	Close     float64   `json:"close"`      // 收盘价
	Volume    int64     `json:"volume"`     // 成交量
	Turnover  float64   `json:"turnover"`   // 成交额
}

// FinancialReport 财务数据
// Fields 按字段名存放各财务指标，不同提供商返回的字段集合可能不同，
// 调用方按需取用，缺失字段不视为错误。
type FinancialReport struct {
	Symbol    string             `json:"symbol"`     // 股票代码
	Market    Market             `json:"market"`     // 所属市场
	ReportEnd string             `json:"report_end"` // 报告期 (YYYY-MM-DD)，可能为空
	Fields    map[string]float64 `json:"fields"`     // 财务指标字段
}

// StockInfo 股票基础信息（列表条目）
type StockInfo struct {
	TSCode   string `json:"ts_code"`   // 带后缀的完整代码，如 "600519.SH"
	Symbol   string `json:"symbol"`    // 股票代码
	Name     string `json:"name"`      // 股票名称
	Area     string `json:"area"`      // 地域
	Industry string `json:"industry"`  // 所属行业
	Market   string `json:"market"`    // 板块描述，如 "主板"
	ListDate string `json:"list_date"` // 上市日期 (YYYYMMDD)
}
