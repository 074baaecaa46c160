package yahoo

import (
	"encoding/json"
	"fmt"
	"time"

	"stockdata/pkg/core"
)

// chartResponse v8 chart 接口响应，OHLCV 按列对齐到 timestamp
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"chart"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// parseChart 解析 v8 chart 响应。
// 停牌日的 OHLCV 以 null 出现，直接跳过。
func parseChart(symbol string, body []byte) ([]core.DailyBar, error) {
	var resp chartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode chart response failed: %w", err)
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s (%s)", resp.Chart.Error.Description, resp.Chart.Error.Code)
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil
	}

	result := resp.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	bars := make([]core.DailyBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || i >= len(quote.Open) ||
			quote.Close[i] == nil || quote.Open[i] == nil {
			continue
		}
		bar := core.DailyBar{
			Symbol:    symbol,
			TradeDate: time.Unix(ts, 0).Local(),
			Open:      *quote.Open[i],
			Close:     *quote.Close[i],
		}
		if i < len(quote.High) && quote.High[i] != nil {
			bar.High = *quote.High[i]
		}
		if i < len(quote.Low) && quote.Low[i] != nil {
			bar.Low = *quote.Low[i]
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			bar.Volume = *quote.Volume[i]
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

// rawValue quoteSummary 里的数值字段形如 {"raw": 1.23, "fmt": "1.23"}
type rawValue struct {
	Raw *float64 `json:"raw"`
}

// summaryResponse v10 quoteSummary 接口响应
type summaryResponse struct {
	QuoteSummary struct {
		Result []map[string]map[string]json.RawMessage `json:"result"`
		Error  *apiError                               `json:"error"`
	} `json:"quoteSummary"`
}

// parseQuoteSummary 解析 quoteSummary 响应。
// 把请求的各 module 里所有带 raw 数值的字段拍平进 Fields。
func parseQuoteSummary(symbol string, body []byte) (*core.FinancialReport, error) {
	var resp summaryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode summary response failed: %w", err)
	}
	if resp.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s (%s)",
			resp.QuoteSummary.Error.Description, resp.QuoteSummary.Error.Code)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, nil
	}

	report := &core.FinancialReport{
		Symbol: symbol,
		Market: core.MarketUS,
		Fields: make(map[string]float64),
	}

	for _, module := range resp.QuoteSummary.Result[0] {
		for key, raw := range module {
			var v rawValue
			if err := json.Unmarshal(raw, &v); err != nil || v.Raw == nil {
				continue
			}
			report.Fields[key] = *v.Raw
		}
	}

	if len(report.Fields) == 0 {
		return nil, nil
	}
	return report, nil
}
