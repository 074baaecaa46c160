package tushare

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"stockdata/pkg/core"
	"stockdata/pkg/logger"
	"stockdata/pkg/provider"
)

// Provider tushare pro 数据提供商，仅服务 CN 市场。
// 所有接口走同一个 JSON POST 端点，api_name 区分具体数据集。
type Provider struct {
	httpClient *http.Client
	token      string
	priority   int
	baseURL    string
	log        *logrus.Entry
}

// NewProvider 创建 tushare 数据提供商
func NewProvider(token string, priority int, timeout time.Duration) *Provider {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Provider{
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     30 * time.Second,
			},
			Timeout: timeout,
		},
		token:    token,
		priority: priority,
		baseURL:  "http://api.tushare.pro",
		log:      logger.WithComponent("TushareProvider"),
	}
}

// Name 返回提供商名称
func (p *Provider) Name() string {
	return "tushare"
}

// Priority 返回回退链中的优先级
func (p *Provider) Priority() int {
	return p.priority
}

// IsAvailableFor 仅服务 CN 市场
func (p *Provider) IsAvailableFor(market core.Market) bool {
	return market == core.MarketCN
}

// SetTimeout 设置请求超时时间
func (p *Provider) SetTimeout(timeout time.Duration) {
	p.httpClient.Timeout = timeout
}

// Close 关闭提供商，清理资源
func (p *Provider) Close() error {
	if p.httpClient != nil {
		p.httpClient.CloseIdleConnections()
	}
	return nil
}

// FetchDaily 获取日线数据 (api_name: daily)
func (p *Provider) FetchDaily(ctx context.Context, symbol string) ([]core.DailyBar, error) {
	tsCode := toTSCode(symbol)
	resp, err := p.callAPI(ctx, "daily", map[string]string{"ts_code": tsCode},
		"ts_code,trade_date,open,high,low,close,vol,amount")
	if err != nil {
		return nil, err
	}
	return parseDaily(symbol, resp)
}

// FetchFinancials 获取最新一期财务指标 (api_name: fina_indicator)
func (p *Provider) FetchFinancials(ctx context.Context, symbol string) (*core.FinancialReport, error) {
	tsCode := toTSCode(symbol)
	resp, err := p.callAPI(ctx, "fina_indicator", map[string]string{"ts_code": tsCode}, "")
	if err != nil {
		return nil, err
	}
	return parseFinancials(symbol, resp)
}

// FetchList 获取上市股票列表 (api_name: stock_basic)
func (p *Provider) FetchList(ctx context.Context, market core.Market) ([]core.StockInfo, error) {
	if market != core.MarketCN {
		return nil, fmt.Errorf("%w: tushare 不支持 %s 市场", core.ErrMarketNotSupported, market)
	}
	resp, err := p.callAPI(ctx, "stock_basic", map[string]string{"list_status": "L"},
		"ts_code,symbol,name,area,industry,market,list_date")
	if err != nil {
		return nil, err
	}
	return parseStockList(resp)
}

// apiRequest tushare pro 请求体
type apiRequest struct {
	APIName string            `json:"api_name"`
	Token   string            `json:"token"`
	Params  map[string]string `json:"params"`
	Fields  string            `json:"fields"`
}

// apiResponse tushare pro 响应体，data 为列式布局
type apiResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		Fields []string        `json:"fields"`
		Items  [][]interface{} `json:"items"`
	} `json:"data"`
}

// callAPI 调用 tushare pro 接口并解码响应
func (p *Provider) callAPI(ctx context.Context, apiName string, params map[string]string, fields string) (*apiResponse, error) {
	payload, err := json.Marshal(apiRequest{
		APIName: apiName,
		Token:   p.token,
		Params:  params,
		Fields:  fields,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP status error: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response failed: %w", err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("decode response failed: %w", err)
	}
	if apiResp.Code != 0 {
		return nil, fmt.Errorf("tushare api error [%s]: code=%d msg=%s", apiName, apiResp.Code, apiResp.Msg)
	}
	return &apiResp, nil
}

// toTSCode 将6位代码转换为 tushare 的 ts_code 形式, e.g. 600519 -> 600519.SH
func toTSCode(symbol string) string {
	if strings.Contains(symbol, ".") {
		return symbol
	}
	switch {
	case strings.HasPrefix(symbol, "6"), strings.HasPrefix(symbol, "9"):
		return symbol + ".SH"
	case strings.HasPrefix(symbol, "8"), strings.HasPrefix(symbol, "4"):
		return symbol + ".BJ"
	default:
		return symbol + ".SZ"
	}
}

// 确保 Provider 实现了所需的接口
var _ provider.Fetcher = (*Provider)(nil)
var _ provider.DailyFetcher = (*Provider)(nil)
var _ provider.FinancialFetcher = (*Provider)(nil)
var _ provider.ListFetcher = (*Provider)(nil)
var _ provider.Closable = (*Provider)(nil)
