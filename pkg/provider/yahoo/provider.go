package yahoo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"stockdata/pkg/core"
	"stockdata/pkg/logger"
	"stockdata/pkg/provider"
)

// Provider Yahoo Finance 数据提供商，仅服务 US 市场
type Provider struct {
	httpClient *http.Client
	userAgent  string
	priority   int
	chartURL   string
	summaryURL string
	log        *logrus.Entry
}

// NewProvider 创建 Yahoo 数据提供商
func NewProvider(priority int, timeout time.Duration) *Provider {
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
		userAgent:  "StockData/1.0",
		priority:   priority,
		chartURL:   "https://query1.finance.yahoo.com/v8/finance/chart/",
		summaryURL: "https://query1.finance.yahoo.com/v10/finance/quoteSummary/",
		log:        logger.WithComponent("YahooProvider"),
	}
}

// Name 返回提供商名称
func (p *Provider) Name() string {
	return "yahoo"
}

// Priority 返回回退链中的优先级
func (p *Provider) Priority() int {
	return p.priority
}

// IsAvailableFor 仅服务 US 市场
func (p *Provider) IsAvailableFor(market core.Market) bool {
	return market == core.MarketUS
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

// FetchDaily 获取日线数据 (v8 chart 接口)
func (p *Provider) FetchDaily(ctx context.Context, symbol string) ([]core.DailyBar, error) {
	query := url.Values{}
	query.Set("range", "1y")
	query.Set("interval", "1d")
	query.Set("events", "history")

	body, err := p.doRequest(ctx, p.chartURL+url.PathEscape(symbol)+"?"+query.Encode())
	if err != nil {
		return nil, err
	}
	return parseChart(symbol, body)
}

// FetchFinancials 获取财务指标 (v10 quoteSummary 接口)
func (p *Provider) FetchFinancials(ctx context.Context, symbol string) (*core.FinancialReport, error) {
	query := url.Values{}
	query.Set("modules", "financialData,defaultKeyStatistics")

	body, err := p.doRequest(ctx, p.summaryURL+url.PathEscape(symbol)+"?"+query.Encode())
	if err != nil {
		return nil, err
	}
	return parseQuoteSummary(symbol, body)
}

// doRequest 执行HTTP请求并返回响应体
func (p *Provider) doRequest(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)

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
	return body, nil
}

// 确保 Provider 实现了所需的接口
var _ provider.Fetcher = (*Provider)(nil)
var _ provider.DailyFetcher = (*Provider)(nil)
var _ provider.FinancialFetcher = (*Provider)(nil)
var _ provider.Closable = (*Provider)(nil)
