package stooq

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"stockdata/pkg/core"
	"stockdata/pkg/logger"
	"stockdata/pkg/provider"
)

// Provider stooq.com 数据提供商，仅服务 US 市场的日线数据。
// 接口返回 CSV，无需认证，作为 yahoo 的免费兜底数据源。
type Provider struct {
	httpClient *http.Client
	userAgent  string
	priority   int
	baseURL    string
	log        *logrus.Entry
}

// NewProvider 创建 stooq 数据提供商
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
		userAgent: "StockData/1.0",
		priority:  priority,
		baseURL:   "https://stooq.com/q/d/l/",
		log:       logger.WithComponent("StooqProvider"),
	}
}

// Name 返回提供商名称
func (p *Provider) Name() string {
	return "stooq"
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

// FetchDaily 获取日线数据。stooq 的美股代码形如 nvda.us。
func (p *Provider) FetchDaily(ctx context.Context, symbol string) ([]core.DailyBar, error) {
	query := url.Values{}
	query.Set("s", strings.ToLower(symbol)+".us")
	query.Set("i", "d")

	req, err := http.NewRequestWithContext(ctx, "GET", p.baseURL+"?"+query.Encode(), nil)
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

	return parseDailyCSV(symbol, string(body))
}

// 确保 Provider 实现了所需的接口
var _ provider.Fetcher = (*Provider)(nil)
var _ provider.DailyFetcher = (*Provider)(nil)
var _ provider.Closable = (*Provider)(nil)
