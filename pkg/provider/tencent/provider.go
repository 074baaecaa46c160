package tencent

import (
	"context"
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

// Provider 腾讯股票数据提供商，仅服务 CN 市场的日线数据。
// gtimg 接口返回 GBK 编码的响应体，解析前统一转成 UTF-8。
type Provider struct {
	httpClient *http.Client
	maxRetries int
	userAgent  string
	priority   int
	baseURL    string
	log        *logrus.Entry
}

// NewProvider 创建腾讯数据提供商
func NewProvider(priority int, timeout time.Duration) *Provider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Provider{
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     30 * time.Second,
				MaxConnsPerHost:     10,
			},
			Timeout: timeout,
		},
		maxRetries: 3,
		userAgent:  "StockData/1.0",
		priority:   priority,
		baseURL:    "https://web.ifzq.gtimg.cn/appstock/app/fqkline/get",
		log:        logger.WithComponent("TencentProvider"),
	}
}

// Name 返回提供商名称
func (p *Provider) Name() string {
	return "tencent"
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

// FetchDaily 获取前复权日线数据，瞬时失败按退避重试
func (p *Provider) FetchDaily(ctx context.Context, symbol string) ([]core.DailyBar, error) {
	code := marketPrefix(symbol) + symbol
	url := fmt.Sprintf("%s?param=%s,day,,,250,qfq", p.baseURL, code)

	var lastErr error
	for i := 0; i < p.maxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(i) * time.Second):
			}
		}

		body, err := p.doRequest(ctx, url)
		if err != nil {
			lastErr = err
			p.log.WithError(err).Debugf("请求失败，第 %d/%d 次", i+1, p.maxRetries)
			continue
		}
		return parseKLineResponse(symbol, code, body)
	}
	return nil, fmt.Errorf("all %d attempts failed, last error: %w", p.maxRetries, lastErr)
}

// doRequest 执行HTTP请求并返回响应体
func (p *Provider) doRequest(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}

	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Referer", "https://gu.qq.com/")

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

// marketPrefix 根据股票代码获取市场前缀
func marketPrefix(symbol string) string {
	switch {
	case strings.HasPrefix(symbol, "6"), strings.HasPrefix(symbol, "9"):
		return "sh"
	case strings.HasPrefix(symbol, "8"), strings.HasPrefix(symbol, "4"):
		return "bj"
	default:
		return "sz"
	}
}

// 确保 Provider 实现了所需的接口
var _ provider.Fetcher = (*Provider)(nil)
var _ provider.DailyFetcher = (*Provider)(nil)
var _ provider.Closable = (*Provider)(nil)
