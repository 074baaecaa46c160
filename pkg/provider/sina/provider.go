package sina

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

// Provider 新浪股票数据提供商，仅服务 CN 市场的日线数据
type Provider struct {
	httpClient *http.Client
	userAgent  string
	priority   int
	baseURL    string
	log        *logrus.Entry
}

// NewProvider 创建新浪数据提供商
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
			},
			Timeout: timeout,
		},
		userAgent: "StockData/1.0",
		priority:  priority,
		baseURL:   "https://quotes.sina.cn/cn/api/jsonp_v2.php/var/CN_MarketDataService.getKLineData",
		log:       logger.WithComponent("SinaProvider"),
	}
}

// Name 返回提供商名称
func (p *Provider) Name() string {
	return "sina"
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

// FetchDaily 获取日线数据
func (p *Provider) FetchDaily(ctx context.Context, symbol string) ([]core.DailyBar, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", p.buildURL(symbol), nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}

	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Referer", "https://finance.sina.com.cn/")

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

	return parseKLineData(symbol, string(body))
}

// buildURL 构建日K线查询URL
func (p *Provider) buildURL(symbol string) string {
	query := url.Values{}
	query.Set("symbol", marketPrefix(symbol)+symbol)
	query.Set("scale", "240") // 240分钟 = 日线
	query.Set("ma", "no")
	query.Set("datalen", "250")
	return p.baseURL + "?" + query.Encode()
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
