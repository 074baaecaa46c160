package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"stockdata/pkg/cache"
	"stockdata/pkg/config"
	"stockdata/pkg/core"
	"stockdata/pkg/logger"
	"stockdata/pkg/provider"
	"stockdata/pkg/provider/sina"
	"stockdata/pkg/provider/stooq"
	"stockdata/pkg/provider/tencent"
	"stockdata/pkg/provider/tushare"
	"stockdata/pkg/provider/yahoo"
	"stockdata/pkg/storage"
)

var (
	configPath = flag.String("config", "", "配置文件路径")
	symbols    = flag.String("symbols", "", "股票代码，逗号分隔 (例如 600519,NVDA)")
	financials = flag.Bool("financials", false, "同时抓取财务指标")
	listMarket = flag.String("list", "", "抓取指定市场的股票列表 (CN 或 US)")
	toInflux   = flag.Bool("influx", false, "把日线数据写入 InfluxDB（需要配置文件启用 influxdb）")
	logLevel   = flag.String("log-level", "", "日志级别，覆盖配置文件")
)

// 批量抓取工具：按回退链取数并打印 JSON，可选落 InfluxDB。
func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("加载配置失败")
	}
	if *logLevel != "" {
		cfg.Logger.Level = *logLevel
	}
	logger.Init(logger.Config{Level: cfg.Logger.Level, Format: cfg.Logger.Format})
	log := logger.GetLogger()

	if *symbols == "" && *listMarket == "" {
		fmt.Fprintln(os.Stderr, "用法: fetcher -symbols 600519,NVDA [-financials] [-influx] | -list CN")
		flag.PrintDefaults()
		os.Exit(2)
	}

	store, err := buildListStore(cfg)
	if err != nil {
		log.WithError(err).Fatal("创建列表存储失败")
	}

	cnFetchers, usFetchers := buildFetchers(cfg)
	manager, err := provider.NewDataManager(provider.ManagerConfig{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		Cooldown:         cfg.Breaker.Cooldown,
		ListStore:        store,
	}, cnFetchers, usFetchers)
	if err != nil {
		log.WithError(err).Fatal("创建数据源调度引擎失败")
	}
	defer manager.Close()

	var writer *storage.InfluxBarWriter
	if *toInflux {
		if !cfg.InfluxDB.Enabled {
			log.Fatal("配置文件未启用 influxdb，无法写入")
		}
		writer, err = storage.NewInfluxBarWriter(storage.InfluxConfig{
			URL:    cfg.InfluxDB.URL,
			Token:  cfg.InfluxDB.Token,
			Org:    cfg.InfluxDB.Org,
			Bucket: cfg.InfluxDB.Bucket,
		})
		if err != nil {
			log.WithError(err).Fatal("连接 InfluxDB 失败")
		}
		defer writer.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if *listMarket != "" {
		fetchList(ctx, manager, core.Market(strings.ToUpper(*listMarket)), log)
	}

	for _, symbol := range splitSymbols(*symbols) {
		fetchSymbol(ctx, manager, writer, symbol, log)
	}
}

func fetchList(ctx context.Context, manager *provider.DataManager, market core.Market, log *logrus.Logger) {
	if market != core.MarketCN && market != core.MarketUS {
		log.Fatalf("未知市场: %s", market)
	}

	stocks := manager.GetList(ctx, market, true)
	if len(stocks) == 0 {
		log.Errorf("%s 市场列表抓取失败：所有数据源均无数据", market)
		return
	}

	log.Infof("%s 市场列表抓取成功，共 %d 只股票", market, len(stocks))
	printJSON(map[string]interface{}{"market": market, "count": len(stocks), "stocks": stocks})
}

func fetchSymbol(ctx context.Context, manager *provider.DataManager, writer *storage.InfluxBarWriter, symbol string, log *logrus.Logger) {
	market := core.ClassifyMarket(symbol)

	bars, name, source := manager.GetStockDaily(ctx, symbol)
	if source == "" {
		log.Errorf("[%s] 日线抓取失败：所有数据源均无数据", symbol)
	} else {
		log.Infof("[%s] %s 日线 %d 根 (来源: %s)", symbol, name, len(bars), source)
		output := map[string]interface{}{
			"symbol": symbol, "name": name, "market": market, "source": source, "bars": bars,
		}
		if writer != nil {
			writer.WriteDailyBars(market, source, bars)
		}
		printJSON(output)
	}

	if *financials {
		report, finSource := manager.GetFinancialData(ctx, symbol)
		if finSource == "" {
			log.Errorf("[%s] 财务指标抓取失败：所有数据源均无数据", symbol)
			return
		}
		log.Infof("[%s] 财务指标 %d 个字段 (来源: %s)", symbol, len(report.Fields), finSource)
		printJSON(map[string]interface{}{"symbol": symbol, "source": finSource, "report": report})
	}
}

func splitSymbols(raw string) []string {
	var result []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			result = append(result, s)
		}
	}
	return result
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		logrus.WithError(err).Error("序列化输出失败")
		return
	}
	fmt.Println(string(data))
}

// buildListStore 按配置构建列表持久化存储，backend=none 时返回 nil
func buildListStore(cfg *config.Config) (cache.ListStore, error) {
	switch cfg.Cache.Backend {
	case "disk":
		return cache.NewDiskListStore(cache.DiskListStoreConfig{
			BaseDir:  cfg.Cache.Dir,
			KeepDays: cfg.Cache.KeepDays,
		})
	case "redis":
		return cache.NewRedisListStore(cache.RedisListStoreConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			TTL:      cfg.Cache.TTL,
		})
	default:
		return nil, nil
	}
}

// buildFetchers 按配置构建两个市场的数据源链
func buildFetchers(cfg *config.Config) (cn, us []provider.Fetcher) {
	p := cfg.Providers
	if p.Tushare.Enabled {
		cn = append(cn, tushare.NewProvider(p.Tushare.Token, p.Tushare.Priority, p.Tushare.Timeout))
	}
	if p.Sina.Enabled {
		cn = append(cn, sina.NewProvider(p.Sina.Priority, p.Sina.Timeout))
	}
	if p.Tencent.Enabled {
		cn = append(cn, tencent.NewProvider(p.Tencent.Priority, p.Tencent.Timeout))
	}
	if p.Yahoo.Enabled {
		us = append(us, yahoo.NewProvider(p.Yahoo.Priority, p.Yahoo.Timeout))
	}
	if p.Stooq.Enabled {
		us = append(us, stooq.NewProvider(p.Stooq.Priority, p.Stooq.Timeout))
	}
	return cn, us
}
