package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
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
	"stockdata/pkg/scheduler"
)

var (
	logLevel   = flag.String("log-level", "", "日志级别 (debug, info, warn, error)，覆盖配置文件")
	logFormat  = flag.String("log-format", "", "日志格式 (json or text)，覆盖配置文件")
	configPath = flag.String("config", "", "配置文件路径 (例如 ./config/stockdata.yaml)")
)

// APIServer 行情查询 HTTP 服务
type APIServer struct {
	manager   *provider.DataManager
	refresher *scheduler.RefreshScheduler
	store     cache.ListStore
	server    *http.Server
	cfg       *config.Config
	log       *logrus.Logger
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("加载配置失败")
	}
	if *logLevel != "" {
		cfg.Logger.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Logger.Format = *logFormat
	}

	logger.Init(logger.Config{Level: cfg.Logger.Level, Format: cfg.Logger.Format})
	log := logger.GetLogger()

	gin.SetMode(cfg.Server.Mode)

	apiServer, err := NewAPIServer(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("创建 API 服务失败")
	}
	defer apiServer.Close()

	if err := apiServer.Start(); err != nil {
		log.WithError(err).Fatal("启动 API 服务失败")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("正在关闭 API 服务...")
	apiServer.Stop()
}

// NewAPIServer 组装数据源链、缓存和调度器
func NewAPIServer(cfg *config.Config, log *logrus.Logger) (*APIServer, error) {
	store, err := buildListStore(cfg)
	if err != nil {
		return nil, err
	}

	cnFetchers, usFetchers := buildFetchers(cfg)
	manager, err := provider.NewDataManager(provider.ManagerConfig{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		Cooldown:         cfg.Breaker.Cooldown,
		ListStore:        store,
	}, cnFetchers, usFetchers)
	if err != nil {
		return nil, fmt.Errorf("创建数据源调度引擎失败: %w", err)
	}

	log.WithField("providers", cfg.EnabledProviders()).Info("数据源链已就绪")

	s := &APIServer{
		manager: manager,
		store:   store,
		cfg:     cfg,
		log:     log,
	}

	if cfg.Refresh.Enabled {
		s.refresher = scheduler.NewRefreshScheduler(func(ctx context.Context, market core.Market) error {
			if stocks := manager.GetList(ctx, market, true); len(stocks) == 0 {
				return fmt.Errorf("刷新 %s 市场列表失败：所有数据源均无数据", market)
			}
			return nil
		})
		for _, market := range []core.Market{core.MarketCN, core.MarketUS} {
			if err := s.refresher.AddJob(scheduler.JobConfig{
				Name:     "refresh_" + string(market),
				Schedule: cfg.Refresh.Spec,
				Market:   market,
				Enabled:  true,
			}); err != nil {
				return nil, fmt.Errorf("添加刷新任务失败: %w", err)
			}
		}
	}

	return s, nil
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

func (s *APIServer) Start() error {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(s.corsMiddleware())

	router.GET("/health", s.healthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/stocks/:symbol/daily", s.getDaily)
		v1.GET("/stocks/:symbol/financials", s.getFinancials)
		v1.GET("/stocks/:symbol/info", s.getInfo)
		v1.GET("/markets/:market/stocks", s.getList)

		v1.GET("/breakers", s.getBreakers)
		v1.POST("/breakers/reset", s.resetAllBreakers)
		v1.POST("/breakers/:source/reset", s.resetBreaker)

		v1.GET("/jobs", s.getJobs)
	}

	s.server = &http.Server{
		Addr:    ":" + s.cfg.Server.Port,
		Handler: router,
	}

	s.log.WithField("port", s.cfg.Server.Port).Info("正在启动 API 服务...")

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.WithError(err).Fatal("HTTP 服务启动失败")
		}
	}()

	if s.refresher != nil {
		if err := s.refresher.Start(); err != nil {
			return err
		}
	}
	return nil
}

func (s *APIServer) Stop() {
	if s.refresher != nil {
		s.refresher.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		s.log.WithError(err).Error("HTTP 服务优雅关闭失败")
	}
}

func (s *APIServer) Close() {
	if s.manager != nil {
		s.manager.Close()
	}
	if closable, ok := s.store.(cache.Closable); ok && closable != nil {
		closable.Close()
	}
}

func (s *APIServer) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

func (s *APIServer) healthCheck(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":    "ok",
		"timestamp": time.Now(),
		"breakers":  s.manager.CircuitBreakerStatus(),
	})
}

// getDaily 查询日线数据。所有数据源都失败时返回 404 而不是 5xx，
// 取数失败在这套系统里是常态而非服务器故障。
func (s *APIServer) getDaily(c *gin.Context) {
	symbol := c.Param("symbol")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	bars, name, source := s.manager.GetStockDaily(ctx, symbol)
	if source == "" {
		c.JSON(404, ErrorResponse{Error: "no_data", Message: "所有数据源均无日线数据"})
		return
	}

	c.JSON(200, gin.H{
		"symbol": symbol,
		"name":   name,
		"market": core.ClassifyMarket(symbol),
		"source": source,
		"bars":   bars,
	})
}

func (s *APIServer) getFinancials(c *gin.Context) {
	symbol := c.Param("symbol")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	report, source := s.manager.GetFinancialData(ctx, symbol)
	if source == "" {
		c.JSON(404, ErrorResponse{Error: "no_data", Message: "所有数据源均无财务数据"})
		return
	}

	c.JSON(200, gin.H{
		"symbol": symbol,
		"source": source,
		"report": report,
	})
}

func (s *APIServer) getInfo(c *gin.Context) {
	symbol := c.Param("symbol")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	info := s.manager.GetStockInfo(ctx, symbol)
	if info == nil {
		c.JSON(404, ErrorResponse{Error: "not_found", Message: "当日列表缓存中无此股票"})
		return
	}
	c.JSON(200, info)
}

func (s *APIServer) getList(c *gin.Context) {
	market := core.Market(c.Param("market"))
	if market != core.MarketCN && market != core.MarketUS {
		c.JSON(400, ErrorResponse{Error: "bad_request", Message: "市场必须是 CN 或 US"})
		return
	}
	refresh, _ := strconv.ParseBool(c.DefaultQuery("refresh", "false"))

	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	stocks := s.manager.GetList(ctx, market, refresh)
	c.JSON(200, gin.H{
		"market": market,
		"count":  len(stocks),
		"stocks": stocks,
	})
}

func (s *APIServer) getBreakers(c *gin.Context) {
	c.JSON(200, s.manager.CircuitBreakerStatus())
}

func (s *APIServer) resetAllBreakers(c *gin.Context) {
	s.manager.ResetAllCircuitBreakers()
	c.JSON(200, gin.H{"status": "ok"})
}

func (s *APIServer) resetBreaker(c *gin.Context) {
	s.manager.ResetCircuitBreaker(c.Param("source"))
	c.JSON(200, gin.H{"status": "ok"})
}

func (s *APIServer) getJobs(c *gin.Context) {
	if s.refresher == nil {
		c.JSON(200, []scheduler.Job{})
		return
	}
	c.JSON(200, s.refresher.GetAllJobs())
}
