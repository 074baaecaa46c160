package storage

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/sirupsen/logrus"

	"stockdata/pkg/core"
	"stockdata/pkg/logger"
)

// InfluxConfig InfluxDB连接配置
type InfluxConfig struct {
	URL    string `json:"url" mapstructure:"url"`
	Token  string `json:"token" mapstructure:"token"`
	Org    string `json:"org" mapstructure:"org"`
	Bucket string `json:"bucket" mapstructure:"bucket"`
}

// InfluxBarWriter 把日线数据异步写入 InfluxDB。
// 底层 WriteAPI 自带批量和重试，写入错误通过错误通道记日志。
type InfluxBarWriter struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	cancel   context.CancelFunc
	log      *logrus.Entry
}

// NewInfluxBarWriter 创建写入器并做健康检查
func NewInfluxBarWriter(cfg InfluxConfig) (*InfluxBarWriter, error) {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	health, err := client.Health(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to InfluxDB: %w", err)
	}
	if health.Status != "pass" {
		client.Close()
		return nil, fmt.Errorf("InfluxDB health check failed: %s", health.Status)
	}

	drainCtx, drainCancel := context.WithCancel(context.Background())
	w := &InfluxBarWriter{
		client:   client,
		writeAPI: client.WriteAPI(cfg.Org, cfg.Bucket),
		cancel:   drainCancel,
		log:      logger.WithComponent("InfluxBarWriter"),
	}
	go w.drainWriteErrors(drainCtx)
	return w, nil
}

// WriteDailyBars 写入一批日线数据点，measurement 为 daily_bar
func (w *InfluxBarWriter) WriteDailyBars(market core.Market, source string, bars []core.DailyBar) {
	for _, bar := range bars {
		point := influxdb2.NewPointWithMeasurement("daily_bar").
			AddTag("symbol", bar.Symbol).
			AddTag("market", string(market)).
			AddTag("source", source).
			AddField("open", bar.Open).
			AddField("high", bar.High).
			AddField("low", bar.Low).
			AddField("close", bar.Close).
			AddField("volume", bar.Volume).
			AddField("turnover", bar.Turnover).
			SetTime(bar.TradeDate)

		w.writeAPI.WritePoint(point)
	}

	w.log.WithFields(logrus.Fields{
		"count":  len(bars),
		"market": market,
		"source": source,
	}).Debug("日线数据点已入队")
}

// Flush 把缓冲中的数据点同步刷到服务端
func (w *InfluxBarWriter) Flush() {
	w.writeAPI.Flush()
}

// Close 刷出剩余数据并关闭客户端
func (w *InfluxBarWriter) Close() error {
	w.cancel()
	w.writeAPI.Flush()
	w.client.Close()
	return nil
}

// drainWriteErrors 消费异步写入的错误通道
func (w *InfluxBarWriter) drainWriteErrors(ctx context.Context) {
	errorsCh := w.writeAPI.Errors()
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errorsCh:
			if !ok {
				return
			}
			w.log.WithError(err).Error("InfluxDB 写入失败")
		}
	}
}
