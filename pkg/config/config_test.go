package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 3, cfg.Breaker.FailureThreshold)
	assert.Equal(t, 5*time.Minute, cfg.Breaker.Cooldown)
	assert.Equal(t, "disk", cfg.Cache.Backend)
	assert.True(t, cfg.Providers.Sina.Enabled)
	assert.False(t, cfg.Providers.Tushare.Enabled, "tushare 无 token 不能默认启用")
	assert.False(t, cfg.InfluxDB.Enabled)

	// 默认配置必须通过自身的校验
	assert.NoError(t, cfg.Validate())
}

func TestLoad_空路径返回默认配置(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_文件覆盖默认值(t *testing.T) {
	content := `
server:
  port: "9090"
breaker:
  failure_threshold: 5
  cooldown: 10m
providers:
  tushare:
    enabled: true
    token: "test-token"
cache:
  backend: redis
  redis:
    addr: "localhost:6379"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 5, cfg.Breaker.FailureThreshold)
	assert.Equal(t, 10*time.Minute, cfg.Breaker.Cooldown)
	assert.Equal(t, "test-token", cfg.Providers.Tushare.Token)
	assert.Equal(t, "redis", cfg.Cache.Backend)

	// 未覆盖的字段保持默认值
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.True(t, cfg.Providers.Sina.Enabled)
}

func TestLoad_文件不存在(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.Providers.Tushare.Enabled = true
	valid.Providers.Tushare.Token = "tok"

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"默认配置加token合法", func(c *Config) {}, false},
		{"负数失败阈值", func(c *Config) { c.Breaker.FailureThreshold = -1 }, true},
		{"负数冷却时间", func(c *Config) { c.Breaker.Cooldown = -time.Second }, true},
		{"未知缓存后端", func(c *Config) { c.Cache.Backend = "memcached" }, true},
		{"redis后端缺地址", func(c *Config) {
			c.Cache.Backend = "redis"
			c.Cache.Redis.Addr = ""
		}, true},
		{"tushare启用但缺token", func(c *Config) { c.Providers.Tushare.Token = "" }, true},
		{"tushare禁用可不填token", func(c *Config) {
			c.Providers.Tushare.Enabled = false
			c.Providers.Tushare.Token = ""
		}, false},
		{"influx启用但缺url", func(c *Config) {
			c.InfluxDB.Enabled = true
			c.InfluxDB.URL = ""
		}, true},
		{"定时刷新启用但缺表达式", func(c *Config) {
			c.Refresh.Enabled = true
			c.Refresh.Spec = ""
		}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := *valid
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEnabledProviders(t *testing.T) {
	cfg := Default()
	cfg.Providers.Tushare.Enabled = true
	cfg.Providers.Tushare.Token = "tok"
	cfg.Providers.Tencent.Enabled = false
	cfg.Providers.Stooq.Enabled = false

	assert.Equal(t, []string{"tushare", "sina", "yahoo"}, cfg.EnabledProviders())
}
