package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"stockdata/pkg/core"
)

// JobStatus 任务状态
type JobStatus string

const (
	JobStatusPending  JobStatus = "pending"  // 等待下次调度
	JobStatusRunning  JobStatus = "running"  // 正在执行
	JobStatusError    JobStatus = "error"    // 上次执行失败
	JobStatusDisabled JobStatus = "disabled" // 已禁用
)

// JobConfig 刷新任务配置
type JobConfig struct {
	Name     string      `json:"name" mapstructure:"name"`         // 任务名称，唯一
	Schedule string      `json:"schedule" mapstructure:"schedule"` // cron 表达式（带秒字段）
	Market   core.Market `json:"market" mapstructure:"market"`     // 刷新的目标市场
	Enabled  bool        `json:"enabled" mapstructure:"enabled"`
}

// Job 运行时任务状态
type Job struct {
	ID      string       `json:"id"` // uuid
	Config  JobConfig    `json:"config"`
	Status  JobStatus    `json:"status"`
	EntryID cron.EntryID `json:"-"`

	LastRun    *time.Time `json:"last_run,omitempty"`
	NextRun    *time.Time `json:"next_run,omitempty"`
	RunCount   int64      `json:"run_count"`
	ErrorCount int64      `json:"error_count"`
	LastError  error      `json:"-"`
}

// RefreshFunc 任务体：刷新指定市场的股票列表
type RefreshFunc func(ctx context.Context, market core.Market) error
