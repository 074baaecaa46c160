package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"stockdata/pkg/logger"
)

// RefreshScheduler 股票列表定时刷新调度器。
// 每个市场对应一个 cron 任务，任务体由调用方注入。
type RefreshScheduler struct {
	cron    *cron.Cron
	jobs    map[string]*Job
	refresh RefreshFunc
	mu      sync.RWMutex
	log     *logrus.Entry
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewRefreshScheduler 创建刷新调度器
func NewRefreshScheduler(refresh RefreshFunc) *RefreshScheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &RefreshScheduler{
		cron:    cron.New(cron.WithSeconds()),
		jobs:    make(map[string]*Job),
		refresh: refresh,
		log:     logger.WithComponent("RefreshScheduler"),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// AddJob 添加刷新任务
func (s *RefreshScheduler) AddJob(config JobConfig) error {
	if err := validateJobConfig(config); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[config.Name]; exists {
		return fmt.Errorf("任务已存在: %s", config.Name)
	}

	job := &Job{
		ID:     uuid.New().String(),
		Config: config,
		Status: JobStatusPending,
	}

	if !config.Enabled {
		job.Status = JobStatusDisabled
		s.jobs[config.Name] = job
		s.log.Infof("任务已添加（已禁用）: %s", config.Name)
		return nil
	}

	entryID, err := s.cron.AddFunc(config.Schedule, func() {
		s.executeJob(job)
	})
	if err != nil {
		return fmt.Errorf("添加任务到调度器失败: %w", err)
	}

	job.EntryID = entryID
	s.jobs[config.Name] = job

	s.log.Infof("任务已添加: %s (市场: %s, 调度: %s)", config.Name, config.Market, config.Schedule)
	return nil
}

// RemoveJob 移除任务
func (s *RefreshScheduler) RemoveJob(jobName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[jobName]
	if !exists {
		return fmt.Errorf("任务不存在: %s", jobName)
	}

	s.cron.Remove(job.EntryID)
	delete(s.jobs, jobName)

	s.log.Infof("任务已移除: %s", jobName)
	return nil
}

// GetJob 获取任务状态快照
func (s *RefreshScheduler) GetJob(jobName string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[jobName]
	if !exists {
		return nil, fmt.Errorf("任务不存在: %s", jobName)
	}

	jobCopy := *job
	return &jobCopy, nil
}

// GetAllJobs 获取所有任务状态快照
func (s *RefreshScheduler) GetAllJobs() []*Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobCopy := *job
		jobs = append(jobs, &jobCopy)
	}
	return jobs
}

// RunJob 手动触发任务，异步执行
func (s *RefreshScheduler) RunJob(jobName string) error {
	s.mu.RLock()
	job, exists := s.jobs[jobName]
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("任务不存在: %s", jobName)
	}
	if !job.Config.Enabled {
		return fmt.Errorf("任务已禁用: %s", jobName)
	}

	go s.executeJob(job)
	return nil
}

// Start 启动调度器
func (s *RefreshScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refresh == nil {
		return fmt.Errorf("刷新函数未设置")
	}

	s.cron.Start()
	s.updateNextRunTimes()
	s.log.Info("刷新调度器已启动")
	return nil
}

// Stop 停止调度器，等待在途任务收尾
func (s *RefreshScheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancel()
	ctx := s.cron.Stop()

	select {
	case <-ctx.Done():
		s.log.Info("刷新调度器已停止")
	case <-time.After(30 * time.Second):
		s.log.Warn("刷新调度器停止超时")
	}
	return nil
}

// executeJob 执行一次刷新，同名任务不并发
func (s *RefreshScheduler) executeJob(job *Job) {
	s.mu.Lock()
	if job.Status == JobStatusRunning {
		s.mu.Unlock()
		s.log.Warnf("任务正在运行，跳过本次执行: %s", job.Config.Name)
		return
	}
	job.Status = JobStatusRunning
	now := time.Now()
	job.LastRun = &now
	job.RunCount++
	s.mu.Unlock()

	s.log.Infof("开始刷新 %s 市场股票列表: %s", job.Config.Market, job.Config.Name)

	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := s.refresh(ctx, job.Config.Market)

	s.mu.Lock()
	if err != nil {
		job.Status = JobStatusError
		job.LastError = err
		job.ErrorCount++
		s.log.WithError(err).Errorf("任务执行失败: %s", job.Config.Name)
	} else {
		job.Status = JobStatusPending
		job.LastError = nil
		s.log.Infof("任务执行成功: %s", job.Config.Name)
	}
	s.mu.Unlock()
}

// updateNextRunTimes 回填各任务的下次运行时间（需要持有锁）
func (s *RefreshScheduler) updateNextRunTimes() {
	entries := s.cron.Entries()
	for _, job := range s.jobs {
		if !job.Config.Enabled {
			continue
		}
		for _, entry := range entries {
			if entry.ID == job.EntryID {
				nextRun := entry.Next
				job.NextRun = &nextRun
				break
			}
		}
	}
}

// validateJobConfig 验证任务配置
func validateJobConfig(config JobConfig) error {
	if config.Name == "" {
		return fmt.Errorf("任务名称不能为空")
	}
	if config.Market == "" {
		return fmt.Errorf("目标市场不能为空")
	}
	if config.Schedule == "" {
		return fmt.Errorf("任务调度表达式不能为空")
	}

	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(config.Schedule); err != nil {
		return fmt.Errorf("无效的调度表达式 '%s': %w", config.Schedule, err)
	}
	return nil
}
