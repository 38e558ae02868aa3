/*
 * @module service/scheduler/scheduler_service
 * @description 定时调度服务，按cron表达式周期性触发ETL流水线
 * @architecture 服务层 - 调度
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow 注册cron任务 -> 到点触发 -> 分布式锁保护下执行流水线
 * @rules 多实例部署下同一时刻只有一个实例执行流水线，锁未获取时静默跳过
 * @dependencies github.com/robfig/cron/v3
 * @refs service/warehouse/pipeline, service/distributed_lock
 */

package scheduler

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"energyhub-service/service/distributed_lock"
	"energyhub-service/service/warehouse"
)

// 流水线锁键与默认调度配置
const (
	pipelineLockKey    = "etl_pipeline"
	pipelineLockTTL    = 30 * time.Minute
	lockRefreshEvery   = 5 * time.Minute
	defaultEtlCronSpec = "0 15 * * * *" // 每小时第15分钟执行
)

// SchedulerService 定时调度服务
type SchedulerService struct {
	cron         *cron.Cron
	pipeline     *warehouse.PipelineService
	lockExecutor *distributed_lock.LockExecutor // 可选，nil时不加锁直接执行
	entryID      cron.EntryID
}

// NewSchedulerService 创建调度服务实例
func NewSchedulerService(pipeline *warehouse.PipelineService, lockExecutor *distributed_lock.LockExecutor) *SchedulerService {
	return &SchedulerService{
		cron:         cron.New(cron.WithSeconds()),
		pipeline:     pipeline,
		lockExecutor: lockExecutor,
	}
}

// Start 注册流水线任务并启动调度器
func (s *SchedulerService) Start() error {
	spec := os.Getenv("ETL_CRON")
	if spec == "" {
		spec = defaultEtlCronSpec
	}

	entryID, err := s.cron.AddFunc(spec, s.runScheduled)
	if err != nil {
		return err
	}
	s.entryID = entryID

	s.cron.Start()
	slog.Info("ETL调度器已启动", "cron", spec)
	return nil
}

// Stop 停止调度器，等待在途任务结束
func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	slog.Info("ETL调度器已停止")
}

// NextRun 下一次调度时间
func (s *SchedulerService) NextRun() time.Time {
	entry := s.cron.Entry(s.entryID)
	return entry.Next
}

// runScheduled 锁保护下执行一次流水线
func (s *SchedulerService) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), pipelineLockTTL)
	defer cancel()

	run := func() error {
		_, err := s.pipeline.Run(ctx, warehouse.TriggerScheduled)
		return err
	}

	var err error
	if s.lockExecutor != nil {
		err = s.lockExecutor.ExecuteWithLockAndRefresh(ctx, pipelineLockKey, pipelineLockTTL, lockRefreshEvery, run)
	} else {
		err = run()
	}
	if err != nil {
		slog.Error("定时ETL流水线执行失败", "error", err)
	}
}
