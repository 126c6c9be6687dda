package task

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"marketplace_engine_v1/internal/api/dto"
)

// JobFunc 任务执行体
type JobFunc func(ctx context.Context) error

// ==================== ScheduledTask 定时任务 ====================

// ScheduledTask 按 cron 表达式执行的单个批处理任务
// 同一任务同一时刻只跑一个实例，上一轮未结束时本轮跳过
type ScheduledTask struct {
	name       string
	spec       string
	timeout    time.Duration
	runOnStart bool
	run        JobFunc

	cron    *cron.Cron
	running atomic.Bool
	started atomic.Bool
	wg      sync.WaitGroup
	logger  zerolog.Logger
}

// NewScheduledTask 创建定时任务
func NewScheduledTask(name, spec string, timeout time.Duration, run JobFunc, logger zerolog.Logger) *ScheduledTask {
	return &ScheduledTask{
		name:    name,
		spec:    spec,
		timeout: timeout,
		run:     run,
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger.With().Str("task", name).Logger(),
	}
}

// SetRunOnStart 启动时是否立即执行一次
func (t *ScheduledTask) SetRunOnStart(enabled bool) {
	t.runOnStart = enabled
}

// Name 任务名
func (t *ScheduledTask) Name() string {
	return t.name
}

// Start 启动定时任务
func (t *ScheduledTask) Start() error {
	if _, err := t.cron.AddFunc(t.spec, func() {
		if err := t.execute(context.Background()); errors.Is(err, ErrTaskRunning) {
			t.logger.Warn().Msg("上一轮尚未结束，跳过本轮")
		}
	}); err != nil {
		t.logger.Error().Err(err).Str("spec", t.spec).Msg("定时任务启动失败")
		return err
	}

	// 首次执行
	if t.runOnStart {
		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			t.logger.Info().Msg("执行首次计算...")
			_ = t.execute(context.Background())
		}()
	}

	t.cron.Start()
	t.started.Store(true)
	t.logger.Info().Str("spec", t.spec).Msg("已启动")
	return nil
}

// Stop 停止任务，等待执行中的一轮结束
func (t *ScheduledTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	t.wg.Wait()
	t.started.Store(false)
	t.logger.Info().Msg("已停止")
}

// RunNow 后台立即执行一次
func (t *ScheduledTask) RunNow() error {
	if t.running.Load() {
		return ErrTaskRunning
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		_ = t.execute(context.Background())
	}()
	return nil
}

// execute 带超时执行一轮
func (t *ScheduledTask) execute(parent context.Context) error {
	if !t.running.CompareAndSwap(false, true) {
		return ErrTaskRunning
	}
	defer t.running.Store(false)

	ctx := parent
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, t.timeout)
		defer cancel()
	}

	start := time.Now()
	err := t.run(ctx)
	if err != nil {
		t.logger.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("执行失败")
		return err
	}
	t.logger.Info().Dur("elapsed", time.Since(start)).Msg("执行完成")
	return nil
}

// Status 任务状态
func (t *ScheduledTask) Status() dto.TaskStatusVO {
	return dto.TaskStatusVO{
		Name:    t.name,
		Enabled: t.started.Load(),
		Spec:    t.spec,
		Running: t.running.Load(),
	}
}
