package task

import (
	"time"

	"github.com/rs/zerolog"

	"marketplace_engine_v1/internal/api/dto"
)

// ==================== TaskManager 评分任务管理器 ====================

// TaskManager 统一管理排名、库存、融资三个定时任务
type TaskManager struct {
	enabled bool
	tasks   []*ScheduledTask
	byName  map[string]*ScheduledTask
	logger  zerolog.Logger
}

// TaskManagerConfig 任务管理器配置
type TaskManagerConfig struct {
	Enabled    bool
	RunOnStart bool

	RankingSpec   string
	InventorySpec string
	FinancingSpec string

	// JobTimeout 单轮执行超时
	JobTimeout time.Duration
}

// DefaultConfig 默认配置
func DefaultConfig() *TaskManagerConfig {
	return &TaskManagerConfig{
		Enabled:       true,
		RankingSpec:   "0 0 */6 * * *",
		InventorySpec: "0 30 * * * *",
		FinancingSpec: "0 0 3 * * *",
		JobTimeout:    30 * time.Minute,
	}
}

// NewTaskManager 创建任务管理器
// 按库存 → 排名 → 融资的依赖顺序注册
func NewTaskManager(engine Engine, cfg *TaskManagerConfig, logger zerolog.Logger) *TaskManager {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	tm := &TaskManager{
		enabled: cfg.Enabled,
		byName:  make(map[string]*ScheduledTask),
		logger:  logger.With().Str("task", "TaskManager").Logger(),
	}

	tm.add(NewInventoryTask(engine, cfg.InventorySpec, cfg.JobTimeout, logger))
	tm.add(NewRankingTask(engine, cfg.RankingSpec, cfg.JobTimeout, logger))
	tm.add(NewFinancingTask(engine, cfg.FinancingSpec, cfg.JobTimeout, logger))

	for _, t := range tm.tasks {
		t.SetRunOnStart(cfg.RunOnStart)
	}
	return tm
}

func (tm *TaskManager) add(t *ScheduledTask) {
	tm.tasks = append(tm.tasks, t)
	tm.byName[t.Name()] = t
}

// ==================== 生命周期管理 ====================

// Start 启动所有任务
func (tm *TaskManager) Start() error {
	if !tm.enabled {
		tm.logger.Info().Msg("定时任务已关闭，后台触发同样不可用，评分仍可通过 /functions/v1 调用")
		return nil
	}

	tm.logger.Info().Msg("正在启动评分任务...")
	for _, t := range tm.tasks {
		if err := t.Start(); err != nil {
			return err
		}
	}
	tm.logger.Info().Int("tasks", len(tm.tasks)).Msg("评分任务已全部启动")
	return nil
}

// Stop 停止所有任务
func (tm *TaskManager) Stop() {
	if !tm.enabled {
		return
	}

	tm.logger.Info().Msg("正在停止评分任务...")
	for _, t := range tm.tasks {
		t.Stop()
	}
	tm.logger.Info().Msg("评分任务已全部停止")
}

// ==================== 手动触发接口 ====================

// Trigger 后台立即执行指定任务
func (tm *TaskManager) Trigger(name string) error {
	t, ok := tm.byName[name]
	if !ok {
		return ErrTaskNotFound
	}
	if !tm.enabled {
		return ErrTaskDisabled
	}
	return t.RunNow()
}

// ==================== 状态查询 ====================

// Status 获取任务状态
func (tm *TaskManager) Status() []dto.TaskStatusVO {
	list := make([]dto.TaskStatusVO, 0, len(tm.tasks))
	for _, t := range tm.tasks {
		list = append(list, t.Status())
	}
	return list
}

// ==================== 错误定义 ====================

type TaskError string

func (e TaskError) Error() string { return string(e) }

const (
	ErrTaskDisabled TaskError = "task is disabled"
	ErrTaskNotFound TaskError = "task not found"
	ErrTaskRunning  TaskError = "task is already running"
)
