package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"marketplace_engine_v1/internal/model"
)

// ==================== 仓储接口 ====================

// JobRunRepository 批处理执行记录仓储接口
type JobRunRepository interface {
	Create(ctx context.Context, run *model.JobRun) error
	Update(ctx context.Context, run *model.JobRun) error
	GetByID(ctx context.Context, id string) (*model.JobRun, error)
	ListRecent(ctx context.Context, job string, limit int) ([]model.JobRun, error)

	// 统计查询
	GetStats(ctx context.Context, job string, startTime, endTime time.Time) (*JobRunStats, error)
}

// ==================== 统计结构 ====================

// JobRunStats 执行统计
type JobRunStats struct {
	TotalRuns     int64   `json:"total_runs"`
	SuccessCount  int64   `json:"success_count"`
	FailedCount   int64   `json:"failed_count"`
	AvgDurationMs float64 `json:"avg_duration_ms"`
}

// ==================== 仓储实现 ====================

type jobRunRepo struct {
	db *gorm.DB
}

// NewJobRunRepository 创建执行记录仓储
func NewJobRunRepository(db *gorm.DB) JobRunRepository {
	return &jobRunRepo{db: db}
}

func (r *jobRunRepo) Create(ctx context.Context, run *model.JobRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *jobRunRepo) Update(ctx context.Context, run *model.JobRun) error {
	return r.db.WithContext(ctx).Save(run).Error
}

func (r *jobRunRepo) GetByID(ctx context.Context, id string) (*model.JobRun, error) {
	var run model.JobRun
	if err := r.db.WithContext(ctx).First(&run, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *jobRunRepo) ListRecent(ctx context.Context, job string, limit int) ([]model.JobRun, error) {
	var runs []model.JobRun

	query := r.db.WithContext(ctx).Model(&model.JobRun{})
	if job != "" {
		query = query.Where("job = ?", job)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Order("started_at DESC").Find(&runs).Error
	return runs, err
}

func (r *jobRunRepo) GetStats(ctx context.Context, job string, startTime, endTime time.Time) (*JobRunStats, error) {
	var stats JobRunStats

	query := r.db.WithContext(ctx).Model(&model.JobRun{})
	if job != "" {
		query = query.Where("job = ?", job)
	}
	if !startTime.IsZero() {
		query = query.Where("started_at >= ?", startTime)
	}
	if !endTime.IsZero() {
		query = query.Where("started_at <= ?", endTime)
	}

	err := query.Select(`
		COUNT(*) as total_runs,
		COALESCE(SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END), 0) as success_count,
		COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0) as failed_count,
		COALESCE(AVG(duration_ms), 0) as avg_duration_ms
	`).Scan(&stats).Error

	return &stats, err
}
