package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"marketplace_engine_v1/internal/api/dto"
	"marketplace_engine_v1/internal/model"
	"marketplace_engine_v1/internal/repository"
)

// JobRunService 批处理执行记录
// 记录失败不影响任务本身
type JobRunService struct {
	repo   repository.JobRunRepository
	now    Clock
	logger zerolog.Logger
}

// NewJobRunService 创建执行记录服务
func NewJobRunService(repo repository.JobRunRepository, logger zerolog.Logger) *JobRunService {
	return &JobRunService{
		repo:   repo,
		now:    SystemClock,
		logger: logger.With().Str("component", "JobRunService").Logger(),
	}
}

// WithClock 替换时钟
func (s *JobRunService) WithClock(clock Clock) *JobRunService {
	s.now = clock
	return s
}

// Track 执行 fn 并记录开始、结束、耗时与结果摘要
func Track[T any](ctx context.Context, s *JobRunService, job, trigger string, fn func(context.Context) (T, error)) (T, error) {
	run := &model.JobRun{
		Job:       job,
		Trigger:   trigger,
		StartedAt: s.now(),
		Status:    model.JobStatusRunning,
	}
	if err := s.repo.Create(ctx, run); err != nil {
		s.logger.Warn().Err(err).Str("job", job).Msg("创建执行记录失败")
		run = nil
	}

	result, err := fn(ctx)

	if run != nil {
		s.finish(ctx, run, result, err)
	}
	return result, err
}

func (s *JobRunService) finish(ctx context.Context, run *model.JobRun, result interface{}, runErr error) {
	finished := s.now()
	run.FinishedAt = &finished
	run.DurationMs = finished.Sub(run.StartedAt).Milliseconds()

	if runErr != nil {
		run.Status = model.JobStatusFailed
		run.ErrorMsg = truncate(runErr.Error(), 1024)
	} else {
		run.Status = model.JobStatusSuccess
		if b, err := json.Marshal(result); err == nil {
			run.Summary = datatypes.JSON(b)
		}
	}

	// 任务超时后 ctx 已取消，记录仍需写入
	if err := s.repo.Update(context.WithoutCancel(ctx), run); err != nil {
		s.logger.Warn().Err(err).Str("job", run.Job).Msg("更新执行记录失败")
	}
}

// ListRecent 最近的执行记录
func (s *JobRunService) ListRecent(ctx context.Context, req dto.ListJobRunsRequest) (*dto.ListJobRunsResponse, error) {
	limit := req.Limit
	if limit <= 0 || limit > 200 {
		limit = 20
	}

	runs, err := s.repo.ListRecent(ctx, req.Job, limit)
	if err != nil {
		return nil, fmt.Errorf("查询执行记录失败: %w", err)
	}

	resp := &dto.ListJobRunsResponse{List: make([]dto.JobRunVO, 0, len(runs))}
	for _, r := range runs {
		vo := dto.JobRunVO{
			ID:         r.ID,
			Job:        r.Job,
			Trigger:    r.Trigger,
			Status:     r.Status,
			StartedAt:  r.StartedAt,
			FinishedAt: r.FinishedAt,
			DurationMs: r.DurationMs,
			ErrorMsg:   r.ErrorMsg,
		}
		if len(r.Summary) > 0 {
			var summary map[string]interface{}
			if err := json.Unmarshal(r.Summary, &summary); err == nil {
				vo.Summary = summary
			}
		}
		resp.List = append(resp.List, vo)
	}
	return resp, nil
}

// Stats 最近 N 天的执行统计
func (s *JobRunService) Stats(ctx context.Context, req dto.JobRunStatsRequest) (*repository.JobRunStats, error) {
	days := req.Days
	if days <= 0 || days > 90 {
		days = 7
	}
	end := s.now()
	stats, err := s.repo.GetStats(ctx, req.Job, end.AddDate(0, 0, -days), end)
	if err != nil {
		return nil, fmt.Errorf("查询执行统计失败: %w", err)
	}
	return stats, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
