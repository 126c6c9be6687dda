package task

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"marketplace_engine_v1/internal/api/dto"
	"marketplace_engine_v1/internal/model"
)

// Engine 定时任务依赖的评分入口，由 service.EngineService 实现
type Engine interface {
	CalculateRankings(ctx context.Context, trigger string, req *dto.CalculateRankingsRequest) (*dto.CalculateRankingsResponse, error)
	CalculateInventory(ctx context.Context, trigger string, req *dto.CalculateInventoryRequest) (*dto.CalculateInventoryResponse, error)
	CalculateFinancing(ctx context.Context, trigger string, req *dto.CalculateFinancingRequest) (*dto.CalculateFinancingResponse, error)
}

// ==================== 排名计算任务 ====================

// NewRankingTask 全量排名计算
func NewRankingTask(engine Engine, spec string, timeout time.Duration, logger zerolog.Logger) *ScheduledTask {
	t := NewScheduledTask(model.JobRanking, spec, timeout, nil, logger)
	t.run = func(ctx context.Context) error {
		resp, err := engine.CalculateRankings(ctx, model.JobTriggerSchedule, &dto.CalculateRankingsRequest{})
		if err != nil {
			return err
		}
		t.logger.Info().
			Int("ranked", resp.Ranked).
			Int("notifications", resp.Notifications).
			Msg("排名计算完成")
		return nil
	}
	return t
}

// ==================== 库存预测任务 ====================

// NewInventoryTask 全量库存预测
func NewInventoryTask(engine Engine, spec string, timeout time.Duration, logger zerolog.Logger) *ScheduledTask {
	t := NewScheduledTask(model.JobInventory, spec, timeout, nil, logger)
	t.run = func(ctx context.Context) error {
		resp, err := engine.CalculateInventory(ctx, model.JobTriggerSchedule, &dto.CalculateInventoryRequest{})
		if err != nil {
			return err
		}
		t.logger.Info().
			Int("calculated", resp.Calculated).
			Int("auto_hidden", resp.AutoHidden).
			Int("penalties", resp.Penalties).
			Msg("库存预测完成")
		return nil
	}
	return t
}

// ==================== 融资评估任务 ====================

// NewFinancingTask 全量融资评估
func NewFinancingTask(engine Engine, spec string, timeout time.Duration, logger zerolog.Logger) *ScheduledTask {
	t := NewScheduledTask(model.JobFinancing, spec, timeout, nil, logger)
	t.run = func(ctx context.Context) error {
		resp, err := engine.CalculateFinancing(ctx, model.JobTriggerSchedule, &dto.CalculateFinancingRequest{})
		if err != nil {
			return err
		}
		t.logger.Info().
			Int("calculated", resp.Calculated).
			Int("offers_generated", resp.OffersGenerated).
			Msg("融资评估完成")
		return nil
	}
	return t
}
