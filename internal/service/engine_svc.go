package service

import (
	"context"

	"marketplace_engine_v1/internal/api/dto"
	"marketplace_engine_v1/internal/model"
	"marketplace_engine_v1/internal/repository"
)

// EngineService 三个评分任务的统一入口，HTTP 与定时任务都经由这里并记录执行日志
type EngineService struct {
	ranking   *RankingService
	inventory *InventoryService
	financing *FinancingService
	runs      *JobRunService
}

// NewEngineService 创建引擎入口
func NewEngineService(ranking *RankingService, inventory *InventoryService, financing *FinancingService, runs *JobRunService) *EngineService {
	return &EngineService{
		ranking:   ranking,
		inventory: inventory,
		financing: financing,
		runs:      runs,
	}
}

// CalculateRankings 计算排名
func (e *EngineService) CalculateRankings(ctx context.Context, trigger string, req *dto.CalculateRankingsRequest) (*dto.CalculateRankingsResponse, error) {
	return Track(ctx, e.runs, model.JobRanking, trigger, func(ctx context.Context) (*dto.CalculateRankingsResponse, error) {
		return e.ranking.Calculate(ctx, req)
	})
}

// CalculateInventory 计算库存预测
func (e *EngineService) CalculateInventory(ctx context.Context, trigger string, req *dto.CalculateInventoryRequest) (*dto.CalculateInventoryResponse, error) {
	return Track(ctx, e.runs, model.JobInventory, trigger, func(ctx context.Context) (*dto.CalculateInventoryResponse, error) {
		return e.inventory.Calculate(ctx, req)
	})
}

// CalculateFinancing 融资评估
func (e *EngineService) CalculateFinancing(ctx context.Context, trigger string, req *dto.CalculateFinancingRequest) (*dto.CalculateFinancingResponse, error) {
	return Track(ctx, e.runs, model.JobFinancing, trigger, func(ctx context.Context) (*dto.CalculateFinancingResponse, error) {
		return e.financing.Calculate(ctx, req)
	})
}

// ListRuns 最近执行记录
func (e *EngineService) ListRuns(ctx context.Context, req dto.ListJobRunsRequest) (*dto.ListJobRunsResponse, error) {
	return e.runs.ListRecent(ctx, req)
}

// RunStats 执行统计
func (e *EngineService) RunStats(ctx context.Context, req dto.JobRunStatsRequest) (*repository.JobRunStats, error) {
	return e.runs.Stats(ctx, req)
}
