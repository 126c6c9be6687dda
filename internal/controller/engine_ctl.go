package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"marketplace_engine_v1/internal/api/dto"
	"marketplace_engine_v1/internal/model"
	"marketplace_engine_v1/internal/repository"
	"marketplace_engine_v1/internal/task"
)

// EngineRunner 评分入口，由 service.EngineService 实现
type EngineRunner interface {
	CalculateRankings(ctx context.Context, trigger string, req *dto.CalculateRankingsRequest) (*dto.CalculateRankingsResponse, error)
	CalculateInventory(ctx context.Context, trigger string, req *dto.CalculateInventoryRequest) (*dto.CalculateInventoryResponse, error)
	CalculateFinancing(ctx context.Context, trigger string, req *dto.CalculateFinancingRequest) (*dto.CalculateFinancingResponse, error)
	ListRuns(ctx context.Context, req dto.ListJobRunsRequest) (*dto.ListJobRunsResponse, error)
	RunStats(ctx context.Context, req dto.JobRunStatsRequest) (*repository.JobRunStats, error)
}

// TaskScheduler 定时任务管理，由 task.TaskManager 实现
type TaskScheduler interface {
	Status() []dto.TaskStatusVO
	Trigger(name string) error
}

// HealthChecker 依赖探活，返回 nil 表示健康
type HealthChecker func(ctx context.Context) error

// errCalculationFailed 对外只暴露通用错误信息
const errCalculationFailed = "calculation failed"

type EngineController struct {
	engine EngineRunner
	tasks  TaskScheduler
	health HealthChecker
	logger zerolog.Logger
}

func NewEngineController(engine EngineRunner, tasks TaskScheduler, health HealthChecker, logger zerolog.Logger) *EngineController {
	return &EngineController{
		engine: engine,
		tasks:  tasks,
		health: health,
		logger: logger.With().Str("component", "EngineController").Logger(),
	}
}

// bindOptional 请求体可选，缺失或格式错误时按默认值（全量）处理
func bindOptional[T any](ctx *gin.Context, log zerolog.Logger) *T {
	req := new(T)
	if ctx.Request.ContentLength == 0 {
		return req
	}
	var parsed T
	if err := ctx.ShouldBindJSON(&parsed); err != nil {
		log.Warn().Err(err).Str("path", ctx.FullPath()).Msg("请求体无法解析，按全量处理")
		return req
	}
	return &parsed
}

// ==================== 评分计算 ====================

// CalculateRankings 计算商品排名
// @Summary 计算商品排名
// @Description 按销量、转化、评分、履约、退货、风险加权计算排名分，product_ids 为空时计算全部在售商品
// @Tags Engine (评分引擎)
// @Accept json
// @Produce json
// @Param request body dto.CalculateRankingsRequest false "商品子集"
// @Success 200 {object} dto.CalculateRankingsResponse
// @Failure 500 {object} map[string]string "计算失败"
// @Router /functions/v1/calculate-rankings [post]
func (c *EngineController) CalculateRankings(ctx *gin.Context) {
	req := bindOptional[dto.CalculateRankingsRequest](ctx, c.logger)

	resp, err := c.engine.CalculateRankings(ctx.Request.Context(), model.JobTriggerHTTP, req)
	if err != nil {
		c.fail(ctx, model.JobRanking, err)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

// CalculateInventory 库存预测
// @Summary 库存预测
// @Description 计算销量预测与断货天数，发送低库存提醒、自动下架缺货商品并对高需求紧缺商品降权
// @Tags Engine (评分引擎)
// @Accept json
// @Produce json
// @Param request body dto.CalculateInventoryRequest false "商品子集"
// @Success 200 {object} dto.CalculateInventoryResponse
// @Failure 500 {object} map[string]string "计算失败"
// @Router /functions/v1/calculate-inventory [post]
func (c *EngineController) CalculateInventory(ctx *gin.Context) {
	req := bindOptional[dto.CalculateInventoryRequest](ctx, c.logger)

	resp, err := c.engine.CalculateInventory(ctx.Request.Context(), model.JobTriggerHTTP, req)
	if err != nil {
		c.fail(ctx, model.JobInventory, err)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

// CalculateFinancing 融资资格评估
// @Summary 融资资格评估
// @Description 评估卖家融资资格，自动发放邀约并结算还款周期，store_id 为空时评估全部正常店铺
// @Tags Engine (评分引擎)
// @Accept json
// @Produce json
// @Param request body dto.CalculateFinancingRequest false "指定店铺"
// @Success 200 {object} dto.CalculateFinancingResponse
// @Failure 500 {object} map[string]string "计算失败"
// @Router /functions/v1/calculate-financing [post]
func (c *EngineController) CalculateFinancing(ctx *gin.Context) {
	req := bindOptional[dto.CalculateFinancingRequest](ctx, c.logger)

	resp, err := c.engine.CalculateFinancing(ctx.Request.Context(), model.JobTriggerHTTP, req)
	if err != nil {
		c.fail(ctx, model.JobFinancing, err)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

func (c *EngineController) fail(ctx *gin.Context, job string, err error) {
	c.logger.Error().Err(err).Str("job", job).Msg("计算失败")
	ctx.JSON(http.StatusInternalServerError, gin.H{"error": errCalculationFailed})
}

// ==================== 运行记录 ====================

// ListRuns 最近执行记录
// @Summary 执行记录
// @Tags Engine (评分引擎)
// @Produce json
// @Param job query string false "任务名"
// @Param limit query int false "条数" default(20)
// @Success 200 {object} dto.ListJobRunsResponse
// @Router /api/engine/runs [get]
func (c *EngineController) ListRuns(ctx *gin.Context) {
	var req dto.ListJobRunsRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	resp, err := c.engine.ListRuns(ctx.Request.Context(), req)
	if err != nil {
		c.logger.Error().Err(err).Msg("查询执行记录失败")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "查询失败"})
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

// RunStats 执行统计
// @Summary 执行统计
// @Tags Engine (评分引擎)
// @Produce json
// @Param job query string false "任务名"
// @Param days query int false "统计天数" default(7)
// @Success 200 {object} repository.JobRunStats
// @Router /api/engine/runs/stats [get]
func (c *EngineController) RunStats(ctx *gin.Context) {
	var req dto.JobRunStatsRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "参数错误: " + err.Error()})
		return
	}

	stats, err := c.engine.RunStats(ctx.Request.Context(), req)
	if err != nil {
		c.logger.Error().Err(err).Msg("查询执行统计失败")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "查询失败"})
		return
	}

	ctx.JSON(http.StatusOK, stats)
}

// ==================== 定时任务 ====================

// ListTasks 定时任务状态
// @Summary 定时任务状态
// @Tags Engine (评分引擎)
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/engine/tasks [get]
func (c *EngineController) ListTasks(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"list": c.tasks.Status()})
}

// TriggerTask 后台立即执行定时任务
// @Summary 立即执行定时任务
// @Tags Engine (评分引擎)
// @Produce json
// @Param name path string true "任务名"
// @Success 202 {object} map[string]string
// @Failure 404 {object} map[string]string "任务不存在"
// @Failure 409 {object} map[string]string "任务执行中或已关闭"
// @Router /api/engine/tasks/{name}/run [post]
func (c *EngineController) TriggerTask(ctx *gin.Context) {
	name := ctx.Param("name")

	err := c.tasks.Trigger(name)
	switch {
	case err == nil:
		ctx.JSON(http.StatusAccepted, gin.H{"message": "已开始执行"})
	case errors.Is(err, task.ErrTaskNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "任务不存在"})
	case errors.Is(err, task.ErrTaskRunning), errors.Is(err, task.ErrTaskDisabled):
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.logger.Error().Err(err).Str("task", name).Msg("触发任务失败")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "触发失败"})
	}
}

// ==================== 健康检查 ====================

// Healthz 健康检查
// @Summary 健康检查
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /healthz [get]
func (c *EngineController) Healthz(ctx *gin.Context) {
	if c.health != nil {
		if err := c.health(ctx.Request.Context()); err != nil {
			c.logger.Warn().Err(err).Msg("健康检查失败")
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "database unreachable"})
			return
		}
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}
