package dto

import "time"

// ==================== 排名计算 ====================

// CalculateRankingsRequest 排名计算请求，product_ids 为空表示全部在售商品
type CalculateRankingsRequest struct {
	ProductIDs []string `json:"product_ids"`
}

// CalculateRankingsResponse 排名计算结果
type CalculateRankingsResponse struct {
	Ranked        int `json:"ranked"`
	Notifications int `json:"notifications"`
}

// ==================== 库存预测 ====================

// CalculateInventoryRequest 库存预测请求，product_ids 为空表示全部已发布商品
type CalculateInventoryRequest struct {
	ProductIDs []string `json:"product_ids"`
}

// CalculateInventoryResponse 库存预测结果
type CalculateInventoryResponse struct {
	Calculated int `json:"calculated"`
	AutoHidden int `json:"auto_hidden"`
	Penalties  int `json:"penalties"`
}

// ==================== 融资评估 ====================

// CalculateFinancingRequest 融资评估请求，store_id 为空表示全部正常店铺
type CalculateFinancingRequest struct {
	StoreID string `json:"store_id"`
}

// CalculateFinancingResponse 融资评估结果
type CalculateFinancingResponse struct {
	Calculated      int `json:"calculated"`
	OffersGenerated int `json:"offers_generated"`
}

// ==================== 运行记录 ====================

// ListJobRunsRequest 执行记录查询
type ListJobRunsRequest struct {
	Job   string `form:"job"` // ranking / inventory / financing
	Limit int    `form:"limit,default=20"`
}

// JobRunVO 执行记录视图对象
type JobRunVO struct {
	ID         string      `json:"id"`
	Job        string      `json:"job"`
	Trigger    string      `json:"trigger"`
	Status     string      `json:"status"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt *time.Time  `json:"finished_at,omitempty"`
	DurationMs int64       `json:"duration_ms"`
	Summary    interface{} `json:"summary,omitempty"`
	ErrorMsg   string      `json:"error_msg,omitempty"`
}

// ListJobRunsResponse 执行记录列表
type ListJobRunsResponse struct {
	List []JobRunVO `json:"list"`
}

// TaskStatusVO 定时任务状态
type TaskStatusVO struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
	Spec    string `json:"spec"`
	Running bool   `json:"running"`
}

// JobRunStatsRequest 执行统计查询
type JobRunStatsRequest struct {
	Job  string `form:"job"`
	Days int    `form:"days,default=7"`
}

// ==================== 融资邀约 ====================

// RecordRepaymentRequest 还款登记
type RecordRepaymentRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}
