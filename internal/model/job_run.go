package model

import (
	"time"

	"gorm.io/datatypes"
)

// JobRun 批处理任务执行记录
type JobRun struct {
	BaseModel

	// 任务信息
	Job     string `gorm:"size:32;index;comment:任务名(ranking/inventory/financing)"`
	Trigger string `gorm:"size:16;comment:触发方式(schedule/http)"`

	// 执行情况
	StartedAt  time.Time  `gorm:"index"`
	FinishedAt *time.Time
	DurationMs int64 `gorm:"comment:耗时(毫秒)"`

	// 结果
	Status   string         `gorm:"size:16;index;default:running"`
	Summary  datatypes.JSON `gorm:"type:jsonb;comment:结果摘要"`
	ErrorMsg string         `gorm:"size:1024"`
}

func (JobRun) TableName() string {
	return "job_runs"
}

// ==================== 任务常量 ====================

const (
	JobRanking   = "ranking"
	JobInventory = "inventory"
	JobFinancing = "financing"
)

const (
	JobTriggerSchedule = "schedule"
	JobTriggerHTTP     = "http"
)

const (
	JobStatusRunning = "running"
	JobStatusSuccess = "success"
	JobStatusFailed  = "failed"
)
