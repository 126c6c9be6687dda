package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"marketplace_engine_v1/internal/controller"
	"marketplace_engine_v1/internal/middleware"
)

// Options 路由级中间件参数
type Options struct {
	Auth            middleware.ServiceAuthConfig
	TriggerCooldown time.Duration // 后台任务手动触发冷却，0 不限
	Limiter         *middleware.TriggerLimiter
	Offers          *controller.OfferController // 为空时不注册邀约接口
}

// InitRoutes 注册所有路由
func InitRoutes(r *gin.Engine, engineCtl *controller.EngineController, opts Options) {
	if opts.Limiter == nil {
		opts.Limiter = middleware.NewTriggerLimiter()
	}

	// GET /healthz 无需鉴权
	r.GET("/healthz", engineCtl.Healthz)

	auth := middleware.ServiceAuth(opts.Auth)

	// 1. 评分函数，由调度器/平台调用，同步返回，不做冷却
	fn := r.Group("/functions/v1", auth)
	{
		// POST /functions/v1/calculate-rankings
		fn.POST("/calculate-rankings", engineCtl.CalculateRankings)
		// POST /functions/v1/calculate-inventory
		fn.POST("/calculate-inventory", engineCtl.CalculateInventory)
		// POST /functions/v1/calculate-financing
		fn.POST("/calculate-financing", engineCtl.CalculateFinancing)
	}

	// 2. 运维接口
	api := r.Group("/api/engine", auth)
	{
		runs := api.Group("/runs")
		{
			runs.GET("", engineCtl.ListRuns)
			runs.GET("/stats", engineCtl.RunStats)
		}
		tasks := api.Group("/tasks")
		{
			tasks.GET("", engineCtl.ListTasks)
			tasks.POST("/:name/run", middleware.TriggerCooldown(opts.Limiter, opts.TriggerCooldown), engineCtl.TriggerTask)
		}
		if opts.Offers != nil {
			// 平台放款、还款回调
			offers := api.Group("/offers")
			{
				offers.POST("/:id/activate", opts.Offers.Activate)
				offers.POST("/:id/repayments", opts.Offers.RecordRepayment)
			}
		}
	}
}
