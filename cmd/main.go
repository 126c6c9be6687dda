package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"marketplace_engine_v1/internal/config"
	"marketplace_engine_v1/internal/controller"
	"marketplace_engine_v1/internal/logs"
	"marketplace_engine_v1/internal/middleware"
	"marketplace_engine_v1/internal/model"
	"marketplace_engine_v1/internal/repository"
	"marketplace_engine_v1/internal/router"
	"marketplace_engine_v1/internal/service"
	"marketplace_engine_v1/internal/task"
	"marketplace_engine_v1/pkg/database"
	"marketplace_engine_v1/pkg/utils"
)

func main() {
	// 0. 配置与日志
	cfg, err := config.Load(os.Getenv("ENGINE_CONFIG"))
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("加载配置失败")
	}
	logger := logs.New(cfg.Log)

	// 1. 初始化数据库
	db := initDatabase(cfg, logger)

	// 2. 初始化依赖
	deps := initDependencies(cfg, db, logger)

	// 3. 启动定时任务
	if err := deps.Tasks.Start(); err != nil {
		logger.Fatal().Err(err).Msg("定时任务启动失败")
	}

	// 4. 初始化路由
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(logs.Component(logger, "http")), middleware.Recovery(logger))
	router.InitRoutes(r, deps.Controller, router.Options{
		Auth: middleware.ServiceAuthConfig{
			Secret: cfg.Auth.ServiceSecret,
			Issuer: cfg.Auth.Issuer,
		},
		TriggerCooldown: cfg.Server.TriggerCooldown,
		Offers:          deps.Offers,
	})

	// 5. 启动服务
	startServer(cfg.Server, r, deps, logger)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB         *gorm.DB
	Repos      *Repositories
	Engine     *service.EngineService
	Tasks      *task.TaskManager
	Controller *controller.EngineController
	Offers     *controller.OfferController
}

// Repositories 仓库集合
type Repositories struct {
	Product      repository.ProductRepository
	Store        repository.StoreRepository
	Order        repository.OrderRepository
	Analytics    repository.AnalyticsRepository
	Risk         repository.RiskRepository
	Listing      repository.ListingRepository
	Reservation  repository.ReservationRepository
	Ranking      repository.RankingRepository
	Inventory    repository.InventoryRepository
	Financing    repository.FinancingRepository
	Notification repository.NotificationRepository
	JobRun       repository.JobRunRepository
}

// ==================== 初始化函数 ====================

// initDatabase 初始化数据库
func initDatabase(cfg *config.Config, logger zerolog.Logger) *gorm.DB {
	var models []interface{}
	if cfg.Database.AutoMigrate {
		models = model.EngineModels()
	}

	db, err := database.InitDB(database.Options{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		LogLevel:     cfg.Database.LogLevel,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	}, models...)
	if err != nil {
		logger.Fatal().Err(err).Msg("数据库初始化失败")
	}

	logger.Info().
		Str("driver", cfg.Database.Driver).
		Bool("auto_migrate", cfg.Database.AutoMigrate).
		Msg("数据库连接成功")
	return db
}

// initDependencies 初始化所有依赖
func initDependencies(cfg *config.Config, db *gorm.DB, logger zerolog.Logger) *Dependencies {
	// -------- Repo 层 --------
	repos := initRepositories(db)

	// -------- 基础服务 --------
	gate := service.NewNotificationGate(repos.Notification, cfg.Engine.DedupWindow, logger)
	runs := service.NewJobRunService(repos.JobRun, logger)
	releaser := initReleaser(cfg.InventoryLock, repos, logger)

	// -------- 评分服务 --------
	ranking := service.NewRankingService(
		repos.Product, repos.Order, repos.Analytics, repos.Risk, repos.Ranking,
		gate, cfg.Engine.ProductChunkSize, logger,
	)
	inventory := service.NewInventoryService(
		repos.Product, repos.Order, repos.Inventory, repos.Listing,
		releaser, ranking, gate, cfg.Engine.ProductChunkSize, logger,
	)
	financing := service.NewFinancingService(
		repos.Store, repos.Order, repos.Risk, repos.Financing,
		gate, cfg.Engine.StoreChunkSize, logger,
	)
	engine := service.NewEngineService(ranking, inventory, financing, runs)

	// -------- 定时任务 --------
	tasks := task.NewTaskManager(engine, &task.TaskManagerConfig{
		Enabled:       cfg.Scheduler.Enabled,
		RunOnStart:    cfg.Scheduler.RunOnStart,
		RankingSpec:   cfg.Scheduler.RankingSpec,
		InventorySpec: cfg.Scheduler.InventorySpec,
		FinancingSpec: cfg.Scheduler.FinancingSpec,
		JobTimeout:    cfg.Scheduler.JobTimeout,
	}, logger)

	// -------- Controller 层 --------
	ctl := controller.NewEngineController(engine, tasks, pingDB(db), logger)
	offerCtl := controller.NewOfferController(financing, logger)

	return &Dependencies{
		DB:         db,
		Repos:      repos,
		Engine:     engine,
		Tasks:      tasks,
		Controller: ctl,
		Offers:     offerCtl,
	}
}

// initRepositories 初始化所有仓库
func initRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Product:      repository.NewProductRepository(db),
		Store:        repository.NewStoreRepository(db),
		Order:        repository.NewOrderRepository(db),
		Analytics:    repository.NewAnalyticsRepository(db),
		Risk:         repository.NewRiskRepository(db),
		Listing:      repository.NewListingRepository(db),
		Reservation:  repository.NewReservationRepository(db),
		Ranking:      repository.NewRankingRepository(db),
		Inventory:    repository.NewInventoryRepository(db),
		Financing:    repository.NewFinancingRepository(db),
		Notification: repository.NewNotificationRepository(db),
		JobRun:       repository.NewJobRunRepository(db),
	}
}

// initReleaser 配置了外部库存锁服务时走 HTTP，否则直接改库
func initReleaser(cfg config.InventoryLockConfig, repos *Repositories, logger zerolog.Logger) service.ReservationReleaser {
	if cfg.URL == "" {
		return repos.Reservation
	}

	logger.Info().Str("url", cfg.URL).Msg("使用外部库存锁服务释放过期预占")
	return service.NewHTTPReservationReleaser(utils.NewClient(utils.ClientOptions{
		BaseURL:    cfg.URL,
		APIKey:     cfg.APIKey,
		Timeout:    cfg.Timeout,
		RetryCount: cfg.RetryCount,
	}))
}

func pingDB(db *gorm.DB) controller.HealthChecker {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

// ==================== 服务启动 ====================

// startServer 启动服务
func startServer(cfg config.ServerConfig, r *gin.Engine, deps *Dependencies, logger zerolog.Logger) {
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	// 异步启动服务
	go func() {
		logger.Info().Str("port", cfg.Port).Msg("服务启动")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("服务启动失败")
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("正在关闭服务...")

	// 优雅关闭
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("服务强制关闭")
	}

	// 等待执行中的计算结束
	deps.Tasks.Stop()

	if sqlDB, err := deps.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Info().Msg("服务已退出")
}
