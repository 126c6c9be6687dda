package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 引擎全局配置
// 优先级：环境变量(ENGINE_*) > 配置文件 > 默认值
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Log           LogConfig           `mapstructure:"log"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Engine        EngineConfig        `mapstructure:"engine"`
	Scheduler     SchedulerConfig     `mapstructure:"scheduler"`
	InventoryLock InventoryLockConfig `mapstructure:"inventory_lock"`
}

// ServerConfig HTTP 服务
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // gin 模式: debug/release/test
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	TriggerCooldown time.Duration `mapstructure:"trigger_cooldown"` // 后台任务手动触发冷却时间，0 表示不限
}

// DatabaseConfig 数据库
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // postgres / sqlite
	DSN          string `mapstructure:"dsn"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	LogLevel     string `mapstructure:"log_level"` // silent/error/warn/info
}

// LogConfig 日志
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json / console
	File   string `mapstructure:"file"`   // 额外写入的日志文件，可空
}

// AuthConfig 调用方鉴权
// 调度器/平台以 HS256 服务令牌调用，密钥为空时不校验
type AuthConfig struct {
	ServiceSecret string `mapstructure:"service_secret"`
	Issuer        string `mapstructure:"issuer"`
}

// EngineConfig 评分引擎参数
type EngineConfig struct {
	ProductChunkSize int           `mapstructure:"product_chunk_size"`
	StoreChunkSize   int           `mapstructure:"store_chunk_size"`
	DedupWindow      time.Duration `mapstructure:"dedup_window"`
}

// SchedulerConfig 定时任务
type SchedulerConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	RunOnStart    bool          `mapstructure:"run_on_start"`
	RankingSpec   string        `mapstructure:"ranking_spec"`
	InventorySpec string        `mapstructure:"inventory_spec"`
	FinancingSpec string        `mapstructure:"financing_spec"`
	JobTimeout    time.Duration `mapstructure:"job_timeout"`
}

// InventoryLockConfig 外部库存锁服务
// URL 为空时直接在数据库中释放过期预留
type InventoryLockConfig struct {
	URL        string        `mapstructure:"url"`
	APIKey     string        `mapstructure:"api_key"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RetryCount int           `mapstructure:"retry_count"`
}

// ==================== 加载 ====================

// Load 读取配置，path 为空时只使用默认值与环境变量
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("ENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验必要字段
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("不支持的数据库驱动: %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn 不能为空")
	}
	if c.Engine.ProductChunkSize <= 0 || c.Engine.StoreChunkSize <= 0 {
		return fmt.Errorf("engine 分批大小必须为正数")
	}
	if c.Engine.DedupWindow <= 0 {
		return fmt.Errorf("engine.dedup_window 必须为正数")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.trigger_cooldown", time.Duration(0))

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "host=localhost user=engine password=engine dbname=marketplace port=5432 sslmode=disable")
	v.SetDefault("database.auto_migrate", false)
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")

	v.SetDefault("auth.service_secret", "")
	v.SetDefault("auth.issuer", "marketplace-platform")

	v.SetDefault("engine.product_chunk_size", 200)
	v.SetDefault("engine.store_chunk_size", 100)
	v.SetDefault("engine.dedup_window", 24*time.Hour)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.run_on_start", false)
	v.SetDefault("scheduler.ranking_spec", "0 0 */6 * * *")
	v.SetDefault("scheduler.inventory_spec", "0 30 * * * *")
	v.SetDefault("scheduler.financing_spec", "0 0 3 * * *")
	v.SetDefault("scheduler.job_timeout", 30*time.Minute)

	v.SetDefault("inventory_lock.url", "")
	v.SetDefault("inventory_lock.api_key", "")
	v.SetDefault("inventory_lock.timeout", 10*time.Second)
	v.SetDefault("inventory_lock.retry_count", 2)
}
