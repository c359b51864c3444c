package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Redis       RedisConfig
	Tracing     TracingConfig     `mapstructure:"tracing"`
	CORS        CORSConfig        `mapstructure:"cors"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Rewards     RewardsConfig     `mapstructure:"rewards"`
	Leaderboard LeaderboardConfig `mapstructure:"leaderboard"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool `mapstructure:"-"` // 强制执行数据库迁移
	MigrateOnly  bool `mapstructure:"-"` // 仅迁移模式（迁移后退出）
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

// RewardsConfig 训练完成时基础积分的计算参数
// 引擎本身不关心积分怎么算，由请求侧按这里的参数算好再传入
type RewardsConfig struct {
	PointsPerWorkout     int `mapstructure:"points_per_workout"`
	PointsPerExercise    int `mapstructure:"points_per_exercise"`
	DurationBonusAfter   int `mapstructure:"duration_bonus_after_minutes"`
	DurationBonusPerStep int `mapstructure:"duration_bonus_per_step"`
	DurationBonusStep    int `mapstructure:"duration_bonus_step_minutes"`
}

type LeaderboardConfig struct {
	Size            int    `mapstructure:"size"`
	CacheTTLMinutes int    `mapstructure:"cache_ttl_minutes"`
	RefreshCron     string `mapstructure:"refresh_cron"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("FITCOACH")
	viper.AutomaticEnv()

	// Database
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	viper.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	viper.BindEnv("server.mode", "SERVER_MODE")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour

	// 生产环境校验 JWT Secret 强度
	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	cfg.Rewards.applyDefaults()
	cfg.Leaderboard.applyDefaults()

	return &cfg, nil
}

func (r *RewardsConfig) applyDefaults() {
	if r.PointsPerWorkout <= 0 {
		r.PointsPerWorkout = 50
	}
	if r.DurationBonusAfter <= 0 {
		r.DurationBonusAfter = 30
	}
	if r.DurationBonusStep <= 0 {
		r.DurationBonusStep = 5
	}
	if r.DurationBonusPerStep <= 0 {
		r.DurationBonusPerStep = 1
	}
}

func (l *LeaderboardConfig) applyDefaults() {
	if l.Size <= 0 {
		l.Size = 10
	}
	if l.CacheTTLMinutes <= 0 {
		l.CacheTTLMinutes = 5
	}
	if l.RefreshCron == "" {
		l.RefreshCron = "0 4 * * *"
	}
}
