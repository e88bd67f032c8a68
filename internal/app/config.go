package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/focustube-backend/internal/data/db"
	focusrules "github.com/yungbote/focustube-backend/internal/modules/focus"
	"github.com/yungbote/focustube-backend/internal/platform/envutil"
	"github.com/yungbote/focustube-backend/internal/platform/logger"
	"github.com/yungbote/focustube-backend/internal/platform/openai"
	"github.com/yungbote/focustube-backend/internal/platform/redisx"
	"github.com/yungbote/focustube-backend/internal/services"
)

const (
	JudgeProviderOpenAI  = "openai"
	JudgeProviderLexical = "lexical"
)

type Config struct {
	Port    string
	LogMode string

	DB    db.Config
	Redis redisx.Config
	// TTL of hot-tier verdicts in Redis.
	DecisionCacheRedisTTL time.Duration

	JWTSecretKey   string
	AllowedOrigins []string

	JudgeProvider string
	OpenAI        openai.Config
	Judge         services.JudgeConfig

	Policy             focusrules.Policy
	CASMaxAttempts     int
	DefaultLocation    *time.Location
	MetricsAddr        string
	ServiceName        string
	ServiceEnvironment string
}

func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := Config{
		Port:    envutil.String("PORT", "8080"),
		LogMode: envutil.String("LOG_MODE", "development"),
		DB:      DBConfigFromEnv(),
		Redis: redisx.Config{
			Addr:     envutil.String("REDIS_ADDR", ""),
			Password: envutil.String("REDIS_PASSWORD", ""),
			DB:       envutil.Int("REDIS_DB", 0),
			Prefix:   envutil.String("REDIS_PREFIX", "focustube"),
		},
		DecisionCacheRedisTTL: envutil.Duration("DECISION_CACHE_REDIS_TTL", 24*time.Hour),
		JWTSecretKey:          envutil.String("JWT_SECRET_KEY", ""),
		AllowedOrigins:        envutil.List("CORS_ALLOWED_ORIGINS", nil),
		JudgeProvider:         strings.ToLower(envutil.String("JUDGE_PROVIDER", JudgeProviderOpenAI)),
		OpenAI:                OpenAIConfigFromEnv(),
		Judge: services.JudgeConfig{
			MaxRetries:     envutil.Int("JUDGE_MAX_RETRIES", 2),
			AttemptTimeout: envutil.Duration("JUDGE_ATTEMPT_TIMEOUT", 8*time.Second),
		},
		CASMaxAttempts:     envutil.Int("FOCUS_CAS_MAX_ATTEMPTS", 0),
		MetricsAddr:        envutil.String("METRICS_ADDR", ":9090"),
		ServiceName:        envutil.String("OTEL_SERVICE_NAME", "focustube-backend"),
		ServiceEnvironment: envutil.String("APP_ENV", "development"),
	}

	if cfg.JWTSecretKey == "" {
		return cfg, fmt.Errorf("JWT_SECRET_KEY is required")
	}

	switch cfg.JudgeProvider {
	case JudgeProviderOpenAI:
		if cfg.OpenAI.APIKey == "" {
			log.Warn("OPENAI_API_KEY not set; falling back to lexical judge")
			cfg.JudgeProvider = JudgeProviderLexical
		}
	case JudgeProviderLexical:
	default:
		return cfg, fmt.Errorf("unsupported JUDGE_PROVIDER %q", cfg.JudgeProvider)
	}
	cfg.Judge.Provider = cfg.JudgeProvider

	policy, err := focusrules.LoadPolicyFile(envutil.String("FOCUS_POLICY_FILE", ""))
	if err != nil {
		return cfg, err
	}
	cfg.Policy = policy

	tz := envutil.String("DEFAULT_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return cfg, fmt.Errorf("DEFAULT_TIMEZONE %q: %w", tz, err)
	}
	cfg.DefaultLocation = loc

	log.Info("Config loaded",
		"port", cfg.Port,
		"db_driver", cfg.DB.Driver,
		"redis", cfg.Redis.Addr != "",
		"judge_provider", cfg.JudgeProvider,
		"default_timezone", tz,
	)
	return cfg, nil
}

// DBConfigFromEnv reads the DB_DRIVER, POSTGRES_* and SQLITE_PATH variables.
func DBConfigFromEnv() db.Config {
	return db.Config{
		Driver:           envutil.String("DB_DRIVER", db.DriverPostgres),
		PostgresHost:     envutil.String("POSTGRES_HOST", "localhost"),
		PostgresPort:     envutil.String("POSTGRES_PORT", "5432"),
		PostgresUser:     envutil.String("POSTGRES_USER", "postgres"),
		PostgresPassword: envutil.String("POSTGRES_PASSWORD", ""),
		PostgresName:     envutil.String("POSTGRES_NAME", "focustube"),
		PostgresSSLMode:  envutil.String("POSTGRES_SSLMODE", "disable"),
		SQLitePath:       envutil.String("SQLITE_PATH", "focustube.db"),
		MaxOpenConns:     envutil.Int("POSTGRES_MAX_OPEN_CONNS", 20),
		MaxIdleConns:     envutil.Int("POSTGRES_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime:  envutil.Duration("POSTGRES_CONN_MAX_LIFETIME", 30*time.Minute),
	}
}

func OpenAIConfigFromEnv() openai.Config {
	cfg := openai.Config{
		APIKey:     envutil.String("OPENAI_API_KEY", ""),
		BaseURL:    envutil.String("OPENAI_BASE_URL", ""),
		Model:      envutil.String("OPENAI_MODEL", ""),
		Timeout:    envutil.Duration("OPENAI_TIMEOUT", 10*time.Second),
		MaxRetries: envutil.Int("OPENAI_MAX_RETRIES", 1),
	}
	if raw := envutil.String("OPENAI_TEMPERATURE", ""); raw != "" {
		t := envutil.Float("OPENAI_TEMPERATURE", 0)
		cfg.Temperature = &t
	}
	return cfg
}
