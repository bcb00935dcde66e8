package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the namespace shared by every environment variable.
const EnvPrefix = "ECOMBOT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	AuthRateLimit AuthRateLimitConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	OpenAI        OpenAIConfig
	Chat          ChatConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ECOMBOT_APP_ENV" required:"true"`
	Port         string `envconfig:"ECOMBOT_APP_PORT" default:"8000"`
	LogLevel     string `envconfig:"ECOMBOT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ECOMBOT_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"ECOMBOT_CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// AuthRateLimitConfig throttles credential-bearing endpoints.
type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"ECOMBOT_AUTH_RL_LOGIN_WINDOW" default:"1m"`
	LoginIPLimit    int           `envconfig:"ECOMBOT_AUTH_RL_LOGIN_IP_LIMIT" default:"20"`
	LoginEmailLimit int           `envconfig:"ECOMBOT_AUTH_RL_LOGIN_EMAIL_LIMIT" default:"5"`

	RegisterWindow     time.Duration `envconfig:"ECOMBOT_AUTH_RL_REGISTER_WINDOW" default:"10m"`
	RegisterIPLimit    int           `envconfig:"ECOMBOT_AUTH_RL_REGISTER_IP_LIMIT" default:"10"`
	RegisterEmailLimit int           `envconfig:"ECOMBOT_AUTH_RL_REGISTER_EMAIL_LIMIT" default:"3"`
}

type DBConfig struct {
	DSN string `envconfig:"ECOMBOT_DB_DSN"`

	Host     string `envconfig:"ECOMBOT_DB_HOST"`
	Port     int    `envconfig:"ECOMBOT_DB_PORT" default:"5432"`
	User     string `envconfig:"ECOMBOT_DB_USER"`
	Password string `envconfig:"ECOMBOT_DB_PASSWORD"`
	Name     string `envconfig:"ECOMBOT_DB_NAME"`
	SSLMode  string `envconfig:"ECOMBOT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ECOMBOT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ECOMBOT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ECOMBOT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ECOMBOT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ECOMBOT_REDIS_URL"`
	Address      string        `envconfig:"ECOMBOT_REDIS_ADDR"`
	Password     string        `envconfig:"ECOMBOT_REDIS_PASSWORD"`
	DB           int           `envconfig:"ECOMBOT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ECOMBOT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ECOMBOT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ECOMBOT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ECOMBOT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ECOMBOT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"ECOMBOT_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"ECOMBOT_JWT_ISSUER" default:"ecommerce-chatbot"`
	ExpirationMinutes      int    `envconfig:"ECOMBOT_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"ECOMBOT_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ECOMBOT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ECOMBOT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ECOMBOT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ECOMBOT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ECOMBOT_ARGON_KEY_LEN" default:"32"`
}

// OpenAIConfig points the chat relay at an OpenAI-compatible inference API.
type OpenAIConfig struct {
	APIKey  string `envconfig:"ECOMBOT_OPENAI_API_KEY"`
	BaseURL string `envconfig:"ECOMBOT_OPENAI_BASE_URL" default:"https://models.github.ai/inference"`
	Model   string `envconfig:"ECOMBOT_OPENAI_MODEL" default:"openai/gpt-4.1"`
}

// ChatConfig tunes the relay's history cache and call deadlines.
type ChatConfig struct {
	SystemPrompt      string        `envconfig:"ECOMBOT_CHAT_SYSTEM_PROMPT" default:"You are a helpful e-commerce shopping assistant."`
	HistoryTTL        time.Duration `envconfig:"ECOMBOT_CHAT_HISTORY_TTL" default:"24h"`
	HistoryMaxTurns   int           `envconfig:"ECOMBOT_CHAT_HISTORY_MAX_TURNS" default:"100"`
	CompletionTimeout time.Duration `envconfig:"ECOMBOT_CHAT_COMPLETION_TIMEOUT" default:"60s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ECOMBOT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ECOMBOT_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	for _, pair := range []struct {
		env   string
		value string
	}{
		{"ECOMBOT_DB_HOST", db.Host},
		{"ECOMBOT_DB_USER", db.User},
		{"ECOMBOT_DB_NAME", db.Name},
	} {
		if pair.value == "" {
			missing = append(missing, pair.env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either ECOMBOT_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
