package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Server        ServerConfig              `mapstructure:"http_server"`
	Database      DatabaseConfig            `mapstructure:"database"`
	Redis         RedisConfig               `mapstructure:"redis"`
	Storage       StorageConfig             `mapstructure:"storage"`
	Security      SecurityConfig            `mapstructure:"security" validate:"required"`
	Auth          AuthConfig                `mapstructure:"auth"`
	Services      map[string]UpstreamConfig `mapstructure:"services" validate:"dive"`
	Permissions   PermissionsConfig         `mapstructure:"permissions"`
	Usage         UsageConfig               `mapstructure:"usage"`
	Observability ObservabilityConfig       `mapstructure:"observability"`
}

type ServerConfig struct {
	Env               string        `mapstructure:"env"`
	Port              int           `mapstructure:"port" validate:"required,min=1,max=65535"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	OpenAPIPath       string        `mapstructure:"openapi_path"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Source          string        `mapstructure:"source"`
}

type RedisConfig struct {
	URL        string `mapstructure:"url"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	PoolSize   int    `mapstructure:"pool_size"`
	MaxRetries int    `mapstructure:"max_retries"`
}

// StorageConfig selects where sessions and store snapshots are persisted.
type StorageConfig struct {
	Backend    string `mapstructure:"backend" validate:"required,oneof=memory redis postgres"`
	MemorySize int    `mapstructure:"memory_size"`
	KeyPrefix  string `mapstructure:"key_prefix"`
	// SeedDemo preloads the demo firms' processes and users into empty tenants.
	SeedDemo bool `mapstructure:"seed_demo"`
}

type SecurityConfig struct {
	SessionSecret string        `mapstructure:"session_secret" validate:"required,min=32"`
	SessionTTL    time.Duration `mapstructure:"session_ttl" validate:"required"`
	CookieName    string        `mapstructure:"cookie_name"`
	BCryptCost    int           `mapstructure:"bcrypt_cost"`
}

type AuthConfig struct {
	// Mode is "upstream" (delegate to the auth service) or "local" (seeded accounts).
	Mode string `mapstructure:"mode" validate:"required,oneof=upstream local"`
}

type UpstreamConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type PermissionsConfig struct {
	PolicyFile   string `mapstructure:"policy_file"`
	LandingRoute string `mapstructure:"landing_route"`
	LoginRoute   string `mapstructure:"login_route"`
}

type UsageConfig struct {
	DailyResetSchedule   string `mapstructure:"daily_reset_schedule"`
	MonthlyResetSchedule string `mapstructure:"monthly_reset_schedule"`
}

type ObservabilityConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=json text"`
}

// DefaultServices lists the upstream microservices and their local dev ports.
func DefaultServices() map[string]UpstreamConfig {
	return map[string]UpstreamConfig{
		"auth":         {BaseURL: "http://localhost:8081", Timeout: 30 * time.Second},
		"tenant":       {BaseURL: "http://localhost:8082", Timeout: 30 * time.Second},
		"process":      {BaseURL: "http://localhost:8083", Timeout: 30 * time.Second},
		"notification": {BaseURL: "http://localhost:8085", Timeout: 30 * time.Second},
		"search":       {BaseURL: "http://localhost:8086", Timeout: 30 * time.Second},
		"report":       {BaseURL: "http://localhost:8087", Timeout: 60 * time.Second},
		"ai":           {BaseURL: "http://localhost:8000", Timeout: 60 * time.Second},
	}
}

// ApplyDefaults fills optional fields left empty by the config source.
func (c *Config) ApplyDefaults() {
	if c.Server.Env == "" {
		c.Server.Env = "development"
	}
	if c.Server.OpenAPIPath == "" {
		c.Server.OpenAPIPath = "./api/openapi.yml"
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "memory"
	}
	if c.Storage.MemorySize <= 0 {
		c.Storage.MemorySize = 10000
	}
	if c.Security.SessionTTL <= 0 {
		c.Security.SessionTTL = 24 * time.Hour
	}
	if c.Security.CookieName == "" {
		c.Security.CookieName = "session"
	}
	if c.Auth.Mode == "" {
		c.Auth.Mode = "upstream"
	}
	if c.Permissions.LandingRoute == "" {
		c.Permissions.LandingRoute = "/dashboard"
	}
	if c.Permissions.LoginRoute == "" {
		c.Permissions.LoginRoute = "/login"
	}
	if c.Usage.DailyResetSchedule == "" {
		c.Usage.DailyResetSchedule = "0 0 * * *"
	}
	if c.Usage.MonthlyResetSchedule == "" {
		c.Usage.MonthlyResetSchedule = "0 0 1 * *"
	}
	if c.Observability.Metrics.Enabled && c.Observability.Metrics.Path == "" {
		c.Observability.Metrics.Path = "/metrics"
	}
	defaults := DefaultServices()
	if c.Services == nil {
		c.Services = map[string]UpstreamConfig{}
	}
	for name, svc := range defaults {
		cur, ok := c.Services[name]
		if !ok || cur.BaseURL == "" {
			c.Services[name] = svc
			continue
		}
		if cur.Timeout <= 0 {
			cur.Timeout = svc.Timeout
			c.Services[name] = cur
		}
	}
}

// LoadConfigFromEnv builds the configuration from environment variables only,
// for container deployments without a config file.
func LoadConfigFromEnv() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Env:               getEnv("APP_ENV", "production"),
			Port:              getEnvAsInt("PORT", 8080),
			BaseURL:           getEnv("BASE_URL", ""),
			AllowedOrigins:    getEnv("ALLOWED_ORIGINS", "*"),
			OpenAPIPath:       getEnv("OPENAPI_PATH", ""),
			ReadHeaderTimeout: getEnvAsDuration("READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getEnvAsDuration("READ_TIMEOUT", 15*time.Second),
			IdleTimeout:       getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
			WriteTimeout:      getEnvAsDuration("WRITE_TIMEOUT", 75*time.Second),
		},
		Database: DatabaseConfig{
			Source:          getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:        getEnv("REDIS_URL", ""),
			Password:   getEnv("REDIS_PASSWORD", ""),
			DB:         getEnvAsInt("REDIS_DB", 0),
			PoolSize:   getEnvAsInt("REDIS_POOL_SIZE", 10),
			MaxRetries: getEnvAsInt("REDIS_MAX_RETRIES", 3),
		},
		Storage: StorageConfig{
			Backend:    getEnv("STORAGE_BACKEND", "redis"),
			MemorySize: getEnvAsInt("STORAGE_MEMORY_SIZE", 10000),
			KeyPrefix:  getEnv("STORAGE_KEY_PREFIX", ""),
			SeedDemo:   getEnv("STORAGE_SEED_DEMO", "false") == "true",
		},
		Security: SecurityConfig{
			SessionSecret: getEnv("SESSION_SECRET", ""),
			SessionTTL:    getEnvAsDuration("SESSION_TTL", 24*time.Hour),
			CookieName:    getEnv("SESSION_COOKIE_NAME", "session"),
			BCryptCost:    getEnvAsInt("BCRYPT_COST", 12),
		},
		Auth: AuthConfig{
			Mode: getEnv("AUTH_MODE", "upstream"),
		},
		Permissions: PermissionsConfig{
			PolicyFile:   getEnv("PERMISSIONS_POLICY_FILE", ""),
			LandingRoute: getEnv("LANDING_ROUTE", "/dashboard"),
			LoginRoute:   getEnv("LOGIN_ROUTE", "/login"),
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: getEnv("METRICS_ENABLED", "true") == "true",
				Path:    getEnv("METRICS_PATH", "/metrics"),
			},
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "json"),
			},
		},
		Services: map[string]UpstreamConfig{},
	}

	for name, svc := range DefaultServices() {
		envName := strings.ToUpper(name) + "_SERVICE_URL"
		cfg.Services[name] = UpstreamConfig{
			BaseURL: getEnv(envName, svc.BaseURL),
			Timeout: svc.Timeout,
		}
	}

	cfg.ApplyDefaults()
	return cfg
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

// ----------------- VALIDATION -----------------

var configValidator = validator.New(validator.WithRequiredStructEnabled())

func (c *Config) Validate() error {
	var errs []string

	if err := configValidator.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				errs = append(errs, fmt.Sprintf("%s failed on %s", fe.Namespace(), fe.Tag()))
			}
		} else {
			errs = append(errs, err.Error())
		}
	}

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Storage.Validate(c); err != nil {
		errs = append(errs, fmt.Sprintf("storage config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *StorageConfig) Validate(cfg *Config) error {
	switch c.Backend {
	case "redis":
		if cfg.Redis.URL == "" {
			return errors.New("redis.url is required for the redis backend")
		}
	case "postgres":
		if cfg.Database.Source == "" {
			return errors.New("database.source is required for the postgres backend")
		}
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

// AllowedOriginList splits the comma separated origins setting.
func (c *ServerConfig) AllowedOriginList() []string {
	if c.AllowedOrigins == "" {
		return nil
	}
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
