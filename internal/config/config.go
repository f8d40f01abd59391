package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"logLevel"`
	Server      struct {
		Port            int           `mapstructure:"port"`
		Path            string        `mapstructure:"path"`
		ReadTimeout     time.Duration `mapstructure:"readTimeout"`
		WriteTimeout    time.Duration `mapstructure:"writeTimeout"`
		MaxBodyBytes    int64         `mapstructure:"maxBodyBytes"`
		ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`
		TrustedProxies  []string      `mapstructure:"trustedProxies"` // forwarded-for headers are honoured only from these
	} `mapstructure:"server"`
	Health struct {
		Port int `mapstructure:"port"`
	} `mapstructure:"health"`
	Database struct {
		PostgresDSN         string `mapstructure:"postgresDSN"`
		PostgresAutoMigrate bool   `mapstructure:"postgresAutoMigrate"`
	} `mapstructure:"database"`
	DNS struct {
		// RequiredARecord is the IP customers must point their domain at.
		RequiredARecord string `mapstructure:"requiredARecord"`
	} `mapstructure:"dns"`
	Upstream    UpstreamConfig  `mapstructure:"upstream"`
	CMS         CMSConfig       `mapstructure:"cms"`
	Admin       AdminConfig     `mapstructure:"admin"`
	CORS        CORSConfig      `mapstructure:"cors"`
	RateLimit   RateLimitConfig `mapstructure:"rateLimit"`
	Gateway     GatewayConfig   `mapstructure:"gateway"`
	Idempotency struct {
		ExpectedSubmissions uint    `mapstructure:"expectedSubmissions"`
		FalsePositiveRate   float64 `mapstructure:"falsePositiveRate"`
	} `mapstructure:"idempotency"`
	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"metrics"`
	WorkerPools struct {
		Conversion WorkerPoolConfig `mapstructure:"conversion"`
	} `mapstructure:"workerPools"`
}

// UpstreamConfig holds the outbound relay targets and their credentials.
type UpstreamConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	Siterelic struct {
		URL    string `mapstructure:"url"`
		APIKey string `mapstructure:"apiKey"`
	} `mapstructure:"siterelic"`
	Jenkins struct {
		URL      string `mapstructure:"url"`
		Username string `mapstructure:"username"`
		Token    string `mapstructure:"token"`
	} `mapstructure:"jenkins"`
	GoogleDNS struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"googleDNS"`
}

// CMSConfig holds values displayed on the onboarding completion screen.
type CMSConfig struct {
	Password string `mapstructure:"password"`
}

// AdminConfig controls authentication for the admin-only services.
type AdminConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Username     string        `mapstructure:"username"`
	PasswordHash string        `mapstructure:"passwordHash"` // bcrypt hash
	TokenTTL     time.Duration `mapstructure:"tokenTTL"`
}

// CORSConfig holds the allowed origins for the proxy endpoint.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

// RateLimitConfig holds the per-client token bucket settings.
type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"`
	Burst   int     `mapstructure:"burst"`
}

// GatewayConfig configures the client-side remote service gateway.
type GatewayConfig struct {
	BaseURL       string        `mapstructure:"baseURL"`
	Timeout       time.Duration `mapstructure:"timeout"`
	FallbackDelay time.Duration `mapstructure:"fallbackDelay"` // artificial delay of the local field check
}

// WorkerPoolConfig holds configuration for an ants worker pool
type WorkerPoolConfig struct {
	PoolSize    int           `mapstructure:"poolSize"`   // Number of workers
	QueueSize   int           `mapstructure:"queueSize"`  // Max blocking tasks
	ExpiryTime  time.Duration `mapstructure:"expiryTime"` // Idle worker expiry time
	TaskTimeout time.Duration `mapstructure:"taskTimeout"`
}

// LoadConfig reads configuration from file or environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("environment", "development")
	v.SetDefault("logLevel", "info")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.path", "/proxy")
	v.SetDefault("server.readTimeout", 15*time.Second)
	v.SetDefault("server.writeTimeout", 30*time.Second)
	v.SetDefault("server.maxBodyBytes", 1<<20)
	v.SetDefault("server.shutdownTimeout", 30*time.Second)
	v.SetDefault("server.trustedProxies", []string{})
	v.SetDefault("health.port", 2112)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("database.postgresAutoMigrate", true)

	v.SetDefault("upstream.timeout", 15*time.Second)
	v.SetDefault("upstream.googleDNS.url", "https://dns.google/resolve")

	v.SetDefault("admin.enabled", true)
	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.tokenTTL", 8*time.Hour)

	v.SetDefault("cors.allowedOrigins", []string{"*"})

	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.rps", 5)
	v.SetDefault("rateLimit.burst", 20)

	v.SetDefault("gateway.baseURL", "http://localhost:8080/proxy")
	v.SetDefault("gateway.timeout", 30*time.Second)
	v.SetDefault("gateway.fallbackDelay", 500*time.Millisecond)

	v.SetDefault("idempotency.expectedSubmissions", 100000)
	v.SetDefault("idempotency.falsePositiveRate", 0.01)

	v.SetDefault("workerPools.conversion.poolSize", 8)
	v.SetDefault("workerPools.conversion.queueSize", 1000)
	v.SetDefault("workerPools.conversion.expiryTime", time.Minute)
	v.SetDefault("workerPools.conversion.taskTimeout", 10*time.Second)

	v.SetConfigName("default")
	v.SetConfigType("yaml")

	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath("$HOME/.lead-onboarding-gateway")
	v.AddConfigPath("/etc/lead-onboarding-gateway")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvs(v, Config{})

	// Secrets and deployment specific values are read directly from well known names.
	directEnv := map[string]string{
		"POSTGRES_DSN":        "database.postgresDSN",
		"LOG_LEVEL":           "logLevel",
		"REQUIRED_A_RECORD":   "dns.requiredARecord",
		"SITERELIC_URL":       "upstream.siterelic.url",
		"SITERELIC_API_KEY":   "upstream.siterelic.apiKey",
		"JENKINS_URL":         "upstream.jenkins.url",
		"JENKINS_USERNAME":    "upstream.jenkins.username",
		"JENKINS_TOKEN":       "upstream.jenkins.token",
		"CMS_PASSWORD":        "cms.password",
		"ADMIN_PASSWORD_HASH": "admin.passwordHash",
		"PROXY_API_URL":       "gateway.baseURL",
	}
	for env, key := range directEnv {
		if val := os.Getenv(env); val != "" {
			v.Set(key, val)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	return &config, nil
}

// Validate checks the values the server cannot run without.
func (c *Config) Validate() error {
	var missing []string
	if c.Database.PostgresDSN == "" {
		missing = append(missing, "database.postgresDSN")
	}
	if c.DNS.RequiredARecord == "" {
		missing = append(missing, "dns.requiredARecord")
	}
	if c.Admin.Enabled && c.Admin.PasswordHash == "" {
		missing = append(missing, "admin.passwordHash")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// bindEnvs recursively binds environment variables to config struct fields
func bindEnvs(v *viper.Viper, cfg interface{}, parts ...string) {
	ifv := reflect.ValueOf(cfg)
	ift := reflect.TypeOf(cfg)
	for i := 0; i < ift.NumField(); i++ {
		fieldVal := ifv.Field(i)
		fieldType := ift.Field(i)

		tag := fieldType.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}

		path := append(append([]string{}, parts...), tag)
		key := strings.Join(path, ".")

		if fieldType.Type.Kind() == reflect.Struct {
			bindEnvs(v, fieldVal.Interface(), path...)
			continue
		}

		_ = v.BindEnv(key)
	}
}
