package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Paystack     PaystackConfig
	Verification VerificationConfig
	Catalog      CatalogConfig
	Kafka        KafkaConfig
	Telemetry    TelemetryConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig is optional; an empty DSN disables the verification audit trail.
type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type PaystackConfig struct {
	Mode         string // live or stub
	StubFixtures string
	BaseURL      string
	SecretKey    string
	Timeout      time.Duration
	MaxTries     uint
	RetryDelay   time.Duration
}

// Budget is the longest a verification call can take: every attempt timing out
// plus the pauses between them.
func (p PaystackConfig) Budget() time.Duration {
	tries := p.MaxTries
	if tries == 0 {
		tries = 1
	}
	return time.Duration(tries)*p.Timeout + time.Duration(tries-1)*p.RetryDelay
}

type VerificationConfig struct {
	// AllowClientCart accepts the request's cart when transaction metadata has none.
	// Results produced this way carry usedFallback=true.
	AllowClientCart bool
}

type CatalogConfig struct {
	File  string
	Items map[string][]string
}

// KafkaConfig is optional; no brokers means fulfillment events are not published.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type TelemetryConfig struct {
	ServiceName  string
	OTLPEndpoint string
	LogLevel     string
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

type CORSConfig struct {
	AllowOrigins []string
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("paystack.mode", "live")
	v.SetDefault("paystack.stub_fixtures", "")
	v.SetDefault("paystack.base_url", "https://api.paystack.co")
	v.SetDefault("paystack.secret", "")
	v.SetDefault("paystack.timeout", 10*time.Second)
	v.SetDefault("paystack.max_tries", 2)
	v.SetDefault("paystack.retry_delay", 500*time.Millisecond)

	v.SetDefault("verification.allow_client_cart", true)

	v.SetDefault("catalog.file", "")

	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.topic", "storefront.fulfillments")

	v.SetDefault("telemetry.service_name", "storefront-verify")
	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.log_level", "info")

	v.SetDefault("ratelimit.requests", 30)
	v.SetDefault("ratelimit.window", time.Minute)

	v.SetDefault("cors.allow_origins", "*")
}

// New returns a viper instance reading defaults, an optional config file and the environment.
// Nested keys map to upper-case env vars with dots replaced, e.g. paystack.secret -> PAYSTACK_SECRET.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("server.port", "PORT", "SERVER_PORT")
	_ = v.BindEnv("server.env", "APP_ENV", "SERVER_ENV")
	_ = v.BindEnv("database.dsn", "DATABASE_DSN", "DATABASE_URL")
	_ = v.BindEnv("catalog.file", "CATALOG_FILE")
	_ = v.BindEnv("telemetry.otlp_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT", "TELEMETRY_OTLP_ENDPOINT")
	_ = v.BindEnv("telemetry.service_name", "OTEL_SERVICE_NAME", "TELEMETRY_SERVICE_NAME")
	return v
}

// Load reads configuration from config.yaml (if present, or CONFIG_FILE) and the environment.
func Load() (*Config, error) {
	v := New()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("server.port"),
			Env:          v.GetString("server.env"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
		},
		Database: DatabaseConfig{
			DSN:             v.GetString("database.dsn"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
		},
		Paystack: PaystackConfig{
			Mode:         strings.ToLower(v.GetString("paystack.mode")),
			StubFixtures: v.GetString("paystack.stub_fixtures"),
			BaseURL:      strings.TrimRight(v.GetString("paystack.base_url"), "/"),
			SecretKey:    v.GetString("paystack.secret"),
			Timeout:      v.GetDuration("paystack.timeout"),
			MaxTries:     v.GetUint("paystack.max_tries"),
			RetryDelay:   v.GetDuration("paystack.retry_delay"),
		},
		Verification: VerificationConfig{
			AllowClientCart: v.GetBool("verification.allow_client_cart"),
		},
		Catalog: CatalogConfig{
			File:  v.GetString("catalog.file"),
			Items: v.GetStringMapStringSlice("catalog.items"),
		},
		Kafka: KafkaConfig{
			Brokers: stringList(v, "kafka.brokers"),
			Topic:   v.GetString("kafka.topic"),
		},
		Telemetry: TelemetryConfig{
			ServiceName:  v.GetString("telemetry.service_name"),
			OTLPEndpoint: v.GetString("telemetry.otlp_endpoint"),
			LogLevel:     v.GetString("telemetry.log_level"),
		},
		RateLimit: RateLimitConfig{
			Requests: v.GetInt("ratelimit.requests"),
			Window:   v.GetDuration("ratelimit.window"),
		},
		CORS: CORSConfig{
			AllowOrigins: stringList(v, "cors.allow_origins"),
		},
	}
	if cfg.Catalog.File != "" {
		items, err := LoadCatalogFile(cfg.Catalog.File)
		if err != nil {
			return nil, err
		}
		cfg.Catalog.Items = items
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadCatalogFile reads an item-id -> URLs mapping from a YAML, JSON or TOML file
// holding a top-level "items" table.
func LoadCatalogFile(path string) (map[string][]string, error) {
	cv := viper.New()
	cv.SetConfigFile(path)
	if err := cv.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	items := cv.GetStringMapStringSlice("items")
	if len(items) == 0 {
		return nil, fmt.Errorf("catalog %s: no items", path)
	}
	return items, nil
}

// Validate rejects values the server cannot start with. A missing Paystack secret
// is reported per request by the verify endpoint instead.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("config: server.port is required")
	}
	switch c.Paystack.Mode {
	case "live", "stub":
	default:
		return fmt.Errorf("config: paystack.mode must be live or stub, got %q", c.Paystack.Mode)
	}
	if c.Paystack.Mode == "stub" && c.IsProduction() {
		return errors.New("config: stub payment mode is not allowed in production")
	}
	if c.Server.WriteTimeout > 0 && c.Paystack.Mode == "live" && c.Server.WriteTimeout <= c.Paystack.Budget() {
		return fmt.Errorf("config: server.write_timeout (%s) must exceed the worst-case Paystack verification time (%s)",
			c.Server.WriteTimeout, c.Paystack.Budget())
	}
	if c.RateLimit.Requests < 0 || (c.RateLimit.Requests > 0 && c.RateLimit.Window <= 0) {
		return errors.New("config: ratelimit.window must be positive when ratelimit.requests is set")
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return errors.New("config: kafka.topic is required when kafka.brokers is set")
	}
	return nil
}

// stringList accepts either a YAML list or a comma separated string (the env form).
func stringList(v *viper.Viper, key string) []string {
	switch v.Get(key).(type) {
	case []interface{}, []string:
		var out []string
		for _, s := range v.GetStringSlice(key) {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return splitList(v.GetString(key))
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
