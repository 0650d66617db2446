package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root of the ctxmerge configuration tree.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Merger    MergerConfig    `mapstructure:"merger"`
	Sources   SourcesConfig   `mapstructure:"sources"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains process-wide switches
type GeneralConfig struct {
	LogLevel string `mapstructure:"log_level"`
	Debug    bool   `mapstructure:"debug"`
}

// ServerConfig contains HTTP API settings
type ServerConfig struct {
	Address     string        `mapstructure:"address"`
	SessionTTL  time.Duration `mapstructure:"session_ttl"`
	MaxSessions int           `mapstructure:"max_sessions"`
}

func (s ServerConfig) Validate() error {
	if strings.TrimSpace(s.Address) == "" {
		return fmt.Errorf("server.address required")
	}
	if s.SessionTTL <= 0 {
		return fmt.Errorf("server.session_ttl must be positive")
	}
	if s.MaxSessions <= 0 {
		return fmt.Errorf("server.max_sessions must be positive")
	}
	return nil
}

// LLMConfig selects the text generation backend.
type LLMConfig struct {
	Provider        string        `mapstructure:"provider"`
	APIKey          string        `mapstructure:"api_key"`
	Model           string        `mapstructure:"model"`
	BaseURL         string        `mapstructure:"base_url"`
	Temperature     float64       `mapstructure:"temperature"`
	MaxTokens       int           `mapstructure:"max_tokens"`
	PlanTimeout     time.Duration `mapstructure:"plan_timeout"`
	FinalizeTimeout time.Duration `mapstructure:"finalize_timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
}

func (l LLMConfig) Normalize() LLMConfig {
	l.Provider = strings.ToLower(strings.TrimSpace(l.Provider))
	if l.Provider == "" {
		l.Provider = "openai"
	}
	l.APIKey = strings.TrimSpace(l.APIKey)
	return l
}

func (l LLMConfig) Validate() error {
	switch l.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("llm.provider must be openai or gemini, got %q", l.Provider)
	}
	if l.Temperature < 0 || l.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be within [0,2]")
	}
	if l.MaxRetries < 0 {
		return fmt.Errorf("llm.max_retries must be >= 0")
	}
	return nil
}

// MergerConfig tunes scoring, selection and the collect fan-out.
type MergerConfig struct {
	TokenBudget      int                `mapstructure:"token_budget"`
	MaxConcurrency   int                `mapstructure:"max_concurrency"`
	CollectorTimeout time.Duration      `mapstructure:"collector_timeout"`
	CollectDeadline  time.Duration      `mapstructure:"collect_deadline"`
	CategoryWeights  map[string]float64 `mapstructure:"category_weights"`
	Guidelines       string             `mapstructure:"guidelines"`
}

// Normalize lower-cases weight keys and clamps values into [0,1].
func (m MergerConfig) Normalize() MergerConfig {
	if len(m.CategoryWeights) > 0 {
		weights := make(map[string]float64, len(m.CategoryWeights))
		for k, v := range m.CategoryWeights {
			key := strings.ToLower(strings.TrimSpace(k))
			if key == "" {
				continue
			}
			if v < 0 {
				v = 0
			}
			if v > 1 {
				v = 1
			}
			weights[key] = v
		}
		m.CategoryWeights = weights
	}
	m.Guidelines = strings.TrimSpace(m.Guidelines)
	return m
}

func (m MergerConfig) Validate() error {
	if m.TokenBudget < 0 {
		return fmt.Errorf("merger.token_budget must be >= 0")
	}
	if m.MaxConcurrency < 0 {
		return fmt.Errorf("merger.max_concurrency must be >= 0")
	}
	if m.CollectorTimeout < 0 || m.CollectDeadline < 0 {
		return fmt.Errorf("merger timeouts must not be negative")
	}
	return nil
}

// SourcesConfig contains per-collector capability settings
type SourcesConfig struct {
	WebFetch    WebFetchConfig    `mapstructure:"web_fetch"`
	WebSearch   WebSearchConfig   `mapstructure:"web_search"`
	Statistics  StatisticsConfig  `mapstructure:"statistics"`
	Trends      TrendsConfig      `mapstructure:"trends"`
	Feeds       FeedsConfig       `mapstructure:"feeds"`
	CrawlPolicy CrawlPolicyConfig `mapstructure:"crawl_policy"`
}

// WebFetchConfig controls page fetching and block extraction.
type WebFetchConfig struct {
	Fetcher   string        `mapstructure:"fetcher"`
	Extractor string        `mapstructure:"extractor"`
	Timeout   time.Duration `mapstructure:"timeout"`
	MaxBytes  int64         `mapstructure:"max_bytes"`
	UserAgent string        `mapstructure:"user_agent"`
	CacheSize int           `mapstructure:"cache_size"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
}

func (w WebFetchConfig) Validate() error {
	switch strings.ToLower(w.Fetcher) {
	case "", "http", "chromedp":
	default:
		return fmt.Errorf("sources.web_fetch.fetcher must be http or chromedp, got %q", w.Fetcher)
	}
	switch strings.ToLower(w.Extractor) {
	case "", "blocks", "readability":
	default:
		return fmt.Errorf("sources.web_fetch.extractor must be blocks or readability, got %q", w.Extractor)
	}
	if w.MaxBytes < 0 || w.CacheSize < 0 {
		return fmt.Errorf("sources.web_fetch sizes must not be negative")
	}
	return nil
}

// WebSearchConfig contains web search settings
type WebSearchConfig struct {
	Provider     string        `mapstructure:"provider"`
	SerperAPIKey string        `mapstructure:"serper_api_key"`
	BraveAPIKey  string        `mapstructure:"brave_api_key"`
	MaxResults   int           `mapstructure:"max_results"`
	Country      string        `mapstructure:"country"`
	Language     string        `mapstructure:"language"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

func (w WebSearchConfig) Validate() error {
	switch strings.ToLower(w.Provider) {
	case "serper", "brave":
	default:
		return fmt.Errorf("sources.web_search.provider must be serper or brave, got %q", w.Provider)
	}
	return nil
}

// StatisticsConfig holds the official statistics service credentials.
type StatisticsConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Token    string        `mapstructure:"token"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Configured reports whether any credential is present.
func (s StatisticsConfig) Configured() bool {
	return strings.TrimSpace(s.Token) != "" ||
		(strings.TrimSpace(s.Username) != "" && s.Password != "")
}

// TrendsConfig contains the interest-over-time provider settings
type TrendsConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// FeedsConfig contains RSS/Atom fetch settings
type FeedsConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// StorageConfig contains storage and persistence settings
type StorageConfig struct {
	Memory   MemoryConfig   `mapstructure:"memory"`
	File     FileConfig     `mapstructure:"file"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	S3       S3Config       `mapstructure:"s3"`
}

// MemoryConfig selects the customer-memory backend.
type MemoryConfig struct {
	Backend string `mapstructure:"backend"`
}

func (s StorageConfig) Validate() error {
	switch strings.ToLower(strings.TrimSpace(s.Memory.Backend)) {
	case "", "file":
	case "redis":
		if err := s.Redis.Validate(); err != nil {
			return err
		}
	case "postgres":
		if err := s.Postgres.Validate(); err != nil {
			return err
		}
	case "sqlite":
		if strings.TrimSpace(s.SQLite.Path) == "" {
			return fmt.Errorf("storage.sqlite.path required for the sqlite memory backend")
		}
	default:
		return fmt.Errorf("storage.memory.backend must be file, redis, postgres or sqlite, got %q", s.Memory.Backend)
	}
	return s.S3.Validate()
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("storage.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required")
	}
	return nil
}

func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

// FileConfig contains file storage settings
type FileConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

// PostgresConfig contains Postgres connection settings
type PostgresConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (p PostgresConfig) Validate() error {
	if strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.Host) == "" {
		return fmt.Errorf("storage.postgres.host required when url is not provided")
	}
	if strings.TrimSpace(p.Port) == "" {
		return fmt.Errorf("storage.postgres.port required when url is not provided")
	}
	if strings.TrimSpace(p.DBName) == "" {
		return fmt.Errorf("storage.postgres.dbname required when url is not provided")
	}
	return nil
}

// DSN returns URL when set, otherwise a key/value connection string.
func (p PostgresConfig) DSN() string {
	if strings.TrimSpace(p.URL) != "" {
		return p.URL
	}
	sslmode := p.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	dsn := fmt.Sprintf("host=%s port=%s dbname=%s sslmode=%s", p.Host, p.Port, p.DBName, sslmode)
	if p.User != "" {
		dsn += " user=" + p.User
	}
	if p.Password != "" {
		dsn += " password=" + p.Password
	}
	return dsn
}

// SQLiteConfig points at the memory database file.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// S3Config contains object storage configuration.
type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

func (s S3Config) Enabled() bool {
	return strings.TrimSpace(s.Endpoint) != ""
}

func (s S3Config) Validate() error {
	if !s.Enabled() {
		return nil
	}
	if strings.TrimSpace(s.AccessKeyID) == "" || strings.TrimSpace(s.SecretAccessKey) == "" {
		return fmt.Errorf("storage.s3 access_key_id and secret_access_key required when endpoint is provided")
	}
	return nil
}

// TelemetryConfig toggles tracing and metrics export.
type TelemetryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	ServiceName  string `mapstructure:"service_name"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	MetricsPath  string `mapstructure:"metrics_path"`
}

func (t TelemetryConfig) Validate() error {
	if !t.Enabled {
		return nil
	}
	if !strings.HasPrefix(t.MetricsPath, "/") {
		return fmt.Errorf("telemetry.metrics_path must start with '/'")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.log_level", "info")
	v.SetDefault("general.debug", false)

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.session_ttl", 30*time.Minute)
	v.SetDefault("server.max_sessions", 1024)

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_tokens", 2048)
	v.SetDefault("llm.plan_timeout", 60*time.Second)
	v.SetDefault("llm.finalize_timeout", 90*time.Second)
	v.SetDefault("llm.max_retries", 2)

	v.SetDefault("merger.token_budget", 6000)
	v.SetDefault("merger.max_concurrency", 4)
	v.SetDefault("merger.collector_timeout", 20*time.Second)
	v.SetDefault("merger.collect_deadline", 60*time.Second)

	v.SetDefault("sources.web_fetch.fetcher", "http")
	v.SetDefault("sources.web_fetch.extractor", "blocks")
	v.SetDefault("sources.web_fetch.timeout", 15*time.Second)
	v.SetDefault("sources.web_fetch.max_bytes", 4<<20)
	v.SetDefault("sources.web_fetch.user_agent", "ctxmerge/1.0 (+https://github.com/mohammad-safakhou/ctxmerge)")
	v.SetDefault("sources.web_fetch.cache_size", 256)
	v.SetDefault("sources.web_fetch.cache_ttl", 10*time.Minute)
	v.SetDefault("sources.web_search.provider", "serper")
	v.SetDefault("sources.web_search.max_results", 10)
	v.SetDefault("sources.web_search.timeout", 15*time.Second)
	v.SetDefault("sources.statistics.timeout", 30*time.Second)
	v.SetDefault("sources.trends.timeout", 20*time.Second)
	v.SetDefault("sources.feeds.timeout", 15*time.Second)

	v.SetDefault("storage.memory.backend", "file")
	v.SetDefault("storage.file.data_dir", "data/customers")
	v.SetDefault("storage.redis.host", "localhost")
	v.SetDefault("storage.redis.port", "6379")
	v.SetDefault("storage.redis.timeout", 5*time.Second)

	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.service_name", "ctxmerge")
	v.SetDefault("telemetry.metrics_path", "/metrics")

	// Keys without a meaningful default are registered so that
	// AutomaticEnv can still bind them during Unmarshal.
	for _, key := range []string{
		"llm.api_key", "llm.model", "llm.base_url",
		"merger.guidelines",
		"sources.web_search.serper_api_key", "sources.web_search.brave_api_key",
		"sources.web_search.country", "sources.web_search.language",
		"sources.statistics.endpoint", "sources.statistics.token",
		"sources.statistics.username", "sources.statistics.password",
		"sources.trends.endpoint", "sources.trends.api_key",
		"storage.redis.password", "storage.postgres.url", "storage.sqlite.path",
		"storage.s3.endpoint", "storage.s3.region",
		"storage.s3.access_key_id", "storage.s3.secret_access_key",
		"telemetry.otlp_endpoint",
	} {
		v.SetDefault(key, "")
	}
}

// LoadConfig reads the config file at path, or searches ./config and the
// working directory for one named "config". A missing file is not an error
// when no explicit path is given; defaults and CTXMERGE_* env vars apply.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		v.SetConfigName("config") // name of config file (without extension)
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		if exe, err := os.Executable(); err == nil {
			v.AddConfigPath(filepath.Join(filepath.Dir(exe), "..", "config"))
		}
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("CTXMERGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv() // read in environment variables that match (CTXMERGE_*)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	config.Normalize()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Normalize cleans every section in place.
func (c *Config) Normalize() {
	c.General.LogLevel = strings.ToLower(strings.TrimSpace(c.General.LogLevel))
	c.LLM = c.LLM.Normalize()
	c.Merger = c.Merger.Normalize()
	c.Sources.WebSearch.Provider = strings.ToLower(strings.TrimSpace(c.Sources.WebSearch.Provider))
	c.Sources.CrawlPolicy = c.Sources.CrawlPolicy.Normalize()
	c.Storage.Memory.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Memory.Backend))
}

func (c *Config) Validate() error {
	validators := []func() error{
		c.Server.Validate,
		c.LLM.Validate,
		c.Merger.Validate,
		c.Sources.WebFetch.Validate,
		c.Sources.WebSearch.Validate,
		c.Sources.CrawlPolicy.Validate,
		c.Storage.Validate,
		c.Telemetry.Validate,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}
