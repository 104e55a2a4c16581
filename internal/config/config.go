package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Graph     GraphConfig     `yaml:"graph"`
	Logging   LoggingConfig   `yaml:"logging"`
	Positions PositionsConfig `yaml:"positions"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Engine    EngineConfig    `yaml:"engine"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host              string        `yaml:"host"`
	Port              int           `yaml:"port"`
	ReadTimeout       time.Duration `yaml:"readTimeout"`
	WriteTimeout      time.Duration `yaml:"writeTimeout"`
	IdleTimeout       time.Duration `yaml:"idleTimeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdownTimeout"`
	MetricsEnabled    bool          `yaml:"metricsEnabled"`
	AllowedOriginsCSV string        `yaml:"allowedOrigins"`
	MaxBodyBytes      int64         `yaml:"maxBodyBytes"`
}

// GraphConfig describes connectivity to the Bolt graph store.
type GraphConfig struct {
	URI            string        `yaml:"uri"`
	Database       string        `yaml:"database"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	MaxConnections int           `yaml:"maxConnections"`
	MaxRetryTime   time.Duration `yaml:"maxRetryTime"`
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string `yaml:"level"`
	Format        string `yaml:"format"` // text|json
	Colored       bool   `yaml:"colored"`
	IncludeCaller bool   `yaml:"includeCaller"`
}

// PositionsConfig selects where saved layouts live and how updates are
// coalesced.
type PositionsConfig struct {
	Backend   string        `yaml:"backend"` // graph|redis
	RedisURL  string        `yaml:"redisURL"`
	KeyPrefix string        `yaml:"keyPrefix"`
	TTL       time.Duration `yaml:"ttl"`
	Debounce  time.Duration `yaml:"debounce"`
}

// IngestConfig sizes the bulk ingestion worker pool.
type IngestConfig struct {
	Workers   int `yaml:"workers"`
	BatchSize int `yaml:"batchSize"`
}

// EngineConfig tunes graph building.
type EngineConfig struct {
	// TranslationsFile is a YAML map of label keys to localized strings.
	TranslationsFile string `yaml:"translationsFile"`
}

// TelemetryConfig controls tracing.
type TelemetryConfig struct {
	TraceExporter string `yaml:"traceExporter"` // none|stdout
	ServiceName   string `yaml:"serviceName"`
}

const (
	defaultHost             = "0.0.0.0"
	defaultPort             = 8080
	defaultReadTimeout      = 10 * time.Second
	defaultWriteTimeout     = 15 * time.Second
	defaultIdleTimeout      = 60 * time.Second
	defaultShutdownTimeout  = 10 * time.Second
	defaultMaxBodyBytes     = 32 << 20
	defaultLoggingLevel     = "info"
	defaultLoggingFormat    = "text"
	defaultGraphMaxSessions = 10
	defaultPositionsBackend = "graph"
	defaultDebounce         = 2 * time.Second
	defaultIngestWorkers    = 4
	defaultIngestBatchSize  = 250
	defaultTraceExporter    = "none"
	defaultServiceName      = "cyio-graph"
)

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Host:            defaultHost,
			Port:            defaultPort,
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			IdleTimeout:     defaultIdleTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
			MaxBodyBytes:    defaultMaxBodyBytes,
		},
		Graph: GraphConfig{
			MaxConnections: defaultGraphMaxSessions,
		},
		Logging: LoggingConfig{
			Level:  defaultLoggingLevel,
			Format: defaultLoggingFormat,
		},
		Positions: PositionsConfig{
			Backend:  defaultPositionsBackend,
			Debounce: defaultDebounce,
		},
		Ingest: IngestConfig{
			Workers:   defaultIngestWorkers,
			BatchSize: defaultIngestBatchSize,
		},
		Telemetry: TelemetryConfig{
			TraceExporter: defaultTraceExporter,
			ServiceName:   defaultServiceName,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file named
// by CONFIG_FILE, and environment variables, in increasing precedence.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.HTTP.Host = valueOrDefault("SERVER_HOST", cfg.HTTP.Host)
	port, err := parsePort("SERVER_PORT", cfg.HTTP.Port)
	if err != nil {
		return err
	}
	cfg.HTTP.Port = port

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"SERVER_READ_TIMEOUT", &cfg.HTTP.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout},
		{"SERVER_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT", &cfg.HTTP.ShutdownTimeout},
		{"GRAPH_MAX_RETRY_TIME", &cfg.Graph.MaxRetryTime},
		{"POSITIONS_TTL", &cfg.Positions.TTL},
		{"POSITIONS_DEBOUNCE", &cfg.Positions.Debounce},
	}
	for _, d := range durations {
		if v := os.Getenv(d.key); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", d.key, err)
			}
			*d.dst = parsed
		}
	}

	cfg.HTTP.MetricsEnabled = parseBoolWithDefault("SERVER_METRICS_ENABLED", cfg.HTTP.MetricsEnabled)
	cfg.HTTP.AllowedOriginsCSV = valueOrDefault("SERVER_ALLOWED_ORIGINS", cfg.HTTP.AllowedOriginsCSV)
	cfg.HTTP.MaxBodyBytes = int64(parseIntWithDefault("SERVER_MAX_BODY_BYTES", int(cfg.HTTP.MaxBodyBytes)))

	cfg.Graph.URI = valueOrDefault("GRAPH_URI", cfg.Graph.URI)
	cfg.Graph.Database = valueOrDefault("GRAPH_DATABASE", cfg.Graph.Database)
	cfg.Graph.Username = valueOrDefault("GRAPH_USERNAME", cfg.Graph.Username)
	cfg.Graph.Password = valueOrDefault("GRAPH_PASSWORD", cfg.Graph.Password)
	cfg.Graph.MaxConnections = parseIntWithDefault("GRAPH_MAX_CONNECTIONS", cfg.Graph.MaxConnections)

	cfg.Logging.Level = valueOrDefault("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = valueOrDefault("LOG_FORMAT", cfg.Logging.Format)
	cfg.Logging.Colored = parseBoolWithDefault("LOG_COLOR", cfg.Logging.Colored)
	cfg.Logging.IncludeCaller = parseBoolWithDefault("LOG_INCLUDE_CALLER", cfg.Logging.IncludeCaller)

	cfg.Positions.Backend = valueOrDefault("POSITIONS_BACKEND", cfg.Positions.Backend)
	cfg.Positions.RedisURL = valueOrDefault("POSITIONS_REDIS_URL", cfg.Positions.RedisURL)
	cfg.Positions.KeyPrefix = valueOrDefault("POSITIONS_KEY_PREFIX", cfg.Positions.KeyPrefix)

	cfg.Ingest.Workers = parseIntWithDefault("INGEST_WORKERS", cfg.Ingest.Workers)
	cfg.Ingest.BatchSize = parseIntWithDefault("INGEST_BATCH_SIZE", cfg.Ingest.BatchSize)

	cfg.Engine.TranslationsFile = valueOrDefault("ENGINE_TRANSLATIONS_FILE", cfg.Engine.TranslationsFile)

	cfg.Telemetry.TraceExporter = valueOrDefault("TRACE_EXPORTER", cfg.Telemetry.TraceExporter)
	cfg.Telemetry.ServiceName = valueOrDefault("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
	return nil
}

// Validate rejects values the server cannot run with.
func (c Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("port %d is out of range", c.HTTP.Port)
	}
	switch strings.ToLower(c.Positions.Backend) {
	case "graph", "redis":
	default:
		return fmt.Errorf("unsupported positions backend %q", c.Positions.Backend)
	}
	switch strings.ToLower(c.Telemetry.TraceExporter) {
	case "", "none", "stdout":
	default:
		return fmt.Errorf("unsupported trace exporter %q", c.Telemetry.TraceExporter)
	}
	if c.Positions.Debounce < 0 {
		return errors.New("positions debounce must not be negative")
	}
	return nil
}

// AllowedOrigins splits the CORS origin list.
func (c HTTPConfig) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.AllowedOriginsCSV, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// LoadTranslations reads a flat YAML map of label keys to localized strings.
func LoadTranslations(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read translations %s: %w", path, err)
	}
	translations := map[string]string{}
	if err := yaml.Unmarshal(raw, &translations); err != nil {
		return nil, fmt.Errorf("parse translations %s: %w", path, err)
	}
	return translations, nil
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return val
	}
	return fallback
}

func parseIntWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return fallback
}

func parsePort(key string, fallback int) (int, error) {
	if v := os.Getenv(key); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		if port <= 0 || port > 65535 {
			return 0, fmt.Errorf("port %d is out of range", port)
		}
		return port, nil
	}
	return fallback, nil
}
