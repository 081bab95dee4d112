package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Deck sources.
const (
	SourceFile  = "file"
	SourceKafka = "kafka"
)

// Record sinks.
const (
	SinkKafka  = "kafka"
	SinkSQLite = "sqlite"
	SinkBoth   = "both"
	SinkNone   = "none"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DeckSource string
	ADeckPaths []string
	BDeckPaths []string
	EDeckPaths []string

	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string

	Sink         string
	SQLitePath   string
	LandmaskPath string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration
	Workers            int

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	JobFile string
	Job     *Job
}

// Load reads configuration from environment variables, applying defaults
// where unset, and the job file named by TC_JOB_FILE when present.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("MAPBOX_TIMEOUT", "5s"))
	if err != nil || mapboxTimeout <= 0 {
		return nil, errors.New("invalid MAPBOX_TIMEOUT")
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	workers, err := parsePositiveInt("WORKERS", 4)
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		DeckSource: strings.ToLower(sharedcfg.EnvOrDefault("DECK_SOURCE", SourceFile)),
		ADeckPaths: splitList(os.Getenv("ADECK_PATHS")),
		BDeckPaths: splitList(os.Getenv("BDECK_PATHS")),
		EDeckPaths: splitList(os.Getenv("EDECK_PATHS")),

		KafkaBrokers:     sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic: sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "atcf-deck-lines"),
		KafkaSinkTopic:   sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "tc-verification-records"),
		KafkaGroupID:     sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "storm-track-verify"),

		Sink:         strings.ToLower(sharedcfg.EnvOrDefault("SINK", SinkSQLite)),
		SQLitePath:   sharedcfg.EnvOrDefault("SQLITE_PATH", "storm-verify.db"),
		LandmaskPath: os.Getenv("LANDMASK_PATH"),

		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
		Workers:            workers,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),

		JobFile: os.Getenv("TC_JOB_FILE"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.JobFile != "" {
		cfg.Job, err = LoadJob(cfg.JobFile)
	} else {
		cfg.Job, err = DefaultJob()
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DeckSource {
	case SourceFile:
		if len(c.ADeckPaths) == 0 && len(c.EDeckPaths) == 0 {
			return errors.New("ADECK_PATHS or EDECK_PATHS is required when DECK_SOURCE=file")
		}
		if len(c.BDeckPaths) == 0 {
			return errors.New("BDECK_PATHS is required when DECK_SOURCE=file")
		}
	case SourceKafka:
		if c.KafkaSourceTopic == "" {
			return errors.New("KAFKA_SOURCE_TOPIC is required")
		}
	default:
		return fmt.Errorf("invalid DECK_SOURCE %q: must be file or kafka", c.DeckSource)
	}

	switch c.Sink {
	case SinkKafka, SinkSQLite, SinkBoth, SinkNone:
	default:
		return fmt.Errorf("invalid SINK %q: must be kafka, sqlite, both or none", c.Sink)
	}
	if c.UsesKafka() && len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS is required")
	}
	if c.WritesKafka() && c.KafkaSinkTopic == "" {
		return errors.New("KAFKA_SINK_TOPIC is required")
	}
	if c.WritesSQLite() && c.SQLitePath == "" {
		return errors.New("SQLITE_PATH is required")
	}
	if c.MapboxEnabled && c.MapboxToken == "" {
		return errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	return nil
}

// WritesKafka reports whether records are published to the sink topic.
func (c *Config) WritesKafka() bool { return c.Sink == SinkKafka || c.Sink == SinkBoth }

// WritesSQLite reports whether records are stored in SQLite.
func (c *Config) WritesSQLite() bool { return c.Sink == SinkSQLite || c.Sink == SinkBoth }

// UsesKafka reports whether any part of the run talks to a broker.
func (c *Config) UsesKafka() bool { return c.DeckSource == SourceKafka || c.WritesKafka() }

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", key, s)
	}
	return n, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
