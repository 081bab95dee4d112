package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	defaultBroker   = "localhost:9092"
	testMapboxToken = "pk.test-token"
)

func setDecks(t *testing.T) {
	t.Helper()
	t.Setenv("ADECK_PATHS", "aal092022.dat")
	t.Setenv("BDECK_PATHS", "bal092022.dat")
}

func TestLoad_Defaults(t *testing.T) {
	setDecks(t)
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, SourceFile, cfg.DeckSource)
	assert.Equal(t, []string{"aal092022.dat"}, cfg.ADeckPaths)
	assert.Equal(t, []string{"bal092022.dat"}, cfg.BDeckPaths)
	assert.Empty(t, cfg.EDeckPaths)
	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "atcf-deck-lines", cfg.KafkaSourceTopic)
	assert.Equal(t, "tc-verification-records", cfg.KafkaSinkTopic)
	assert.Equal(t, "storm-track-verify", cfg.KafkaGroupID)
	assert.Equal(t, SinkSQLite, cfg.Sink)
	assert.Equal(t, "storm-verify.db", cfg.SQLitePath)
	assert.Empty(t, cfg.LandmaskPath)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.BatchFlushInterval)
	assert.Equal(t, 4, cfg.Workers)
	assert.False(t, cfg.MapboxEnabled)
	assert.Equal(t, 5*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 1000, cfg.MapboxCacheSize)

	require.NotNil(t, cfg.Job)
	assert.True(t, cfg.Job.MatchPoints)
	assert.True(t, cfg.WritesSQLite())
	assert.False(t, cfg.UsesKafka())
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("DECK_SOURCE", "kafka")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_SOURCE_TOPIC", "custom-source")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("KAFKA_GROUP_ID", "custom-group")
	t.Setenv("SINK", "both")
	t.Setenv("SQLITE_PATH", "/tmp/verify.db")
	t.Setenv("LANDMASK_PATH", "/data/land.geojson")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("BATCH_FLUSH_INTERVAL", "1s")
	t.Setenv("WORKERS", "8")
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_TIMEOUT", "10s")
	t.Setenv("MAPBOX_CACHE_SIZE", "500")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, SourceKafka, cfg.DeckSource)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-source", cfg.KafkaSourceTopic)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, "custom-group", cfg.KafkaGroupID)
	assert.Equal(t, SinkBoth, cfg.Sink)
	assert.True(t, cfg.WritesKafka())
	assert.True(t, cfg.WritesSQLite())
	assert.Equal(t, "/tmp/verify.db", cfg.SQLitePath)
	assert.Equal(t, "/data/land.geojson", cfg.LandmaskPath)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 1*time.Second, cfg.BatchFlushInterval)
	assert.Equal(t, 8, cfg.Workers)
	assert.True(t, cfg.MapboxEnabled)
	assert.Equal(t, testMapboxToken, cfg.MapboxToken)
	assert.Equal(t, 10*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 500, cfg.MapboxCacheSize)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"no forecast decks", map[string]string{"ADECK_PATHS": ""}, "ADECK_PATHS"},
		{"no best track decks", map[string]string{"BDECK_PATHS": ""}, "BDECK_PATHS"},
		{"bad deck source", map[string]string{"DECK_SOURCE": "ftp"}, "DECK_SOURCE"},
		{"bad sink", map[string]string{"SINK": "postgres"}, "SINK"},
		{"invalid shutdown timeout", map[string]string{"SHUTDOWN_TIMEOUT": "not-a-duration"}, "SHUTDOWN_TIMEOUT"},
		{"negative shutdown timeout", map[string]string{"SHUTDOWN_TIMEOUT": "-1s"}, "SHUTDOWN_TIMEOUT"},
		{"zero batch size", map[string]string{"BATCH_SIZE": "0"}, "BATCH_SIZE"},
		{"batch size too large", map[string]string{"BATCH_SIZE": "9999"}, "BATCH_SIZE"},
		{"bad flush interval", map[string]string{"BATCH_FLUSH_INTERVAL": "soon"}, "BATCH_FLUSH_INTERVAL"},
		{"bad workers", map[string]string{"WORKERS": "0"}, "WORKERS"},
		{"bad mapbox timeout", map[string]string{"MAPBOX_TIMEOUT": "bad"}, "MAPBOX_TIMEOUT"},
		{"mapbox without token", map[string]string{"MAPBOX_ENABLED": "true"}, "MAPBOX_TOKEN"},
		{"missing job file", map[string]string{"TC_JOB_FILE": "/nonexistent/job.yaml"}, "read job file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setDecks(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_MapboxTokenImpliesEnabled(t *testing.T) {
	setDecks(t)
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.MapboxEnabled)
}

func TestLoad_MapboxExplicitlyDisabled(t *testing.T) {
	setDecks(t)
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.MapboxEnabled)
}

func TestLoad_JobFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.yaml")
	require.NoError(t, os.WriteFile(path, []byte("water_only: true\n"), 0o600))

	setDecks(t)
	t.Setenv("TC_JOB_FILE", path)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, path, cfg.JobFile)
	assert.True(t, cfg.Job.WaterOnly)
}
