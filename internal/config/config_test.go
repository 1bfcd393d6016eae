package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/config"
)

func clearCommon(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"FEED_BASE_URL", "FEED_LANGUAGE", "FEED_REGION", "FEED_EDITION", "FEED_TIMEOUT", "FEED_USER_AGENT",
		"NER_BACKEND", "NER_GAZETTEER_PATH", "NER_TIMEOUT", "SPACY_URL", "SPACY_MODEL",
		"GEMINI_API_KEY", "GEMINI_MODEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadCommonDefaults(t *testing.T) {
	clearCommon(t)

	cfg, err := config.LoadCommon()
	require.NoError(t, err)

	require.Equal(t, "https://news.google.com/rss/search", cfg.Feed.BaseURL)
	require.Equal(t, "es-419", cfg.Feed.Language)
	require.Equal(t, "MX", cfg.Feed.Region)
	require.Equal(t, "MX:es-419", cfg.Feed.Edition)
	require.Equal(t, 8*time.Second, cfg.Feed.Timeout)
	require.Equal(t, config.BackendSpacy, cfg.Recognizer.Backend)
	require.Equal(t, "http://spacy:8000", cfg.Recognizer.SpacyURL)
	require.Equal(t, "es_core_news_sm", cfg.Recognizer.SpacyModel)
	require.Equal(t, 10*time.Second, cfg.Recognizer.Timeout)
}

func TestLoadCommonRecognizerValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{name: "unknown backend", env: map[string]string{"NER_BACKEND": "stanza"}, wantErr: true},
		{name: "gemini without key", env: map[string]string{"NER_BACKEND": "gemini"}, wantErr: true},
		{name: "gemini with key", env: map[string]string{"NER_BACKEND": "Gemini", "GEMINI_API_KEY": "k"}},
		{name: "spacy defaults", env: map[string]string{"NER_BACKEND": "spacy"}},
		{name: "lexicon offline", env: map[string]string{"NER_BACKEND": "lexicon"}},
		{name: "bad feed timeout", env: map[string]string{"FEED_TIMEOUT": "-1s"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearCommon(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := config.LoadCommon()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestLoadAPI(t *testing.T) {
	clearCommon(t)
	t.Setenv("API_BIND_ADDR", ":9090")
	t.Setenv("API_DEFAULT_QUERY", "derrame de petróleo")
	t.Setenv("API_SEARCH_TIMEOUT", "12s")
	t.Setenv("SPACY_URL", "http://localhost:8000/")

	cfg, err := config.LoadAPI()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.BindAddr)
	require.Equal(t, "derrame de petróleo", cfg.DefaultQuery)
	require.Equal(t, 12*time.Second, cfg.SearchTimeout)
	require.Equal(t, "http://localhost:8000", cfg.Recognizer.SpacyURL)
}

func TestLoadWorkerDefaults(t *testing.T) {
	clearCommon(t)
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("KAFKA_REQUEST_TOPIC", "")
	t.Setenv("KAFKA_RESULT_TOPIC", "")
	t.Setenv("KAFKA_CONSUMER_GROUP", "")

	cfg, err := config.LoadWorker()
	require.NoError(t, err)

	require.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
	require.Equal(t, "incident_queries", cfg.RequestTopic)
	require.Equal(t, "incident_results", cfg.ResultTopic)
	require.Equal(t, "incident-worker", cfg.KafkaConsumer)
	require.Equal(t, 24*time.Hour, cfg.DedupeTTL)
}

func TestLoadWorkerOverrides(t *testing.T) {
	clearCommon(t)
	t.Setenv("KAFKA_BROKERS", "broker-a:29092, broker-b:29093")
	t.Setenv("KAFKA_REQUEST_TOPIC", "q")
	t.Setenv("KAFKA_RESULT_TOPIC", "r")
	t.Setenv("WORKER_DEDUPE_CAPACITY", "5")
	t.Setenv("WORKER_DEDUPE_TTL", "48h")
	t.Setenv("WORKER_BATCH_SIZE", "3")

	cfg, err := config.LoadWorker()
	require.NoError(t, err)
	require.Equal(t, []string{"broker-a:29092", "broker-b:29093"}, cfg.KafkaBrokers)
	require.Equal(t, "q", cfg.RequestTopic)
	require.Equal(t, "r", cfg.ResultTopic)
	require.Equal(t, 5, cfg.DedupeCapacity)
	require.Equal(t, 48*time.Hour, cfg.DedupeTTL)
	require.Equal(t, 3, cfg.BatchSize)
}

func TestLoadWorkerRejectsSameTopic(t *testing.T) {
	clearCommon(t)
	t.Setenv("KAFKA_REQUEST_TOPIC", "same")
	t.Setenv("KAFKA_RESULT_TOPIC", "same")

	_, err := config.LoadWorker()
	require.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	clearCommon(t)
	// t.Setenv in clearCommon restores the variable afterwards; godotenv
	// only fills variables that are absent.
	require.NoError(t, os.Unsetenv("FEED_REGION"))
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("FEED_REGION=US\n"), 0o600))

	require.NoError(t, config.LoadDotEnv(filepath.Join(dir, "missing.env"), path))

	cfg, err := config.LoadCommon()
	require.NoError(t, err)
	require.Equal(t, "US", cfg.Feed.Region)
}
