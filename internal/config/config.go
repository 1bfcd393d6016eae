package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported entity recognizer backends. Spacy is the default; lexicon runs
// offline from the embedded gazetteer.
const (
	BackendLexicon = "lexicon"
	BackendSpacy   = "spacy"
	BackendGemini  = "gemini"
)

// Feed holds the news aggregator parameters.
type Feed struct {
	BaseURL   string
	Language  string
	Region    string
	Edition   string
	Timeout   time.Duration
	UserAgent string
}

// Recognizer selects and configures the entity recognition backend.
type Recognizer struct {
	Backend       string
	GazetteerPath string
	Timeout       time.Duration
	SpacyURL      string
	SpacyModel    string
	GeminiAPIKey  string
	GeminiModel   string
}

// Common contains the feed and recognizer parameters shared by every binary.
type Common struct {
	Feed       Feed
	Recognizer Recognizer
}

// API describes HTTP-layer configuration.
type API struct {
	Common
	BindAddr      string
	DefaultQuery  string
	SearchTimeout time.Duration
}

// Worker holds configuration for the Kafka search worker.
type Worker struct {
	Common
	KafkaBrokers   []string
	RequestTopic   string
	ResultTopic    string
	KafkaConsumer  string
	DedupeCapacity int
	DedupeTTL      time.Duration
	BatchSize      int
}

// Search configures the one-shot command line search.
type Search struct {
	Common
	DefaultQuery  string
	SearchTimeout time.Duration
}

// LoadDotEnv reads variables from the given .env files (default ".env").
// Missing files are ignored; variables already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// LoadCommon builds the shared feed and recognizer settings.
func LoadCommon() (*Common, error) {
	c := &Common{
		Feed: Feed{
			BaseURL:   getEnv("FEED_BASE_URL", "https://news.google.com/rss/search"),
			Language:  getEnv("FEED_LANGUAGE", "es-419"),
			Region:    getEnv("FEED_REGION", "MX"),
			Edition:   getEnv("FEED_EDITION", "MX:es-419"),
			Timeout:   getDuration("FEED_TIMEOUT", "8s"),
			UserAgent: getEnv("FEED_USER_AGENT", "incident-radar/1.0"),
		},
		Recognizer: Recognizer{
			Backend:       strings.ToLower(getEnv("NER_BACKEND", BackendSpacy)),
			GazetteerPath: getEnv("NER_GAZETTEER_PATH", ""),
			Timeout:       getDuration("NER_TIMEOUT", "10s"),
			SpacyURL:      strings.TrimRight(getEnv("SPACY_URL", "http://spacy:8000"), "/"),
			SpacyModel:    getEnv("SPACY_MODEL", "es_core_news_sm"),
			GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
			GeminiModel:   getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		},
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Common) validate() error {
	if c.Feed.BaseURL == "" {
		return fmt.Errorf("FEED_BASE_URL must not be empty")
	}
	if c.Feed.Timeout <= 0 {
		return fmt.Errorf("FEED_TIMEOUT must be positive")
	}
	if c.Recognizer.Timeout <= 0 {
		return fmt.Errorf("NER_TIMEOUT must be positive")
	}

	switch c.Recognizer.Backend {
	case BackendLexicon:
	case BackendSpacy:
		if c.Recognizer.SpacyURL == "" {
			return fmt.Errorf("SPACY_URL is required for the spacy backend")
		}
		if c.Recognizer.SpacyModel == "" {
			return fmt.Errorf("SPACY_MODEL is required for the spacy backend")
		}
	case BackendGemini:
		if c.Recognizer.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the gemini backend")
		}
	default:
		return fmt.Errorf("NER_BACKEND %q is not supported (want %s, %s or %s)",
			c.Recognizer.Backend, BackendLexicon, BackendSpacy, BackendGemini)
	}
	return nil
}

// LoadAPI builds an API config from environment variables.
func LoadAPI() (*API, error) {
	common, err := LoadCommon()
	if err != nil {
		return nil, err
	}

	c := &API{
		Common:        *common,
		BindAddr:      getEnv("API_BIND_ADDR", "0.0.0.0:8080"),
		DefaultQuery:  getEnv("API_DEFAULT_QUERY", "incendio forestal"),
		SearchTimeout: getDuration("API_SEARCH_TIMEOUT", "30s"),
	}

	if c.SearchTimeout <= 0 {
		return nil, fmt.Errorf("API_SEARCH_TIMEOUT must be positive")
	}

	return c, nil
}

// LoadWorker builds a Worker config from environment variables.
func LoadWorker() (*Worker, error) {
	common, err := LoadCommon()
	if err != nil {
		return nil, err
	}

	c := &Worker{
		Common:         *common,
		KafkaBrokers:   splitAndTrim(getEnv("KAFKA_BROKERS", "kafka:9092")),
		RequestTopic:   getEnv("KAFKA_REQUEST_TOPIC", "incident_queries"),
		ResultTopic:    getEnv("KAFKA_RESULT_TOPIC", "incident_results"),
		KafkaConsumer:  getEnv("KAFKA_CONSUMER_GROUP", "incident-worker"),
		DedupeCapacity: getInt("WORKER_DEDUPE_CAPACITY", 20000),
		DedupeTTL:      getDuration("WORKER_DEDUPE_TTL", "24h"),
		BatchSize:      getInt("WORKER_BATCH_SIZE", 10),
	}

	if len(c.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS must contain at least one broker")
	}
	if c.RequestTopic == c.ResultTopic {
		return nil, fmt.Errorf("KAFKA_REQUEST_TOPIC and KAFKA_RESULT_TOPIC must differ")
	}
	if c.BatchSize <= 0 {
		return nil, fmt.Errorf("WORKER_BATCH_SIZE must be positive")
	}
	if c.DedupeCapacity <= 0 {
		return nil, fmt.Errorf("WORKER_DEDUPE_CAPACITY must be positive")
	}

	return c, nil
}

// LoadSearch builds the command line configuration from environment variables.
func LoadSearch() (*Search, error) {
	common, err := LoadCommon()
	if err != nil {
		return nil, err
	}

	c := &Search{
		Common:        *common,
		DefaultQuery:  getEnv("API_DEFAULT_QUERY", "incendio forestal"),
		SearchTimeout: getDuration("API_SEARCH_TIMEOUT", "30s"),
	}
	if c.SearchTimeout <= 0 {
		return nil, fmt.Errorf("API_SEARCH_TIMEOUT must be positive")
	}
	return c, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		fd, ferr := time.ParseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
