package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Pipeline layout
	DataDir      string
	OutputDir    string
	ManifestPath string
	MappingPath  string

	// GDC API
	GDCBaseURL     string
	GDCPageSize    int
	GDCTimeout     time.Duration
	GDCProjectID   string
	GDCMaxFiles    int
	GDCDownloadDir string

	// Report extraction
	ReportsDir        string
	LedgerPath        string
	ExtractBatchSize  int
	ExtractPause      time.Duration
	ExtractMaxChars   int
	LLMAPIKey         string
	LLMBaseURL        string
	LLMModelName      string
	LLMRequestTimeout time.Duration

	// Warehouse (optional)
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Extraction cache (optional)
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisCacheTTL time.Duration

	// Run events (optional)
	KafkaBrokers []string
	KafkaTopic   string

	// Analysis
	TrainSplit float64
	RandomSeed int64
	KMeansK    int
}

func Load() *Config {
	return &Config{
		DataDir:      getEnv("PIPELINE_DATA_DIR", "data"),
		OutputDir:    getEnv("PIPELINE_OUTPUT_DIR", "output"),
		ManifestPath: getEnv("PIPELINE_MANIFEST", "config/sources.yaml"),
		MappingPath:  getEnv("PIPELINE_MAPPING", "config/column_mapping.yaml"),

		GDCBaseURL:     getEnv("GDC_BASE_URL", "https://api.gdc.cancer.gov"),
		GDCPageSize:    getIntEnv("GDC_PAGE_SIZE", 10000),
		GDCTimeout:     getDuration("GDC_TIMEOUT", 120*time.Second),
		GDCProjectID:   getEnv("GDC_PROJECT_ID", "TCGA-BRCA"),
		GDCMaxFiles:    getIntEnv("GDC_MAX_FILES", 10),
		GDCDownloadDir: getEnv("GDC_DOWNLOAD_DIR", "data/gdc"),

		ReportsDir:        getEnv("REPORTS_DIR", "data/pathology_reports"),
		LedgerPath:        getEnv("EXTRACTION_LEDGER", "output/pathology_extracted.csv"),
		ExtractBatchSize:  getIntEnv("EXTRACT_BATCH_SIZE", 5),
		ExtractPause:      getDuration("EXTRACT_PAUSE", 4*time.Second),
		ExtractMaxChars:   getIntEnv("EXTRACT_MAX_CHARS", 30000),
		LLMAPIKey:         getEnv("LLM_API_KEY", ""),
		LLMBaseURL:        getEnv("LLM_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		LLMModelName:      getEnv("LLM_MODEL_NAME", "gemini-2.5-flash"),
		LLMRequestTimeout: getDuration("LLM_REQUEST_TIMEOUT", 60*time.Second),

		PostgresHost:     getEnv("POSTGRES_HOST", ""),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "oncoweave"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PostgresDB:       getEnv("POSTGRES_DB", "oncoweave"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", ""),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),
		RedisCacheTTL: getDuration("REDIS_CACHE_TTL", 720*time.Hour),

		KafkaBrokers: getStringSliceEnv("KAFKA_BROKERS", nil),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "pipeline-runs"),

		TrainSplit: getFloatEnv("TRAIN_SPLIT", 0.8),
		RandomSeed: int64(getIntEnv("RANDOM_SEED", 42)),
		KMeansK:    getIntEnv("KMEANS_K", 4),
	}
}

// WarehouseEnabled reports whether the optional Postgres sink is configured.
func (c *Config) WarehouseEnabled() bool {
	return c.PostgresHost != ""
}

// CacheEnabled reports whether the optional Redis extraction cache is configured.
func (c *Config) CacheEnabled() bool {
	return c.RedisHost != ""
}

// EventsEnabled reports whether run events should be published to Kafka.
func (c *Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
