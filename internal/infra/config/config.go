package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Env  string
	Port string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// SearchURL is a SearxNG-compatible endpoint.
	SearchURL     string
	SearchTimeout int

	OllamaURL         string
	ExtractionModel   string
	ExtractionTimeout int
	EvaluatorModel    string
	EvaluatorTimeout  int
	EmbeddingModel    string
	EmbeddingTimeout  int
	EmbeddingDim      int

	FetchTimeout int

	MinQualityScore    float64
	MinConfidence      float64
	PoliteDelaySeconds int

	EmbedMaxAttempts     int
	EmbedBaseDelaySecs   int
	BackfillBatchSize    int
	BackfillIntervalMins int
}

func Load() *Config {
	return &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "9020"),

		DBHost:     getEnv("DB_HOST", "recipe-db"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "harvest_user"),
		DBPassword: getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", "harvest_password"),
		DBName:     getEnv("DB_NAME", "recipes_db"),

		SearchURL:     getEnv("SEARCH_URL", "http://searxng:8080"),
		SearchTimeout: getEnvInt("SEARCH_TIMEOUT", 15),

		OllamaURL:         getEnv("OLLAMA_URL", "http://ollama:11434"),
		ExtractionModel:   getEnv("EXTRACTION_MODEL", "llama3.1:8b"),
		ExtractionTimeout: getEnvInt("EXTRACTION_TIMEOUT", 30),
		EvaluatorModel:    getEnv("EVALUATOR_MODEL", "llama3.1:8b"),
		EvaluatorTimeout:  getEnvInt("EVALUATOR_TIMEOUT", 20),
		EmbeddingModel:    getEnv("EMBEDDING_MODEL", "all-minilm"),
		EmbeddingTimeout:  getEnvInt("EMBEDDING_TIMEOUT", 30),
		EmbeddingDim:      getEnvInt("EMBEDDING_DIM", 384),

		FetchTimeout: getEnvInt("FETCH_TIMEOUT", 10),

		MinQualityScore:    getEnvFloat("HARVEST_MIN_QUALITY", 2.0),
		MinConfidence:      getEnvFloat("HARVEST_MIN_CONFIDENCE", 0.7),
		PoliteDelaySeconds: getEnvInt("HARVEST_POLITE_DELAY", 2),

		EmbedMaxAttempts:     getEnvInt("EMBED_MAX_ATTEMPTS", 6),
		EmbedBaseDelaySecs:   getEnvInt("EMBED_BASE_DELAY", 2),
		BackfillBatchSize:    getEnvInt("BACKFILL_BATCH_SIZE", 100),
		BackfillIntervalMins: getEnvInt("BACKFILL_INTERVAL_MINUTES", 30),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
