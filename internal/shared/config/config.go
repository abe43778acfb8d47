package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Port                   string
	CORSAllowOrigin        []string
	Env                    string
	DatabaseURL            string
	StoreBackend           string
	SQLitePath             string
	ObjectStoreType        string
	LocalStoreDir          string
	AWSRegion              string
	S3Bucket               string
	S3Prefix               string
	SSEKMSKeyID            string
	AIProvider             string
	AIModel                string
	AIAPIKey               string
	AIAPIEndpoint          string
	AITemperature          float64
	AIMaxTokens            int
	AITimeout              time.Duration
	RecommendationCacheTTL time.Duration
	BatchQueueURL          string
	Calendar               IntegrationConfig
	Email                  IntegrationConfig
	Tasks                  IntegrationConfig
}

// IntegrationConfig describes one outbound integration used by action handlers.
type IntegrationConfig struct {
	Enabled         bool
	Provider        string
	Endpoint        string
	DefaultCalendar string
	DefaultProject  string
	ClientID        string
	ClientSecret    string
	TokenURL        string
}

// Load reads configuration from environment variables with sensible defaults.
// Values from .env files and an optional CONFIG_FILE are merged first; the
// environment always wins.
func Load() Config {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	// Best-effort load of local env files for dev convenience.
	mergeFiles(v, "env", ".env", "cmd/.env")
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		mergeFiles(v, "yaml", path)
	}

	env := normalizeEnv(v.GetString("ENV"))
	dbURL := strings.TrimSpace(v.GetString("DATABASE_URL"))
	backend := normalizeStoreBackend(v.GetString("STORE_BACKEND"), dbURL)
	if env == "production" && backend == "postgres" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Port:                   v.GetString("PORT"),
		CORSAllowOrigin:        splitAndTrim(v.GetString("CORS_ALLOW_ORIGINS")),
		Env:                    env,
		DatabaseURL:            dbURL,
		StoreBackend:           backend,
		SQLitePath:             v.GetString("SQLITE_PATH"),
		ObjectStoreType:        normalizeStoreType(v.GetString("OBJECT_STORE")),
		LocalStoreDir:          v.GetString("LOCAL_STORE_DIR"),
		AWSRegion:              v.GetString("AWS_REGION"),
		S3Bucket:               v.GetString("S3_BUCKET"),
		S3Prefix:               v.GetString("S3_PREFIX"),
		SSEKMSKeyID:            v.GetString("SSE_KMS_KEY_ID"),
		AIProvider:             strings.ToLower(strings.TrimSpace(v.GetString("AI_PROVIDER"))),
		AIModel:                v.GetString("AI_MODEL"),
		AIAPIKey:               strings.TrimSpace(v.GetString("AI_API_KEY")),
		AIAPIEndpoint:          v.GetString("AI_API_ENDPOINT"),
		AITemperature:          v.GetFloat64("AI_TEMPERATURE"),
		AIMaxTokens:            v.GetInt("AI_MAX_TOKENS"),
		AITimeout:              time.Duration(v.GetInt("AI_TIMEOUT_SECONDS")) * time.Second,
		RecommendationCacheTTL: v.GetDuration("RECOMMENDATION_CACHE_TTL"),
		BatchQueueURL:          strings.TrimSpace(v.GetString("BATCH_QUEUE_URL")),
		Calendar:               loadIntegration(v, "CALENDAR"),
		Email:                  loadIntegration(v, "EMAIL"),
		Tasks:                  loadIntegration(v, "TASKS"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "dev")
	v.SetDefault("CORS_ALLOW_ORIGINS", "http://localhost:5173")
	v.SetDefault("SQLITE_PATH", "./data/compliance.db")
	v.SetDefault("OBJECT_STORE", "local")
	v.SetDefault("LOCAL_STORE_DIR", "./data")
	v.SetDefault("AI_PROVIDER", "openai")
	v.SetDefault("AI_MODEL", "gpt-4o-mini")
	v.SetDefault("AI_TEMPERATURE", 0.3)
	v.SetDefault("AI_MAX_TOKENS", 1500)
	v.SetDefault("AI_TIMEOUT_SECONDS", 60)
	v.SetDefault("RECOMMENDATION_CACHE_TTL", time.Hour)
	for _, prefix := range []string{"CALENDAR", "EMAIL", "TASKS"} {
		v.SetDefault(prefix+"_ENABLED", false)
	}
}

func loadIntegration(v *viper.Viper, prefix string) IntegrationConfig {
	return IntegrationConfig{
		Enabled:         v.GetBool(prefix + "_ENABLED"),
		Provider:        v.GetString(prefix + "_PROVIDER"),
		Endpoint:        strings.TrimRight(strings.TrimSpace(v.GetString(prefix+"_ENDPOINT")), "/"),
		DefaultCalendar: v.GetString(prefix + "_DEFAULT_CALENDAR"),
		DefaultProject:  v.GetString(prefix + "_DEFAULT_PROJECT"),
		ClientID:        v.GetString(prefix + "_CLIENT_ID"),
		ClientSecret:    v.GetString(prefix + "_CLIENT_SECRET"),
		TokenURL:        v.GetString(prefix + "_TOKEN_URL"),
	}
}

// mergeFiles merges each readable file into v. Missing or malformed files are skipped.
func mergeFiles(v *viper.Viper, configType string, paths ...string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		v.SetConfigFile(path)
		v.SetConfigType(configType)
		if err := v.MergeInConfig(); err != nil {
			log.Printf("config: skip %s: %v", path, err)
		}
	}
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeStoreBackend(raw, dbURL string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "postgres", "pg":
		return "postgres"
	case "sqlite":
		return "sqlite"
	case "object", "snapshot":
		return "object"
	case "memory":
		return "memory"
	}
	if dbURL != "" {
		return "postgres"
	}
	return "memory"
}
