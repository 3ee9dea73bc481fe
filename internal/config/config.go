package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers
const (
	StoreDriverFile     = "file"
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	AppEnv   string
	LogLevel string

	ServerPort string

	StoreDriver string
	DataDir     string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	RedisURL string

	JWTSecret         string
	AccessTokenMaxAge int

	SeedPassword       string
	SuperAdminUsername string

	OpenAIAPIKey   string
	OpenAIBaseURL  string
	OpenAIModel    string
	RankingTimeout time.Duration

	GitHubToken string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string
}

// MediaBucketConfigured reports whether uploads go to R2 instead of inline data URIs.
func (c *Config) MediaBucketConfigured() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicURL != ""
}

// RankingEnabled reports whether an API key for the ranking model is present.
func (c *Config) RankingEnabled() bool {
	return c.OpenAIAPIKey != ""
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	accessTokenMaxAge, err := strconv.Atoi(os.Getenv("ACCESS_TOKEN_MAX_AGE"))
	if err != nil || accessTokenMaxAge <= 0 {
		accessTokenMaxAge = 86400
	}

	rankingTimeoutSeconds, err := strconv.Atoi(os.Getenv("RANKING_TIMEOUT_SECONDS"))
	if err != nil || rankingTimeoutSeconds <= 0 {
		rankingTimeoutSeconds = 15
	}

	storeDriver := strings.ToLower(strings.TrimSpace(os.Getenv("STORE_DRIVER")))
	switch storeDriver {
	case StoreDriverFile, StoreDriverPostgres, StoreDriverMemory:
	case "":
		storeDriver = StoreDriverFile
	default:
		log.Printf("Unknown STORE_DRIVER %q, falling back to %q", storeDriver, StoreDriverFile)
		storeDriver = StoreDriverFile
	}

	return &Config{
		AppEnv:   getEnv("APP_ENV", "production"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		ServerPort: getEnv("SERVER_PORT", "8080"),

		StoreDriver: storeDriver,
		DataDir:     getEnv("DATA_DIR", "./data"),

		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBSSLMode:  getEnv("DB_SSLMODE", "require"),

		RedisURL: os.Getenv("REDIS_URL"),

		JWTSecret:         os.Getenv("JWT_SECRET"),
		AccessTokenMaxAge: accessTokenMaxAge,

		SeedPassword:       getEnv("SEED_PASSWORD", "changeme"),
		SuperAdminUsername: getEnv("SUPER_ADMIN_USERNAME", "nafadmin"),

		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:  os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		RankingTimeout: time.Duration(rankingTimeoutSeconds) * time.Second,

		GitHubToken: os.Getenv("GITHUB_TOKEN"),

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicURL:       os.Getenv("R2_PUBLIC_URL"),
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
