package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	S3BucketName string
	ImageURLTTL  time.Duration

	JWTPublicKeyPath  string
	JWTPrivateKeyPath string // only needed to mint tokens locally
	JWTExpiry         time.Duration

	SNSRegion   string
	SNSTopicARN string // empty disables push fan-out

	RedisAddr      string // empty disables cache and background queue
	RedisPassword  string
	RedisDB        int
	LookupCacheTTL time.Duration

	RealtimeDebounce  time.Duration
	WorkerConcurrency int
	AllowedOrigins    []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Listings      string
	ListingImages string
	Brands        string
	Requests      string
	Notifications string
	Messages      string
	Profiles      string
	Likes         string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:        getEnv("APP_PORT", "3000"),
		AppEnv:         getEnv("APP_ENV", "development"),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Listings:      getEnv("DYNAMO_TABLE_LISTINGS", "listings"),
			ListingImages: getEnv("DYNAMO_TABLE_LISTING_IMAGES", "listing_images"),
			Brands:        getEnv("DYNAMO_TABLE_BRANDS", "brands"),
			Requests:      getEnv("DYNAMO_TABLE_REQUESTS", "phone_requests"),
			Notifications: getEnv("DYNAMO_TABLE_NOTIFICATIONS", "notifications"),
			Messages:      getEnv("DYNAMO_TABLE_MESSAGES", "messages"),
			Profiles:      getEnv("DYNAMO_TABLE_PROFILES", "profiles"),
			Likes:         getEnv("DYNAMO_TABLE_LIKES", "likes"),
		},
		S3BucketName:      getEnv("S3_BUCKET_NAME", "telbozor-images"),
		ImageURLTTL:       getEnvDuration("IMAGE_URL_TTL", time.Hour),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", ""),
		JWTExpiry:         getEnvDuration("JWT_EXPIRY", 7*24*time.Hour),
		SNSRegion:         getEnv("SNS_REGION", "us-east-1"),
		SNSTopicARN:       getEnv("SNS_TOPIC_ARN", ""),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		LookupCacheTTL:    getEnvDuration("LOOKUP_CACHE_TTL", 5*time.Minute),
		RealtimeDebounce:  getEnvDuration("REALTIME_DEBOUNCE", 250*time.Millisecond),
		WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 4),
		AllowedOrigins:    strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// getEnvDuration accepts Go duration strings ("250ms", "5m").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
