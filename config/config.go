package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort int
	Database   DatabaseConfig
	JWT        JWTConfig
	Tokens     TokenConfig
	Storage    StorageConfig
	Mail       MailConfig
	SMTP       SMTPConfig
	RabbitMQ   RabbitMQConfig
	PubSub     PubSubConfig
	Minio      MinioConfig
	GCS        GCSConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

// JWTConfig holds the signing secrets and lifetimes for access and
// refresh tokens. The two token kinds use separate secrets so either
// can be rotated independently.
type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// TokenConfig holds the validity windows for the opaque single-use
// verification and password-reset codes.
type TokenConfig struct {
	VerificationTTL  time.Duration
	PasswordResetTTL time.Duration
}

// StorageConfig selects the object storage backend for uploaded images.
type StorageConfig struct {
	Provider string // "minio" or "gcs"
}

// MailConfig selects how outbound email is dispatched. With provider
// "smtp" the server sends directly; with "queue" it publishes jobs to
// the configured broker and the mail-worker command delivers them.
type MailConfig struct {
	Provider string // "smtp" or "queue"
	Queue    string // "rabbitmq" or "pubsub"
	Channel  string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// BaseURL is the public URL of the API, used to build the
	// verification and reset links embedded in emails.
	BaseURL string
}

type RabbitMQConfig struct {
	URL             string
	QueueDurable    bool
	QueueAutoDelete bool
	PrefetchCount   int
}

type PubSubConfig struct {
	ProjectID          string
	CredentialsFile    string
	SubscriptionSuffix string
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type GCSConfig struct {
	ProjectID       string
	Bucket          string
	CredentialsFile string
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "inkpress"),
		Password: getEnv("DB_PASSWORD", "password"),
		DBName:   getEnv("DB_NAME", "inkpress_db"),
		UseSSL:   getEnvBool("DB_USE_SSL", false),
	}

	return Config{
		ServerPort: getEnvInt("SERVER_PORT", 8080),
		Database:   dbConfig,
		JWT: JWTConfig{
			AccessSecret:  getEnv("ACCESS_TOKEN_SECRET", ""),
			RefreshSecret: getEnv("REFRESH_TOKEN_SECRET", ""),
			AccessTTL:     getEnvDuration("ACCESS_TOKEN_EXPIRY", 15*time.Minute),
			RefreshTTL:    getEnvDuration("REFRESH_TOKEN_EXPIRY", 7*24*time.Hour),
		},
		Tokens: TokenConfig{
			VerificationTTL:  getEnvDuration("VERIFICATION_TOKEN_EXPIRY", 24*time.Hour),
			PasswordResetTTL: getEnvDuration("PASSWORD_RESET_TOKEN_EXPIRY", 15*time.Minute),
		},
		Storage: StorageConfig{
			Provider: getEnv("STORAGE_PROVIDER", "minio"),
		},
		Mail: MailConfig{
			Provider: getEnv("MAIL_PROVIDER", "smtp"),
			Queue:    getEnv("MAIL_QUEUE", "rabbitmq"),
			Channel:  getEnv("MAIL_CHANNEL", "email-jobs"),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("EMAIL_HOST", "localhost"),
			Port:     getEnvInt("EMAIL_PORT", 587),
			Username: getEnv("EMAIL_USER", ""),
			Password: getEnv("EMAIL_PASSWORD", ""),
			From:     getEnv("EMAIL_FROM", getEnv("EMAIL_USER", "")),
			BaseURL:  getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:             getEnv("RABBITMQ_URL", ""),
			QueueDurable:    getEnvBool("RABBITMQ_QUEUE_DURABLE", true),
			QueueAutoDelete: getEnvBool("RABBITMQ_QUEUE_AUTO_DELETE", false),
			PrefetchCount:   getEnvInt("RABBITMQ_PREFETCH_COUNT", 1),
		},
		PubSub: PubSubConfig{
			ProjectID:          getEnv("PUBSUB_PROJECT_ID", ""),
			CredentialsFile:    getEnv("PUBSUB_CREDENTIALS_FILE", ""),
			SubscriptionSuffix: getEnv("PUBSUB_SUBSCRIPTION_SUFFIX", "-sub"),
		},
		Minio: MinioConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "inkpress-media"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		GCS: GCSConfig{
			ProjectID:       getEnv("GCS_PROJECT_ID", ""),
			Bucket:          getEnv("GCS_BUCKET", ""),
			CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		return valueStr == "true" || valueStr == "1"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := time.ParseDuration(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}
