package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Admin     AdminConfig
	Mail      MailConfig
	S3        S3Config
	Redis     RedisConfig
	Kafka     KafkaConfig
	Scheduler SchedulerConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
	FrontendURL string
}

type DatabaseConfig struct {
	Driver   string // postgres, mysql, sqlite
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	Path     string // sqlite file
}

type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
	ResetTokenExpiry  time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

// AdminConfig holds the bootstrap administrator credentials.
type AdminConfig struct {
	Email    string
	Password string
}

type MailConfig struct {
	Host          string
	Port          int
	Username      string
	Password      string
	From          string
	SubjectPrefix string
}

// Enabled reports whether SMTP credentials were supplied.
func (c MailConfig) Enabled() bool {
	return c.Username != "" && c.Password != ""
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string // CloudFront or S3 direct URL
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type SchedulerConfig struct {
	Enabled           bool
	ReminderSpec      string
	AutoCompleteSpec  string
	StaleOrderAfter   time.Duration
	AutoCompleteAfter time.Duration
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
			FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "sqlite"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "threemeal"),
			Password: getEnv("DB_PASSWORD", "threemeal"),
			DBName:   getEnv("DB_NAME", "threemeal"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			Path:     getEnv("DB_PATH", "data-dev.sqlite"),
		},
		JWT: JWTConfig{
			Secret:            getEnv("SECRET_KEY", "you never guess"),
			AccessTokenExpiry: parseDuration(getEnv("JWT_ACCESS_TOKEN_EXPIRY", "24h"), 24*time.Hour),
			ResetTokenExpiry:  parseDuration(getEnv("RESET_TOKEN_EXPIRY", "1h"), time.Hour),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Admin: AdminConfig{
			Email:    getEnv("THREEMEAL_ADMIN", "admin@threemeal.com"),
			Password: getEnv("THREEMEAL_ADMIN_PWD", "123456"),
		},
		Mail: MailConfig{
			Host:          getEnv("MAIL_SERVER", "smtp.googlemail.com"),
			Port:          parseInt(getEnv("MAIL_PORT", "587"), 587),
			Username:      getEnv("MAIL_USERNAME", ""),
			Password:      getEnv("MAIL_PASSWORD", ""),
			From:          getEnv("MAIL_SENDER", "Three Meal Admin <admin@threemeal.com>"),
			SubjectPrefix: getEnv("MAIL_SUBJECT_PREFIX", "[Three Meal]"),
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			Bucket:          getEnv("AWS_S3_BUCKET", "threemeal-uploads"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			BaseURL:         getEnv("AWS_S3_BASE_URL", ""),
		},
		Redis: RedisConfig{
			Enabled:  getEnv("REDIS_ENABLED", "false") == "true",
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		},
		Kafka: KafkaConfig{
			Brokers: parseSlice(getEnv("KAFKA_BROKERS", "")),
			Topic:   getEnv("KAFKA_ORDER_TOPIC", "threemeal.orders"),
		},
		Scheduler: SchedulerConfig{
			Enabled:           getEnv("SCHEDULER_ENABLED", "true") == "true",
			ReminderSpec:      getEnv("ORDER_REMINDER_CRON", "0 * * * *"),
			AutoCompleteSpec:  getEnv("ORDER_AUTOCOMPLETE_CRON", "30 3 * * *"),
			StaleOrderAfter:   parseDuration(getEnv("ORDER_STALE_AFTER", "2h"), 2*time.Hour),
			AutoCompleteAfter: parseDuration(getEnv("ORDER_AUTOCOMPLETE_AFTER", "72h"), 72*time.Hour),
		},
	}

	if config.Server.Environment == "production" && config.JWT.Secret == "you never guess" {
		return nil, fmt.Errorf("SECRET_KEY must be set in production")
	}

	return config, nil
}

// DSN builds the driver specific connection string.
func (c *DatabaseConfig) DSN() string {
	switch c.Driver {
	case "mysql":
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			c.User, c.Password, c.Host, c.Port, c.DBName,
		)
	case "sqlite":
		return c.Path
	default:
		return fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
		)
	}
}

// Addr returns host:port for the redis client.
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, fallback)
		return fallback
	}
	return n
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
