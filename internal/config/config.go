package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Config carries everything the server and sweeps need from the environment.
type Config struct {
	Env      string
	HTTPPort string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisAddr     string
	RedisPassword string

	KafkaBrokers string
	KafkaTopic   string

	JWTSecret string

	SiteURL     string
	SitemapPath string

	Compression string

	SessionTTL      time.Duration
	PublishSweep    string
	SessionSweep    string
	QueueMaxRetries int
}

// LoadConfig reads .env when present and falls back to defaults suitable for
// local development.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Debugf("no .env file loaded: %v", err)
	}

	return &Config{
		Env:      env("ENV", "dev"),
		HTTPPort: env("HTTP_PORT", "4040"),

		DBHost:     env("DB_HOST", "localhost"),
		DBPort:     env("DB_PORT", "5432"),
		DBUser:     env("DB_USER", "inkpost"),
		DBPassword: env("DB_PASSWORD", "inkpost"),
		DBName:     env("DB_NAME", "inkpost"),

		RedisAddr:     env("REDIS_ADDR", "localhost:6379"),
		RedisPassword: env("REDIS_PASSWORD", ""),

		KafkaBrokers: env("KAFKA_BROKERS", ""),
		KafkaTopic:   env("KAFKA_TOPIC", "post.published"),

		JWTSecret: env("JWT_SECRET", ""),

		SiteURL:     env("SITE_URL", "http://localhost:4040"),
		SitemapPath: env("SITEMAP_PATH", "./sitemap.xml"),

		Compression: env("CONTENT_COMPRESSION", "none"),

		SessionTTL:      envDuration("SESSION_TTL", 30*time.Minute),
		PublishSweep:    env("PUBLISH_SWEEP_SCHEDULE", "@every 1m"),
		SessionSweep:    env("SESSION_SWEEP_SCHEDULE", "@every 5m"),
		QueueMaxRetries: envInt("QUEUE_MAX_RETRIES", 3),
	}
}

// GetDb opens the configured database. Test env uses a local sqlite file so
// the suite can run without a postgres instance.
func GetDb(cnf *Config) *gorm.DB {
	if cnf.Env == "test" {
		db, err := gorm.Open(sqlite.Open(".test/inkpost.db"), &gorm.Config{})
		if err != nil {
			logrus.Fatalf("failed to open sqlite database: %v", err)
		}
		return db
	}

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		cnf.DBHost, cnf.DBUser, cnf.DBPassword, cnf.DBName, cnf.DBPort)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logrus.Fatalf("failed to connect to postgres: %v", err)
	}

	return db
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logrus.Warnf("invalid value for %s: %v", key, err)
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logrus.Warnf("invalid value for %s: %v", key, err)
		return fallback
	}
	return d
}
