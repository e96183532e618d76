package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the service reads from the environment.
type Config struct {
	Port string

	// BackendURL is the base URL of the scheduling backend API.
	BackendURL string
	// SessionURL is the base URL of the session provider.
	SessionURL string
	// LoginURL is where unauthenticated browsers are redirected.
	LoginURL string

	MongoURI string
	DBName   string

	RedisAddr     string
	RedisPassword string

	PollInterval    time.Duration
	PollMaxAttempts int
}

// Load reads configuration from the environment, .env values taking
// precedence over inherited ones. Missing required variables are fatal.
func Load() Config {
	if err := godotenv.Overload(".env"); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := Config{
		Port:            getenv("PORT", "3000"),
		BackendURL:      os.Getenv("BACKEND_API_URL"),
		SessionURL:      os.Getenv("SESSION_API_URL"),
		LoginURL:        getenv("LOGIN_URL", "/auth/login"),
		MongoURI:        os.Getenv("MONGO_URI"),
		DBName:          os.Getenv("DB_NAME"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		PollInterval:    time.Duration(getint("POLL_INTERVAL_MS", 2000)) * time.Millisecond,
		PollMaxAttempts: getint("POLL_MAX_ATTEMPTS", 5),
	}

	if cfg.BackendURL == "" || cfg.SessionURL == "" {
		log.Fatal("BACKEND_API_URL or SESSION_API_URL not set in environment")
	}
	if cfg.MongoURI == "" || cfg.DBName == "" {
		log.Fatal("MONGO_URI or DB_NAME not set in environment")
	}
	if cfg.RedisAddr == "" {
		log.Fatal("REDIS_ADDR not set in environment")
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("%s must be an integer, got %q", key, v)
	}
	return n
}
