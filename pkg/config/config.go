package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the main application configuration struct.
type Config struct {
	Port string
	Env  string

	JWTSecret string

	PostgresConnStr string
	MongoURI        string
	MongoDatabase   string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int

	// External TikTok capability (sidecar HTTP API + sync script).
	TikTokServiceURL string
	TikTokTimeout    time.Duration
	PythonBin        string
	SyncScript       string
	SyncTimeout      time.Duration

	// Pipeline pacing and schedule.
	UnfollowDelay     time.Duration
	InactiveCheckHour int
	AutoUnfollowHour  int
	SyncWeekday       time.Weekday
	SyncHour          int

	FirebaseCredentialsPath string

	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment, with a .env preload for
// local development.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("JWT_SECRET", "supersecretjwtkey")
	v.SetDefault("MONGO_DB", "tiktok-tracker")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("TIKTOK_SERVICE_URL", "http://localhost:5001")
	v.SetDefault("TIKTOK_TIMEOUT", "30s")
	v.SetDefault("PYTHON_BIN", "python3")
	v.SetDefault("SYNC_SCRIPT", "./python_service.py")
	v.SetDefault("SYNC_TIMEOUT", "5m")
	v.SetDefault("UNFOLLOW_DELAY", "1s")
	v.SetDefault("INACTIVE_CHECK_HOUR", 3)
	v.SetDefault("AUTO_UNFOLLOW_HOUR", 2)
	v.SetDefault("SYNC_WEEKDAY", 0) // Sunday
	v.SetDefault("SYNC_HOUR", 4)
	v.SetDefault("FIREBASE_CREDENTIALS_PATH", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	return &Config{
		Port:                    v.GetString("PORT"),
		Env:                     v.GetString("ENV"),
		JWTSecret:               v.GetString("JWT_SECRET"),
		PostgresConnStr:         v.GetString("POSTGRES_CONN_STR"),
		MongoURI:                v.GetString("MONGO_URI"),
		MongoDatabase:           v.GetString("MONGO_DB"),
		RedisAddr:               v.GetString("REDIS_ADDR"),
		RedisPassword:           v.GetString("REDIS_PASSWORD"),
		RedisDB:                 v.GetInt("REDIS_DB"),
		TikTokServiceURL:        v.GetString("TIKTOK_SERVICE_URL"),
		TikTokTimeout:           v.GetDuration("TIKTOK_TIMEOUT"),
		PythonBin:               v.GetString("PYTHON_BIN"),
		SyncScript:              v.GetString("SYNC_SCRIPT"),
		SyncTimeout:             v.GetDuration("SYNC_TIMEOUT"),
		UnfollowDelay:           v.GetDuration("UNFOLLOW_DELAY"),
		InactiveCheckHour:       v.GetInt("INACTIVE_CHECK_HOUR"),
		AutoUnfollowHour:        v.GetInt("AUTO_UNFOLLOW_HOUR"),
		SyncWeekday:             time.Weekday(v.GetInt("SYNC_WEEKDAY")),
		SyncHour:                v.GetInt("SYNC_HOUR"),
		FirebaseCredentialsPath: v.GetString("FIREBASE_CREDENTIALS_PATH"),
		LogLevel:                v.GetString("LOG_LEVEL"),
		LogFormat:               v.GetString("LOG_FORMAT"),
	}
}
