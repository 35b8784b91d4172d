package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	JWTSecret     string
	MongoURI      string
	DBName        string
	SkipAuth      bool
	Environment   string
	AllowOrigins  string
	FSPath        string // Physical directory for image uploads
	FSURL         string // URL path prefix for image access
	SweepSchedule string // Cron expression for the orphan upload sweep
	SweepMaxAge   string // Minimum age before an orphan file is removed
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file successfully")
	}

	return &Config{
		Port:          getEnv("PORT", "5000"),
		JWTSecret:     getEnv("JWT_SECRET", "secret"),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:        getEnv("DB_NAME", "facility-report"),
		SkipAuth:      getEnv("SKIP_AUTH", "false") == "true",
		Environment:   getEnv("ENVIRONMENT", "development"),
		AllowOrigins:  getEnv("ALLOW_ORIGINS", "http://localhost:3000"),
		FSPath:        getEnv("FS_PATH", "./uploads"),
		FSURL:         getEnv("FS_URL", "/uploads"),
		SweepSchedule: getEnv("SWEEP_SCHEDULE", "0 3 * * *"),
		SweepMaxAge:   getEnv("SWEEP_MAX_AGE", "24h"),
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
