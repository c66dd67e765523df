package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

var AppEnv Config

type Config struct {
	MongoURI        string
	DBName          string
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// PlatformFeePercent is the fixed secondary percentage applied to every
	// settled order independently of the vendor commission.
	PlatformFeePercent float64
	// DefaultCommissionPercent backs vendors whose record carries no rate.
	DefaultCommissionPercent float64

	// AMQPURL, when set, routes dispatched notifications through RabbitMQ in
	// addition to the notifications collection.
	AMQPURL      string
	AMQPExchange string
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	AppEnv = Config{
		MongoURI:                 getEnvOrDefault("MONGO_URI", ""),
		DBName:                   getEnvOrDefault("DB_NAME", "foodcourt"),
		JWTSecret:                getEnvOrDefault("JWT_SECRET", ""),
		AccessTokenTTL:           getDurationEnv("ACCESS_TOKEN_TTL", 20, time.Minute),
		RefreshTokenTTL:          getDurationEnv("REFRESH_TOKEN_TTL", 7, 24*time.Hour),
		PlatformFeePercent:       getFloatEnv("PLATFORM_FEE_PERCENT", 3),
		DefaultCommissionPercent: getFloatEnv("DEFAULT_COMMISSION_PERCENT", 10),
		AMQPURL:                  getEnvOrDefault("AMQP_URL", ""),
		AMQPExchange:             getEnvOrDefault("AMQP_EXCHANGE", "notifications_topic"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed := cast.ToInt(value); parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed := cast.ToFloat64(value); parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}
