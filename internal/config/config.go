package config

import (
	"os"
	"time"
)

type Config struct {
	// MongoDB
	MongoURI    string
	MongoDBName string

	// Session tokens (shared secret, HS256)
	JWTSecret     string
	SessionExpiry time.Duration

	// Federated identity providers
	GoogleClientID    string
	MicrosoftClientID string

	// Server
	Port        string
	CORSOrigins string
}

func Load() *Config {
	return &Config{
		MongoURI:    getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDBName: getEnv("MONGODB_DB", "panelkit"),

		JWTSecret:     getEnv("JWT_SECRET", ""),
		SessionExpiry: parseDuration(getEnv("SESSION_EXPIRY", "24h")),

		GoogleClientID:    getEnv("GOOGLE_CLIENT_ID", ""),
		MicrosoftClientID: getEnv("MICROSOFT_CLIENT_ID", ""),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}
