// Package config reads process settings from the environment.
package config

import "os"

type Config struct {
	Port     string
	GinMode  string
	LogLevel string
}

func Load() Config {
	return Config{
		Port:     getEnv("PORT", "8080"),
		GinMode:  getEnv("GIN_MODE", "release"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
