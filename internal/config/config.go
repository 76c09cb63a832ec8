package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port          string
	BinURL        string
	BinAccessKey  string
	ImageHostURL  string
	ImageHostKey  string
	ImageDBPath   string
	PollInterval  time.Duration
	MaxImageBytes int
}

func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8081"),
		BinURL:        getEnv("BIN_URL", "https://api.jsonbin.io/v3/b/REPLACE_WITH_BIN_ID"),
		BinAccessKey:  getEnv("BIN_ACCESS_KEY", ""),
		ImageHostURL:  getEnv("IMAGE_HOST_URL", "https://api.imgbb.com/1/upload"),
		ImageHostKey:  getEnv("IMAGE_HOST_KEY", ""),
		ImageDBPath:   getEnv("IMAGE_DB_PATH", "diancan-images.db"),
		PollInterval:  time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 5)) * time.Second,
		MaxImageBytes: getEnvInt("MAX_IMAGE_BYTES", 2<<20),
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
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
