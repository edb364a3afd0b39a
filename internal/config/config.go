package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

type RateLimitConfig struct {
	PerMinute int `yaml:"perMinute"`
}

// DownloadsConfig controls the asynchronous media download pipeline.
type DownloadsConfig struct {
	MaxConcurrentJobs     int    `yaml:"maxConcurrentJobs"`
	MaxJobDurationMinutes int    `yaml:"maxJobDurationMinutes"`
	ScratchRoot           string `yaml:"scratchRoot"`
	MP3BitrateKbps        int    `yaml:"mp3BitrateKbps"`
}

// RetentionConfig controls TTL deletion of terminal download-job rows
// so that the jobs table does not grow without bound. The pipeline
// itself never deletes rows; this is a separate janitor, off by default.
type RetentionConfig struct {
	Enabled                bool `yaml:"enabled"`
	CleanupIntervalMinutes int  `yaml:"cleanupIntervalMinutes"`
	JobDays                int  `yaml:"jobDays"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	Downloads DownloadsConfig `yaml:"downloads"`
	Retention RetentionConfig `yaml:"retention"`
}

func Load(path string) *Config {
	// .env is optional; it only feeds the environment overrides below.
	_ = godotenv.Load()

	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("failed to open config file: %v", err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		log.Fatalf("failed to decode config: %v", err)
	}

	// Connection strings may come from the environment so the YAML file
	// can be committed without them.
	if dsn := os.Getenv("CURRIDATA_DATABASE_DSN"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if url := os.Getenv("CURRIDATA_REDIS_URL"); url != "" {
		cfg.Redis.URL = url
	}

	return &cfg
}
