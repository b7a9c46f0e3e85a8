package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by MNEMOS_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("MNEMOS_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

// Config is a snapshot of the env-derived settings the server wires
// into services. Built once at startup via FromEnv.
type Config struct {
	DatabasePath          string
	ServerPort            int
	RateLimitRPS          float64
	RateLimitBurst        int
	SignificanceThreshold int
	SweepCronSpec         string
	LogLevel              string
}

func FromEnv() *Config {
	return &Config{
		DatabasePath:          DatabasePath(),
		ServerPort:            ServerPort(),
		RateLimitRPS:          RateLimitRPS(),
		RateLimitBurst:        RateLimitBurst(),
		SignificanceThreshold: SignificanceThreshold(),
		SweepCronSpec:         SweepCronSpec(),
		LogLevel:              LogLevel(),
	}
}

func (c *Config) ServerAddr() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

// DatabasePath returns the SQLite file location.
// Defaults to ~/.mnemos/mnemos.db.
func DatabasePath() string {
	if p := os.Getenv("MNEMOS_DB"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "mnemos.db"
	}
	return filepath.Join(home, ".mnemos", "mnemos.db")
}

// SignificanceThreshold returns the event significance at which a
// backup signal is written. Defaults to 8.
func SignificanceThreshold() int {
	t, err := strconv.Atoi(os.Getenv("SIGNIFICANCE_THRESHOLD"))
	if err != nil || t < 0 || t > 10 {
		return 8
	}
	return t
}

// SweepCronSpec returns the schedule for the periodic forgetting
// sweep. Defaults to daily at 03:00.
func SweepCronSpec() string {
	spec := os.Getenv("SWEEP_CRON")
	if spec == "" {
		return "0 3 * * *"
	}
	return spec
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}
