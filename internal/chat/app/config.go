package app

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	ProfileDir   string // Optional: directory for db/pepper/key files (default: ~/.elxora)
	DatabaseFile string // Optional: path to SQLite database file (default: <profile>/elxora.db)
	PepperFile   string // Optional: path to password-hash pepper file (default: <profile>/pepper)
	SessionKey   string // Optional: path to session signing key file (default: <profile>/session.key)

	Model      string // Optional: completion model name (default: gemini-1.5-flash)
	BaseURL    string // Optional: completion endpoint base URL
	MailerURL  string // Optional: code-delivery webhook URL (empty disables signup delivery)
	MailerEcho bool   // Optional: print verification codes to stderr instead of mailing (dev)

	SignupWindow         time.Duration // Optional: verification deadline (default: 10m)
	SendTimeout          time.Duration // Optional: remote completion deadline (default: 30s)
	HousekeepingInterval time.Duration // Optional: expired-signup sweep interval (default: 1m)

	Env       string // Environment (dev, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: text)
}

func LoadConfig() Config {
	profile := getEnvOrDefault("ELXORA_PROFILE_DIR", defaultProfileDir())

	return Config{
		ProfileDir:   profile,
		DatabaseFile: getEnvOrDefault("ELXORA_DATABASE_FILE", filepath.Join(profile, "elxora.db")),
		PepperFile:   getEnvOrDefault("ELXORA_PEPPER_FILE", filepath.Join(profile, "pepper")),
		SessionKey:   getEnvOrDefault("ELXORA_SESSION_KEY_FILE", filepath.Join(profile, "session.key")),

		Model:      getEnvOrDefault("ELXORA_MODEL", ""),
		BaseURL:    getEnvOrDefault("ELXORA_BASE_URL", ""),
		MailerURL:  os.Getenv("ELXORA_MAILER_URL"),
		MailerEcho: getEnvBoolOrDefault("ELXORA_MAILER_ECHO", false),

		SignupWindow:         getEnvDurationOrDefault("ELXORA_SIGNUP_WINDOW", 10*time.Minute),
		SendTimeout:          getEnvDurationOrDefault("ELXORA_SEND_TIMEOUT", 30*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("ELXORA_HOUSEKEEPING_INTERVAL", time.Minute),

		Env:       getEnvOrDefault("ENV", "dev"),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "text"),
	}
}

// defaultProfileDir is ~/.elxora, falling back to the working directory when
// the home directory cannot be determined.
func defaultProfileDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".elxora"
	}
	return filepath.Join(home, ".elxora")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers read as minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
