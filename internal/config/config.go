package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Provider exposes application configuration to the rest of the system.
// Components depend on this interface rather than the concrete Config so
// tests can substitute their own values.
type Provider interface {
	GetAddr() string
	GetDBUrl() string
	GetDBNs() string
	GetDBDb() string
	GetDBUser() string
	GetDBPass() string
	GetSessionSecret() string
	GetUploadDir() string
	GetAppBaseURL() string
}

// Config holds all configuration for the application, loaded from the
// environment.
type Config struct {
	Addr          string
	DBUrl         string
	DBNs          string
	DBDb          string
	DBUser        string
	DBPass        string
	SessionSecret string
	UploadDir     string
	AppBaseURL    string
}

// New loads configuration from environment variables, reading a .env file
// first if one is present.
func New() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		Addr:          getEnv("APP_ADDR", ":8080"),
		DBUrl:         os.Getenv("SURREAL_URL"),
		DBNs:          os.Getenv("SURREAL_NS"),
		DBDb:          os.Getenv("SURREAL_DB"),
		DBUser:        os.Getenv("SURREAL_USER"),
		DBPass:        os.Getenv("SURREAL_PASS"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		UploadDir:     getEnv("UPLOAD_DIR", "uploads"),
		AppBaseURL:    getEnv("APP_BASE_URL", "http://localhost:8080"),
	}

	if cfg.DBUrl == "" || cfg.DBNs == "" || cfg.DBDb == "" {
		log.Fatal("Required environment variables SURREAL_URL, SURREAL_NS, or SURREAL_DB are not set.")
	}
	if cfg.SessionSecret == "" {
		log.Fatal("Required environment variable SESSION_SECRET is not set.")
	}

	return cfg
}

// getEnv reads an environment variable with a fallback default.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (c *Config) GetAddr() string          { return c.Addr }
func (c *Config) GetDBUrl() string         { return c.DBUrl }
func (c *Config) GetDBNs() string          { return c.DBNs }
func (c *Config) GetDBDb() string          { return c.DBDb }
func (c *Config) GetDBUser() string        { return c.DBUser }
func (c *Config) GetDBPass() string        { return c.DBPass }
func (c *Config) GetSessionSecret() string { return c.SessionSecret }
func (c *Config) GetUploadDir() string     { return c.UploadDir }
func (c *Config) GetAppBaseURL() string    { return c.AppBaseURL }
