package config

import (
	"log"
	"os"

	"pense-backend/internal/models"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const (
	BackendLocal = "local"
	BackendSheet = "sheet"
)

type Config struct {
	HTTPPort    string
	AppEnv      string // development | production
	JWTSecret   string
	CORSOrigins string

	// StoreBackend selects where records live: "local" (SQL database) or
	// "sheet" (Apps Script web app in front of the spreadsheet).
	StoreBackend    string
	DatabaseDSN     string
	SheetsWebAppURL string

	// The two static identities. Passwords are hashed at load time; only the
	// hashes are kept in memory.
	Users []models.User
}

func Load() *Config {
	// .env is optional, real deployments set the environment directly
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		AppEnv:          getEnv("APP_ENV", "development"),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		CORSOrigins:     getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		StoreBackend:    getEnv("STORE_BACKEND", BackendLocal),
		DatabaseDSN:     getEnv("DATABASE_DSN", "pense.db"),
		SheetsWebAppURL: getEnv("SHEETS_WEBAPP_URL", ""),
	}

	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET is not set, refusing to start")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET must be at least 32 characters")
	}
	if cfg.StoreBackend != BackendLocal && cfg.StoreBackend != BackendSheet {
		log.Fatalf("[FATAL] STORE_BACKEND must be %q or %q, got %q", BackendLocal, BackendSheet, cfg.StoreBackend)
	}
	if cfg.StoreBackend == BackendSheet && cfg.SheetsWebAppURL == "" {
		log.Fatal("[FATAL] SHEETS_WEBAPP_URL is required with STORE_BACKEND=sheet")
	}

	adminUser := getEnv("ADMIN_USERNAME", "admin")
	adminPass := getEnv("ADMIN_PASSWORD", "1234")
	agentUser := getEnv("AGENT_USERNAME", "agent")
	agentPass := getEnv("AGENT_PASSWORD", "1234")
	if adminPass == "1234" || agentPass == "1234" {
		log.Println("[WARN] default credentials in use, set ADMIN_PASSWORD and AGENT_PASSWORD for production")
	}

	cfg.Users = []models.User{
		{Username: adminUser, PasswordHash: mustHash(adminPass), Role: models.RoleFull},
		{Username: agentUser, PasswordHash: mustHash(agentPass), Role: models.RoleLimited},
	}

	return cfg
}

func mustHash(password string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("[FATAL] could not hash password: %v", err)
	}
	return string(hash)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
