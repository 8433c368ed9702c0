package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        int
	DatabaseURL string
	NatsURL     string
	NatsToken   string
	LogLevel    string
	APIKey      string

	GroqAPIKey      string
	GroqRecoveryKey string
	Model           string
	FallbackModel   string
	AttemptTimeout  float64 // seconds, per LLM attempt
	GlobalBudget    float64 // seconds, whole fallback chain

	ScamThreshold      float64
	MaxTrackedSessions int

	PersonaName       string
	PersonaAge        int
	PersonaGender     string
	PersonaLocation   string
	PersonaOccupation string
	PersonaBank       string
	PersonaLanguage   string
}

func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:        envInt("LURE_PORT", 8490),
		DatabaseURL: envStr("DATABASE_URL", ""),
		NatsURL:     envStr("NATS_URL", ""),
		NatsToken:   envStr("NATS_TOKEN", ""),
		LogLevel:    envStr("LOG_LEVEL", "info"),
		APIKey:      envStr("LURE_API_KEY", ""),

		GroqAPIKey:      envStr("GROQ_API_KEY", ""),
		GroqRecoveryKey: envStr("GROQ_RECOVERY_KEY", ""),
		Model:           envStr("LLM_MODEL", "llama-3.1-8b-instant"),
		FallbackModel:   envStr("LLM_FALLBACK_MODEL", "llama-3.3-70b-versatile"),
		AttemptTimeout:  envFloat("LLM_TIMEOUT_SECONDS", 12.0),
		GlobalBudget:    envFloat("LLM_BUDGET_SECONDS", 24.0),

		ScamThreshold:      envFloat("SCAM_THRESHOLD", 0.30),
		MaxTrackedSessions: envInt("MAX_TRACKED_SESSIONS", 500),

		PersonaName:       envStr("PERSONA_NAME", "Priya Sharma"),
		PersonaAge:        envInt("PERSONA_AGE", 28),
		PersonaGender:     envStr("PERSONA_GENDER", "Female"),
		PersonaLocation:   envStr("PERSONA_LOCATION", "Mumbai, Andheri West"),
		PersonaOccupation: envStr("PERSONA_OCCUPATION", "Software Engineer"),
		PersonaBank:       envStr("PERSONA_BANK", "SBI"),
		PersonaLanguage:   envStr("PERSONA_LANGUAGE", "English"),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
