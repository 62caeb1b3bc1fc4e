package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr       string
	DBPath     string
	BackendURL string
	// AskTimeout borne l'attente d'une réponse de l'assistant.
	AskTimeout time.Duration
	// RecheckDelay est le délai avant l'unique re-vérification d'une
	// collection en cours de construction.
	RecheckDelay time.Duration
}

func Default() Config {
	return Config{
		Addr:         envOr("STERK_ADDR", "127.0.0.1:8090"),
		DBPath:       envOr("STERK_DB_PATH", "sterk-session.db"),
		BackendURL:   envOr("STERK_BACKEND_URL", "http://127.0.0.1:5001"),
		AskTimeout:   envDurationOr("STERK_ASK_TIMEOUT_SEC", 30*time.Second),
		RecheckDelay: envDurationOr("STERK_RECHECK_DELAY_SEC", 30*time.Second),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDurationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if sec, err := strconv.Atoi(v); err == nil && sec > 0 {
			return time.Duration(sec) * time.Second
		}
	}
	return def
}
