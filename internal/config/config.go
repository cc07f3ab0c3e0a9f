package config

import (
	"encoding/json"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	ServerAddress string     `json:"serverAddress"`
	PrivateStore  Store      `json:"privateStore"`
	PublicStore   Store      `json:"publicStore"`
	LocalState    LocalState `json:"localState"`
	Security      Security   `json:"security"`
	Sync          Sync       `json:"sync"`
}

// Store configures one of the two record stores. A non-empty DatabaseURL
// selects PostgreSQL; otherwise the store runs on a local SQLite file.
type Store struct {
	DatabasePath string `json:"databasePath"`
	DatabaseURL  string `json:"databaseUrl"`
}

// UsePostgres returns true if PostgreSQL should be used
func (s Store) UsePostgres() bool {
	return s.DatabaseURL != ""
}

// LocalState configures the durable keyed blob store that holds pending pins
// and the retry queue.
type LocalState struct {
	// Backend is one of "sqlite", "redis", or "memory".
	Backend       string `json:"backend"`
	DatabasePath  string `json:"databasePath"`
	RedisAddr     string `json:"redisAddr"`
	RedisPassword string `json:"redisPassword"`
	RedisDB       int    `json:"redisDb"`
}

// Security configuration
type Security struct {
	APIKey       string `json:"apiKey"`
	APIKeyHeader string `json:"apiKeyHeader"`
}

// Sync holds the reconciliation-layer tunables.
type Sync struct {
	SaveTimeoutSeconds   int `json:"saveTimeoutSeconds"`
	ProbeIntervalSeconds int `json:"probeIntervalSeconds"`
}

// Default configuration
func defaultConfig() *Config {
	return &Config{
		ServerAddress: ":5000",
		PrivateStore:  Store{DatabasePath: "pinsync_private.db"},
		PublicStore:   Store{DatabasePath: "pinsync_public.db"},
		LocalState: LocalState{
			Backend:      "sqlite",
			DatabasePath: "pinsync_state.db",
			RedisAddr:    "localhost:6379",
		},
		Security: Security{
			APIKey:       "CHANGE_THIS_TO_A_SECURE_API_KEY_AT_LEAST_32_CHARS",
			APIKeyHeader: "X-API-Key",
		},
		Sync: Sync{
			SaveTimeoutSeconds:   30,
			ProbeIntervalSeconds: 15,
		},
	}
}

// Load loads configuration from file or environment
func Load() (*Config, error) {
	cfg := defaultConfig()

	// Try to load from config file
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.json"
	}

	if data, err := os.ReadFile(configPath); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	// Override from environment variables
	if addr := os.Getenv("SERVER_ADDRESS"); addr != "" {
		cfg.ServerAddress = addr
	}
	if path := os.Getenv("PRIVATE_DATABASE_PATH"); path != "" {
		cfg.PrivateStore.DatabasePath = path
	}
	if url := os.Getenv("PRIVATE_DATABASE_URL"); url != "" {
		cfg.PrivateStore.DatabaseURL = url
	}
	if path := os.Getenv("PUBLIC_DATABASE_PATH"); path != "" {
		cfg.PublicStore.DatabasePath = path
	}
	if url := os.Getenv("PUBLIC_DATABASE_URL"); url != "" {
		cfg.PublicStore.DatabaseURL = url
	}
	if backend := os.Getenv("LOCAL_STATE_BACKEND"); backend != "" {
		cfg.LocalState.Backend = backend
	}
	if path := os.Getenv("LOCAL_STATE_PATH"); path != "" {
		cfg.LocalState.DatabasePath = path
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.LocalState.RedisAddr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.LocalState.RedisPassword = password
	}
	if db := os.Getenv("REDIS_DB"); db != "" {
		if n, err := strconv.Atoi(db); err == nil && n >= 0 {
			cfg.LocalState.RedisDB = n
		}
	}
	if apiKey := os.Getenv("API_KEY"); apiKey != "" {
		cfg.Security.APIKey = apiKey
	}
	if timeout := os.Getenv("SAVE_TIMEOUT_SECONDS"); timeout != "" {
		if n, err := strconv.Atoi(timeout); err == nil && n > 0 {
			cfg.Sync.SaveTimeoutSeconds = n
		}
	}
	if interval := os.Getenv("PROBE_INTERVAL_SECONDS"); interval != "" {
		if n, err := strconv.Atoi(interval); err == nil && n > 0 {
			cfg.Sync.ProbeIntervalSeconds = n
		}
	}

	return cfg, nil
}
