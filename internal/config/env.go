// Package config provides centralized configuration management.
// Eliminates scattered os.Getenv calls across the codebase.
package config

import (
	"os"
	"path/filepath"
	"sync"
)

// AegisEnv holds all aegis environment variables.
type AegisEnv struct {
	// SessionID is the current session identifier (AEGIS_SESSION_ID)
	SessionID string

	// Autonomy is the startup autonomy level override (AEGIS_AUTONOMY)
	Autonomy string

	// Subagent marks this process as a spawned subagent (AEGIS_SUBAGENT)
	Subagent bool

	// ProviderURL is the inference endpoint (AEGIS_PROVIDER_URL)
	ProviderURL string

	// Model is the model name passed to the inference endpoint (AEGIS_MODEL)
	Model string

	// APIKey is the bearer token for the endpoint, empty for local
	// servers (AEGIS_API_KEY)
	APIKey string

	// RuleFile overrides the policy rule file path (AEGIS_RULES)
	RuleFile string

	// DataDir overrides the data directory (AEGIS_DATA_DIR)
	DataDir string
}

var (
	env     *AegisEnv
	envOnce sync.Once
)

// Env returns the singleton environment configuration.
// Thread-safe, loads once on first call.
func Env() *AegisEnv {
	envOnce.Do(func() {
		env = &AegisEnv{
			SessionID:   os.Getenv("AEGIS_SESSION_ID"),
			Autonomy:    os.Getenv("AEGIS_AUTONOMY"),
			Subagent:    os.Getenv("AEGIS_SUBAGENT") == "1",
			ProviderURL: getEnvDefault("AEGIS_PROVIDER_URL", "http://127.0.0.1:8080/v1/chat/completions"),
			Model:       getEnvDefault("AEGIS_MODEL", "local"),
			APIKey:      os.Getenv("AEGIS_API_KEY"),
			RuleFile:    os.Getenv("AEGIS_RULES"),
			DataDir:     os.Getenv("AEGIS_DATA_DIR"),
		}
	})
	return env
}

// ResetEnv resets the cached environment (for testing).
func ResetEnv() {
	envOnce = sync.Once{}
	env = nil
	pathsOnce = sync.Once{}
	paths = nil
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Paths holds standard aegis directory paths.
type Paths struct {
	// Home is the aegis home directory (~/.aegis)
	Home string

	// Data is the data directory (~/.aegis/data)
	Data string

	// Database is the sqlite database path (~/.aegis/data/aegis.db)
	Database string

	// Journal is the audit journal directory (~/.aegis/data/journal)
	Journal string

	// Memory is the agent memory file (~/.aegis/memory.md)
	Memory string

	// Rules is the default policy rule file (~/.aegis/policy.rules)
	Rules string

	// ConfigFile is the JSON config file (~/.aegis/config.json)
	ConfigFile string
}

var (
	paths     *Paths
	pathsOnce sync.Once
)

// GetPaths returns the singleton paths configuration.
func GetPaths() *Paths {
	pathsOnce.Do(func() {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		aegisHome := filepath.Join(home, ".aegis")

		data := filepath.Join(aegisHome, "data")
		if override := Env().DataDir; override != "" {
			data = override
		}

		paths = &Paths{
			Home:       aegisHome,
			Data:       data,
			Database:   filepath.Join(data, "aegis.db"),
			Journal:    filepath.Join(data, "journal"),
			Memory:     filepath.Join(aegisHome, "memory.md"),
			Rules:      filepath.Join(aegisHome, "policy.rules"),
			ConfigFile: filepath.Join(aegisHome, "config.json"),
		}
	})
	return paths
}

// Path returns a path under the aegis home directory.
// Equivalent to filepath.Join(~/.aegis, parts...)
func Path(parts ...string) string {
	p := GetPaths()
	allParts := append([]string{p.Home}, parts...)
	return filepath.Join(allParts...)
}

// EnsureDir creates a directory if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// InSubagent reports whether this process runs as a spawned subagent.
// Spawning is refused in that case to keep recursion depth at one.
func InSubagent() bool {
	return Env().Subagent
}
