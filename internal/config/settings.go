package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Settings holds the persisted application configuration. The autonomy
// level recorded here is only the startup default; session overrides from
// the --autonomy flag or the interactive picker are never written back.
type Settings struct {
	Autonomy           string `json:"autonomy"`
	ConfirmDestructive bool   `json:"confirmDestructive"`
	MaxWriteBytes      int64  `json:"maxWriteBytes"`
	MaxFilesCreated    int64  `json:"maxFilesCreated"`
	MaxCallsPerPrompt  int64  `json:"maxCallsPerPrompt"`
	MaxCallsPerSession int64  `json:"maxCallsPerSession"`
	ShellTimeoutSecs   int    `json:"shellTimeoutSecs"`
	WriteCooldownMs    int    `json:"writeCooldownMs"`
	MaxIterations      int    `json:"maxIterations"`
	ContextWindow      int    `json:"contextWindow"`
	KeepLastMessages   int    `json:"keepLastMessages"`
	MaxSubagents       int    `json:"maxSubagents"`
	SubagentCeilingSec int    `json:"subagentCeilingSecs"`
}

// DefaultSettings returns the default configuration.
func DefaultSettings() *Settings {
	return &Settings{
		Autonomy:           "observe",
		ConfirmDestructive: true,
		MaxWriteBytes:      10 << 20,
		MaxFilesCreated:    50,
		MaxCallsPerPrompt:  25,
		MaxCallsPerSession: 200,
		ShellTimeoutSecs:   120,
		WriteCooldownMs:    1000,
		MaxIterations:      8,
		ContextWindow:      32768,
		KeepLastMessages:   10,
		MaxSubagents:       3,
		SubagentCeilingSec: 600,
	}
}

// LoadSettings loads configuration from the config file, falling back to
// defaults for anything missing. A missing file is not an error.
func LoadSettings() (*Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(GetPaths().ConfigFile)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return s, nil
}

// Save writes the settings to the config file.
func (s *Settings) Save() error {
	path := GetPaths().ConfigFile
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ShellTimeout returns the shell timeout as a duration.
func (s *Settings) ShellTimeout() time.Duration {
	return time.Duration(s.ShellTimeoutSecs) * time.Second
}

// WriteCooldown returns the write cooldown as a duration.
func (s *Settings) WriteCooldown() time.Duration {
	return time.Duration(s.WriteCooldownMs) * time.Millisecond
}

// SubagentCeiling returns the subagent wall-clock ceiling as a duration.
func (s *Settings) SubagentCeiling() time.Duration {
	return time.Duration(s.SubagentCeilingSec) * time.Second
}
