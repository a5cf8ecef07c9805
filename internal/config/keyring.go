// keyring.go provides optional OS-keyring-backed storage for the LLM API
// key, grounded in pkg/goclaw/copilot/keyring.go but without that file's
// encrypted-vault tier — SPEC_FULL.md's dependency table scopes this to
// keyring-or-plain-config/env, so there is no master-password vault here.
package config

import (
	"fmt"
	"log/slog"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "icrab"
	keyringAPIKey  = "api_key"
)

// StoreKeyring saves a secret to the OS keyring.
func StoreKeyring(key, value string) error {
	return keyring.Set(keyringService, key, value)
}

// GetKeyring retrieves a secret from the OS keyring, returning "" if absent
// or the keyring is unavailable.
func GetKeyring(key string) string {
	val, err := keyring.Get(keyringService, key)
	if err != nil {
		return ""
	}
	return val
}

// DeleteKeyring removes a secret from the OS keyring.
func DeleteKeyring(key string) error {
	return keyring.Delete(keyringService, key)
}

// KeyringAvailable probes the OS keyring with a throwaway write+delete.
func KeyringAvailable() bool {
	const probeKey = "__icrab_probe__"
	if err := keyring.Set(keyringService, probeKey, "probe"); err != nil {
		return false
	}
	_ = keyring.Delete(keyringService, probeKey)
	return true
}

// ResolveAPIKey resolves cfg.LLM.APIKey using the priority chain keyring →
// config/env (resolveSecrets has already applied the env tier), updating
// cfg in place. The keyring is consulted first since it outranks a plain
// env var or config value; failures are silent — an unavailable or empty
// keyring simply leaves whatever resolveSecrets already set.
func ResolveAPIKey(cfg *Config, logger *slog.Logger) {
	if val := GetKeyring(keyringAPIKey); val != "" {
		cfg.LLM.APIKey = val
		logger.Debug("LLM API key loaded from OS keyring")
		return
	}
	if cfg.LLM.APIKey != "" && !IsEnvReference(cfg.LLM.APIKey) {
		logger.Debug("LLM API key loaded from config/env")
		return
	}
	logger.Warn("no LLM API key found", "hint", "set llm.api_key, ICRAB_LLM_API_KEY, or store one in the OS keyring")
}

// MigrateKeyToKeyring moves an API key into the OS keyring.
func MigrateKeyToKeyring(apiKey string, logger *slog.Logger) error {
	if err := StoreKeyring(keyringAPIKey, apiKey); err != nil {
		return fmt.Errorf("storing in keyring: %w", err)
	}
	logger.Info("LLM API key stored in OS keyring", "service", keyringService)
	return nil
}
