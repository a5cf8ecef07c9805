package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseConfigOverlaysDefaults(t *testing.T) {
	yaml := []byte(`
llm:
  model: gpt-4o
agent:
  max_iterations: 10
`)
	cfg, err := ParseConfig(yaml)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.LLM.Model != "gpt-4o" {
		t.Fatalf("expected overlay to win, got %q", cfg.LLM.Model)
	}
	if cfg.LLM.Provider != "openai" {
		t.Fatalf("expected default provider to survive, got %q", cfg.LLM.Provider)
	}
	if cfg.Agent.MaxIterations != 10 {
		t.Fatalf("expected overlaid max_iterations, got %d", cfg.Agent.MaxIterations)
	}
	if cfg.Heartbeat.IntervalMinutes != 30 {
		t.Fatalf("expected default heartbeat interval to survive, got %d", cfg.Heartbeat.IntervalMinutes)
	}
}

func TestParseConfigRejectsMalformedYAML(t *testing.T) {
	if _, err := ParseConfig([]byte("llm: [this is not a mapping")); err == nil {
		t.Fatalf("expected parse error for malformed YAML")
	}
}

func TestLoadConfigFromFileExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_ICRAB_MODEL", "env-model")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "llm:\n  model: ${TEST_ICRAB_MODEL}\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadConfigFromFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFromFile: %v", err)
	}
	if cfg.LLM.Model != "env-model" {
		t.Fatalf("expected expanded model, got %q", cfg.LLM.Model)
	}
}

func TestLoadConfigFromFileMissingFileIsConfigError(t *testing.T) {
	_, err := LoadConfigFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("expected error for missing config file")
	}
	var cerr *Error
	if !asError(err, &cerr) {
		t.Fatalf("expected *config.Error, got %T: %v", err, err)
	}
}

func TestLoadConfigFromFileInvalidFailsValidation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("llm:\n  model: \"\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadConfigFromFile(path); err == nil {
		t.Fatalf("expected validation error for empty model")
	}
}

func TestResolveSecretsPrefersExistingConfigValue(t *testing.T) {
	t.Setenv("ICRAB_LLM_API_KEY", "from-env")
	cfg := DefaultConfig()
	cfg.LLM.APIKey = "from-config"
	resolveSecrets(cfg)
	if cfg.LLM.APIKey != "from-config" {
		t.Fatalf("expected explicit config value to win, got %q", cfg.LLM.APIKey)
	}
}

func TestResolveSecretsFallsBackToEnv(t *testing.T) {
	t.Setenv("ICRAB_LLM_API_KEY", "from-env")
	cfg := DefaultConfig()
	resolveSecrets(cfg)
	if cfg.LLM.APIKey != "from-env" {
		t.Fatalf("expected env fallback, got %q", cfg.LLM.APIKey)
	}
}

func TestResolveSecretsFillsBraveKeyFromEnv(t *testing.T) {
	t.Setenv("ICRAB_TOOLS_WEB_BRAVE_API_KEY", "brave-key")
	cfg := DefaultConfig()
	resolveSecrets(cfg)
	if cfg.Tools.Web.BraveAPIKey != "brave-key" {
		t.Fatalf("expected Brave key from env, got %q", cfg.Tools.Web.BraveAPIKey)
	}
}

func TestIsEnvReference(t *testing.T) {
	cases := map[string]bool{
		"${FOO}": true,
		"$FOO":   true,
		"plain":  false,
		"":       false,
	}
	for input, want := range cases {
		if got := IsEnvReference(input); got != want {
			t.Fatalf("IsEnvReference(%q) = %v, want %v", input, got, want)
		}
	}
}

func asError(err error, target **Error) bool {
	if e, ok := err.(*Error); ok {
		*target = e
		return true
	}
	return false
}
