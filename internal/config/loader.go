package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} or $VAR_NAME in config values, grounded
// in pkg/goclaw/copilot/loader.go's expandEnvVars.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Z_][A-Z0-9_]*)`)

// Error wraps a config load/validation failure with the fatal-at-startup
// "Config" error kind (SPEC_FULL.md §7).
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("config %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// LoadConfigFromFile reads and parses a YAML config file at path, overlaying
// .env files and environment variables, and validates the result.
func LoadConfigFromFile(path string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Op: "read", Err: err}
	}

	expanded := expandEnvVars(string(data))

	cfg, err := ParseConfig([]byte(expanded))
	if err != nil {
		return nil, err
	}

	resolveSecrets(cfg)

	if err := Validate(cfg); err != nil {
		return nil, &Error{Op: "validate", Err: err}
	}

	return cfg, nil
}

// ParseConfig parses YAML bytes into a Config, starting from DefaultConfig
// and overlaying whatever the document sets.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &Error{Op: "parse", Err: err}
	}
	cfg.Workspace = expandHome(cfg.Workspace)
	return cfg, nil
}

// Validate checks the fields startup depends on, returning the first
// problem found.
func Validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Workspace) == "" {
		return errors.New("workspace must not be empty")
	}
	if strings.TrimSpace(cfg.LLM.Model) == "" {
		return errors.New("llm.model must not be empty")
	}
	if cfg.Agent.MaxIterations <= 0 {
		return errors.New("agent.max_iterations must be positive")
	}
	if cfg.Heartbeat.IntervalMinutes < 0 {
		return errors.New("heartbeat.interval_minutes must not be negative")
	}
	if cfg.Scheduler.TickSeconds <= 0 {
		return errors.New("scheduler.tick_seconds must be positive")
	}
	return nil
}

// FindConfigFile searches standard locations for a config file, returning
// "" if none exist.
func FindConfigFile() string {
	candidates := []string{
		"config.yaml",
		"config.yml",
		"icrab.yaml",
		"icrab.yml",
		filepath.Join("configs", "config.yaml"),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// DefaultConfigPath returns $ICRAB_CONFIG if set, else ~/.icrab/config.yaml.
func DefaultConfigPath() string {
	if p := os.Getenv("ICRAB_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".icrab", "config.yaml")
}

// ---------- Internal ----------

func loadEnvFiles() {
	for _, f := range []string{".env", ".env.local"} {
		_ = godotenv.Load(f)
	}
}

func expandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		var name string
		if strings.HasPrefix(match, "${") {
			name = match[2 : len(match)-1]
		} else {
			name = match[1:]
		}
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match
	})
}

// resolveSecrets fills the LLM API key from environment variables when the
// config value is empty or still an unexpanded env reference.
func resolveSecrets(cfg *Config) {
	if cfg.LLM.APIKey == "" || IsEnvReference(cfg.LLM.APIKey) {
		for _, envVar := range []string{"ICRAB_LLM_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY"} {
			if key := os.Getenv(envVar); key != "" {
				cfg.LLM.APIKey = key
				break
			}
		}
	}
	if cfg.Channels.Discord.BotToken == "" {
		if tok := os.Getenv("DISCORD_BOT_TOKEN"); tok != "" {
			cfg.Channels.Discord.BotToken = tok
		}
	}
	if cfg.Channels.Slack.BotToken == "" {
		if tok := os.Getenv("SLACK_BOT_TOKEN"); tok != "" {
			cfg.Channels.Slack.BotToken = tok
		}
	}
	if cfg.Channels.Slack.AppToken == "" {
		if tok := os.Getenv("SLACK_APP_TOKEN"); tok != "" {
			cfg.Channels.Slack.AppToken = tok
		}
	}
	if cfg.Tools.Web.BraveAPIKey == "" {
		if key := os.Getenv("ICRAB_TOOLS_WEB_BRAVE_API_KEY"); key != "" {
			cfg.Tools.Web.BraveAPIKey = key
		}
	}
}

// IsEnvReference reports whether s is an unexpanded ${VAR} or $VAR reference.
func IsEnvReference(s string) bool {
	return strings.HasPrefix(s, "${") || strings.HasPrefix(s, "$")
}

// expandHome expands a leading "~" to $HOME; a no-op if there is none.
func expandHome(path string) string {
	trimmed := strings.TrimSpace(path)
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if trimmed == "~" {
		return home
	}
	if strings.HasPrefix(trimmed, "~/") {
		return filepath.Join(home, trimmed[2:])
	}
	return path
}
