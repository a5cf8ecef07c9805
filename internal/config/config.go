// Package config defines the daemon's configuration shape and its defaults.
// It follows pkg/goclaw/copilot's layered Config struct, pared down to the
// substructs this daemon actually needs (LLM, workspace, access, heartbeat,
// scheduler, agent, security, channels, logging) — the teacher's webui, tts,
// sandbox, gateway, plugins, and media substructs have no home here and are
// dropped (see DESIGN.md).
package config

// Config is the root configuration, loaded from a single YAML file and
// overlaid with environment variables (see loader.go).
type Config struct {
	Workspace string `yaml:"workspace"`
	Timezone  string `yaml:"timezone"`

	LLM       LLMConfig       `yaml:"llm"`
	Tools     ToolsConfig     `yaml:"tools"`
	Access    AccessConfig    `yaml:"access"`
	Heartbeat HeartbeatConfig `yaml:"heartbeat"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Agent     AgentConfig     `yaml:"agent"`
	Security  SecurityConfig  `yaml:"security"`
	Channels  ChannelsConfig  `yaml:"channels"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ToolsConfig configures the built-in tool set (SPEC_FULL.md's "Built-in
// tools" paragraph), mirroring original_source/src/config.rs's ToolsConfig.
type ToolsConfig struct {
	Web WebConfig `yaml:"web"`
}

// WebConfig tunes web_search/web_fetch: Brave when an API key is set, else
// DuckDuckGo.
type WebConfig struct {
	BraveAPIKey      string `yaml:"brave_api_key"`
	BraveMaxResults  int    `yaml:"brave_max_results"`
	WebFetchMaxChars int    `yaml:"web_fetch_max_chars"`
}

// LLMConfig selects and authenticates against the chat-completion backend.
type LLMConfig struct {
	Provider string `yaml:"provider"`
	APIBase  string `yaml:"api_base"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
}

// AccessConfig holds a user-id allow-list checked by Allowed. An empty
// AllowedUserIDs means unrestricted — every sender is allowed. The chat
// transports do not consult it; they filter on their own AllowedUserID.
type AccessConfig struct {
	AllowedUserIDs []int64 `yaml:"allowed_user_ids"`
}

// Allowed reports whether userID may use the daemon.
func (a AccessConfig) Allowed(userID int64) bool {
	if len(a.AllowedUserIDs) == 0 {
		return true
	}
	for _, id := range a.AllowedUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// HeartbeatConfig drives internal/heartbeat's tick loop.
type HeartbeatConfig struct {
	IntervalMinutes int    `yaml:"interval_minutes"`
	TaskFile        string `yaml:"task_file"`
}

// SchedulerConfig drives internal/cronengine's tick loop.
type SchedulerConfig struct {
	TickSeconds int `yaml:"tick_seconds"`
}

// AgentConfig holds agent-loop settings. Validate checks MaxIterations, but
// the agent loop does not read it: the main agent always runs with
// agent.MaxIterations (20) and subagents with agent.SubagentMaxIterations (10).
type AgentConfig struct {
	MaxIterations       int  `yaml:"max_iterations"`
	RestrictToWorkspace bool `yaml:"restrict_to_workspace"`
}

// SecurityConfig holds the dispatcher's per-chat inbound rate limit.
type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig feeds dispatch.NewInboundLimiter. MessagesPerMinute <= 0
// disables rate limiting.
type RateLimitConfig struct {
	MessagesPerMinute int `yaml:"messages_per_minute"`
}

// ChannelsConfig lists the chat transports the daemon dials out to.
type ChannelsConfig struct {
	Discord DiscordConfig `yaml:"discord"`
	Slack   SlackConfig   `yaml:"slack"`
}

// DiscordConfig authenticates internal/channels/discord and names the single
// channel/user pair it's allowed to talk to (SPEC_FULL.md §6: "Only one
// user-id is authorised per channel").
type DiscordConfig struct {
	BotToken      string `yaml:"bot_token"`
	ChannelID     string `yaml:"channel_id"`
	AllowedUserID string `yaml:"allowed_user_id"`
}

// SlackConfig authenticates internal/channels/slack the same way.
type SlackConfig struct {
	BotToken      string `yaml:"bot_token"`
	AppToken      string `yaml:"app_token"`
	ChannelID     string `yaml:"channel_id"`
	AllowedUserID string `yaml:"allowed_user_id"`
}

// LoggingConfig shapes the root *slog.Logger (built by buildLogger in
// cmd/icrab/commands/app.go).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns a Config with every default ParseConfig overlays
// YAML onto.
func DefaultConfig() *Config {
	return &Config{
		Workspace: "~/.icrab/workspace",
		Timezone:  "UTC",
		LLM: LLMConfig{
			Provider: "openai",
			APIBase:  "https://api.openai.com/v1",
			Model:    "gpt-4o-mini",
		},
		Heartbeat: HeartbeatConfig{
			IntervalMinutes: 30,
			TaskFile:        "HEARTBEAT.md",
		},
		Scheduler: SchedulerConfig{
			TickSeconds: 60,
		},
		Agent: AgentConfig{
			MaxIterations:       25,
			RestrictToWorkspace: true,
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{MessagesPerMinute: 20},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
