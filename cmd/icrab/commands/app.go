package commands

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Snehal-Reddy/iCrab/internal/agent"
	"github.com/Snehal-Reddy/iCrab/internal/config"
	"github.com/Snehal-Reddy/iCrab/internal/cronengine"
	"github.com/Snehal-Reddy/iCrab/internal/dispatch"
	"github.com/Snehal-Reddy/iCrab/internal/heartbeat"
	"github.com/Snehal-Reddy/iCrab/internal/llmclient"
	"github.com/Snehal-Reddy/iCrab/internal/session"
	"github.com/Snehal-Reddy/iCrab/internal/subagent"
	"github.com/Snehal-Reddy/iCrab/internal/toolkit"
	"github.com/Snehal-Reddy/iCrab/internal/vault"
)

// app bundles every long-lived component wired up from config, shared by the
// serve/chat/cron commands.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	db         *sql.DB
	sessions   *session.Store
	vault      *vault.Store
	cron       *cronengine.Store
	subagents  *subagent.Manager
	deps       agent.Deps
	rateLimit  *dispatch.InboundLimiter
	registry   *toolkit.Registry
}

// buildDispatcher constructs the Dispatcher once the caller's outbound sink
// (a chat transport, or a fan-out across several) is known — handle's final
// reply.Send would panic against a nil sink, so dispatch.New is deferred
// until here rather than happening inside buildApp.
func (a *app) buildDispatcher(outbound dispatch.OutboundSink) *dispatch.Dispatcher {
	return dispatch.New(dispatch.Config{
		Outbound: outbound,
		Deps:     a.deps,
		Store:    a.sessions,
		Logger:   a.logger.With("component", "dispatch"),
	})
}

// resolveConfig loads the config named by --config, auto-discovering a file
// in the working directory otherwise.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Root().PersistentFlags().GetString("config")
	if path == "" {
		path = config.FindConfigFile()
	}
	if path == "" {
		path = config.DefaultConfigPath()
	}
	cfg, err := config.LoadConfigFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// buildLogger constructs the root logger per cfg.Logging, following
// pkg/goclaw/copilot's level/format switch.
func buildLogger(cfg *config.Config, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler)
}

// buildApp wires every component named in SPEC_FULL.md's component list from
// a loaded config, sharing a single *sql.DB between the session store and the
// vault indexer as session.Open's doc comment calls for.
func buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	config.ResolveAPIKey(cfg, logger)
	if cfg.LLM.APIKey == "" || config.IsEnvReference(cfg.LLM.APIKey) {
		return nil, fmt.Errorf("no LLM API key configured (set llm.api_key, an env var, or the OS keyring)")
	}

	db, err := vault.OpenDB(cfg.Workspace)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	sessions, err := session.Open(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}
	vaultStore, err := vault.Open(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("opening vault store: %w", err)
	}

	cronStore, err := cronengine.Load(cfg.Workspace)
	if err != nil {
		return nil, fmt.Errorf("loading cron jobs: %w", err)
	}

	provider, err := llmclient.NewProvider(llmclient.Config{
		APIBase: cfg.LLM.APIBase,
		APIKey:  cfg.LLM.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("building LLM provider: %w", err)
	}
	var llm agent.LLM = provider

	registry := toolkit.BuildCoreRegistry(toolkit.CoreRegistryConfig{
		BraveAPIKey:      cfg.Tools.Web.BraveAPIKey,
		BraveMaxResults:  cfg.Tools.Web.BraveMaxResults,
		WebFetchMaxChars: cfg.Tools.Web.WebFetchMaxChars,
	})
	registry.Register(cronengine.Tool{Store: cronStore})
	registry.Register(vault.SearchTool{Store: vaultStore})

	// Subagents get their own registry: the same core/cron/vault tools plus
	// MessageTool, which toolkit.BuildCoreRegistry deliberately omits from the
	// main agent's registry (SPEC_FULL.md §4.2 — offering "message" to the main
	// agent would let it send duplicate replies on top of its own final text).
	subagentRegistry := registry.Clone()
	subagentRegistry.Register(toolkit.MessageTool{})

	subagents := subagent.NewManager(subagent.Config{
		LLM:                 llm,
		Registry:            subagentRegistry,
		Model:               cfg.LLM.Model,
		WorkspaceRoot:       cfg.Workspace,
		RestrictToWorkspace: cfg.Agent.RestrictToWorkspace,
		MaxIterations:       agent.SubagentMaxIterations,
		Logger:              logger.With("component", "subagent"),
	})
	registry.Register(subagent.SpawnTool{Manager: subagents})
	registry.Register(subagent.SubagentTool{Manager: subagents})

	timezone, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn("unknown timezone, defaulting to UTC", "timezone", cfg.Timezone, "error", err)
		timezone = time.UTC
	}

	deps := agent.Deps{
		LLM:                 llm,
		Registry:            registry,
		WorkspaceRoot:       cfg.Workspace,
		RestrictToWorkspace: cfg.Agent.RestrictToWorkspace,
		Model:               cfg.LLM.Model,
		Timezone:            timezone,
		Summarizer: &agent.Summarizer{
			LLM:    llm,
			Model:  cfg.LLM.Model,
			Logger: logger.With("component", "summarizer"),
		},
		Logger: logger.With("component", "agent"),
	}

	rateLimit := dispatch.NewInboundLimiter(cfg.Security.RateLimit.MessagesPerMinute)

	return &app{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		sessions:  sessions,
		vault:     vaultStore,
		cron:      cronStore,
		subagents: subagents,
		deps:      deps,
		rateLimit: rateLimit,
		registry:  registry,
	}, nil
}

// cronSinkAdapter satisfies cronengine.Sink, converting a DispatchMessage into
// either an outbound reply sent straight to the chat transport (Direct
// actions) or a dispatch.Inbound run through the full agent loop (RunAgent
// actions), per SPEC_FULL.md §4.4.
type cronSinkAdapter struct{ d *dispatch.Dispatcher }

func (a cronSinkAdapter) TrySend(msg cronengine.DispatchMessage) bool {
	if msg.Direct {
		a.d.SendDirect(dispatch.Outbound{
			ChatID:  msg.ChatID,
			Text:    msg.Text,
			Channel: msg.Channel,
		})
		return true
	}
	return a.d.TrySend(dispatch.Inbound{
		ChatID:  msg.ChatID,
		Text:    msg.Text,
		Channel: msg.Channel,
	})
}

// heartbeatSinkAdapter satisfies heartbeat.Sink the same way.
type heartbeatSinkAdapter struct{ d *dispatch.Dispatcher }

func (a heartbeatSinkAdapter) TrySend(msg heartbeat.SinkMessage) bool {
	return a.d.TrySend(dispatch.Inbound{
		ChatID:  msg.ChatID,
		UserID:  msg.UserID,
		Text:    msg.Text,
		Channel: msg.Channel,
	})
}

func (a heartbeatSinkAdapter) LastChatID() int64 { return a.d.LastChatID() }
