package commands

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Snehal-Reddy/iCrab/internal/channels/discord"
	"github.com/Snehal-Reddy/iCrab/internal/channels/slack"
	"github.com/Snehal-Reddy/iCrab/internal/cronengine"
	"github.com/Snehal-Reddy/iCrab/internal/dispatch"
	"github.com/Snehal-Reddy/iCrab/internal/heartbeat"
	"github.com/Snehal-Reddy/iCrab/internal/vault"
	"github.com/Snehal-Reddy/iCrab/internal/workspace"
)

// fanOutSink multiplexes dispatcher replies across every connected chat
// transport, routed by Outbound.Channel.
type fanOutSink struct {
	discord *discord.Channel
	slack   *slack.Channel
}

func (f fanOutSink) Send(o dispatch.Outbound) {
	switch o.Channel {
	case "discord":
		if f.discord != nil {
			f.discord.Send(o)
		}
	case "slack":
		if f.slack != nil {
			f.slack.Send(o)
		}
	default:
		// Cron and heartbeat replies carry Channel "cron" or "heartbeat"
		// rather than a transport label, so they go to every connected
		// transport.
		if f.discord != nil {
			f.discord.Send(o)
		}
		if f.slack != nil {
			f.slack.Send(o)
		}
	}
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon, connecting to every configured chat channel",
		RunE:  runServe,
	}
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")
	logger := buildLogger(cfg, verbose)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.db.Close()

	fanOut := &fanOutSink{}
	d := a.buildDispatcher(fanOut)
	limiter := a.rateLimit

	if cfg.Channels.Discord.BotToken != "" {
		dc := discord.New(cfg.Channels.Discord, dispatch.RateLimitedSink{Dispatcher: d, Limiter: limiter}, logger)
		if err := dc.Connect(ctx); err != nil {
			logger.Error("discord: connect failed", "error", err)
		} else {
			fanOut.discord = dc
			defer dc.Disconnect()
		}
	}
	if cfg.Channels.Slack.BotToken != "" {
		sc := slack.New(cfg.Channels.Slack, dispatch.RateLimitedSink{Dispatcher: d, Limiter: limiter}, logger)
		if err := sc.Connect(ctx); err != nil {
			logger.Error("slack: connect failed", "error", err)
		} else {
			fanOut.slack = sc
		}
	}

	go cronengine.TickLoop(ctx, a.cron, cronSinkAdapter{d: d}, secondsOrDefault(cfg.Scheduler.TickSeconds), logger.With("component", "cron"))
	go vault.RunTicker(ctx, cfg.Workspace, a.vault, vault.ScanInterval, logger.With("component", "vault"))

	if cfg.Heartbeat.IntervalMinutes > 0 {
		path := cfg.Heartbeat.TaskFile
		if path == "" {
			path = workspace.HeartbeatPath(cfg.Workspace)
		} else if !filepath.IsAbs(path) {
			path = filepath.Join(cfg.Workspace, path)
		}
		go heartbeat.Run(ctx, path, minutesToDuration(cfg.Heartbeat.IntervalMinutes), heartbeatSinkAdapter{d: d})
	}

	logger.Info("icrab serving", "workspace", cfg.Workspace)
	d.Run(ctx)
	logger.Info("shutdown complete")
	return nil
}
