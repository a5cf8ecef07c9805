// Package slack implements the Slack chat-transport binding (SPEC_FULL.md
// §6), using github.com/slack-go/slack's Socket Mode client — the teacher
// itself hand-rolls Slack over raw HTTP, but SPEC_FULL.md's dependency table
// calls for the slack-go/slack binding the wider pack (Qefaraki-picoclaw)
// carries, so this adapter is built against that library's socketmode API
// instead of the teacher's bespoke HTTP client.
package slack

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/Snehal-Reddy/iCrab/internal/channels"
	"github.com/Snehal-Reddy/iCrab/internal/config"
	"github.com/Snehal-Reddy/iCrab/internal/dispatch"
)

// inboundSink is the subset of dispatch.RateLimitedSink Channel needs.
type inboundSink interface {
	Allow(chatID int64) bool
	TrySend(msg dispatch.Inbound) bool
}

// Channel adapts a single Slack app (bot token + app token, Socket Mode)
// onto the dispatcher's inbound/outbound shape — one channel, one authorised
// user, per SPEC_FULL.md §6.
type Channel struct {
	cfg    config.SlackConfig
	logger *slog.Logger
	api    *slack.Client
	sm     *socketmode.Client
	sink   inboundSink
}

// New builds a Channel.
func New(cfg config.SlackConfig, sink inboundSink, logger *slog.Logger) *Channel {
	if logger == nil {
		logger = slog.Default()
	}
	api := slack.New(cfg.BotToken, slack.OptionAppLevelToken(cfg.AppToken))
	return &Channel{
		cfg:    cfg,
		logger: logger.With("component", "slack"),
		api:    api,
		sm:     socketmode.New(api),
		sink:   sink,
	}
}

// Connect starts the Socket Mode event loop in the background and returns
// once the client has been told to run; ctx cancellation stops it.
func (c *Channel) Connect(ctx context.Context) error {
	if c.cfg.BotToken == "" || c.cfg.AppToken == "" {
		return fmt.Errorf("slack: bot_token and app_token are both required for Socket Mode")
	}

	go c.handleEvents(ctx)

	go func() {
		if err := c.sm.RunContext(ctx); err != nil && ctx.Err() == nil {
			c.logger.Error("slack: socket mode run failed", "error", err)
		}
	}()

	c.logger.Info("slack: connected")
	return nil
}

func (c *Channel) handleEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-c.sm.Events:
			if !ok {
				return
			}
			if evt.Type != socketmode.EventTypeEventsAPI {
				continue
			}
			c.sm.Ack(*evt.Request)

			eventsAPI, ok := evt.Data.(slackevents.EventsAPIEvent)
			if !ok {
				continue
			}
			if inner, ok := eventsAPI.InnerEvent.Data.(*slackevents.MessageEvent); ok {
				c.onMessage(inner)
			}
		}
	}
}

func (c *Channel) onMessage(m *slackevents.MessageEvent) {
	if m.BotID != "" || m.SubType == "bot_message" {
		return
	}
	if c.cfg.ChannelID != "" && m.Channel != c.cfg.ChannelID {
		return
	}
	if c.cfg.AllowedUserID != "" && m.User != c.cfg.AllowedUserID {
		return
	}

	chatID := channels.ChatID(m.Channel)
	if !c.sink.Allow(chatID) {
		c.logger.Warn("slack: inbound message rate-limited", "channel_id", m.Channel)
		return
	}
	c.sink.TrySend(dispatch.Inbound{
		ChatID:  chatID,
		UserID:  channels.ChatID(m.User),
		Text:    m.Text,
		Channel: "slack",
	})
}

// Send delivers an outbound dispatcher reply to the configured channel.
func (c *Channel) Send(o dispatch.Outbound) {
	if c.cfg.ChannelID == "" {
		return
	}
	if _, _, err := c.api.PostMessage(c.cfg.ChannelID, slack.MsgOptionText(o.Text, false)); err != nil {
		c.logger.Error("slack: send failed", "error", err)
	}
}
