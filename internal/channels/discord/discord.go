// Package discord implements the Discord chat-transport binding
// (SPEC_FULL.md §6), grounded in pkg/goclaw/channels/discord's discordgo
// session wiring — stripped to the text-only inbound/outbound shape the
// dispatcher needs; the teacher's media/presence/reaction/thread features
// have no SPEC_FULL.md component behind them and are dropped.
package discord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/Snehal-Reddy/iCrab/internal/channels"
	"github.com/Snehal-Reddy/iCrab/internal/config"
	"github.com/Snehal-Reddy/iCrab/internal/dispatch"
)

// maxMessageLen is Discord's per-message character limit.
const maxMessageLen = 2000

// Channel adapts a single Discord bot connection onto the dispatcher's
// inbound/outbound shape. Only cfg.ChannelID/cfg.AllowedUserID are
// addressed — one channel, one authorised user, per SPEC_FULL.md §6.
type Channel struct {
	cfg     config.DiscordConfig
	logger  *slog.Logger
	session *discordgo.Session
	sink    inboundSink
}

// inboundSink is the subset of *dispatch.Dispatcher and *dispatch.InboundLimiter
// Channel needs, kept narrow so it can be tested without either.
type inboundSink interface {
	Allow(chatID int64) bool
	TrySend(msg dispatch.Inbound) bool
}

// New builds a Channel. sink is typically a dispatch.RateLimitedSink wrapping
// the daemon's *dispatch.Dispatcher and *dispatch.InboundLimiter.
func New(cfg config.DiscordConfig, sink inboundSink, logger *slog.Logger) *Channel {
	if logger == nil {
		logger = slog.Default()
	}
	return &Channel{cfg: cfg, logger: logger.With("component", "discord"), sink: sink}
}

// Connect opens the Discord gateway connection and starts listening.
func (c *Channel) Connect(ctx context.Context) error {
	if c.cfg.BotToken == "" {
		return fmt.Errorf("discord: bot token is required")
	}

	session, err := discordgo.New("Bot " + c.cfg.BotToken)
	if err != nil {
		return fmt.Errorf("discord: creating session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent

	session.AddHandler(c.onMessageCreate)

	if err := session.Open(); err != nil {
		return fmt.Errorf("discord: opening gateway: %w", err)
	}
	c.session = session
	c.logger.Info("discord: connected")
	return nil
}

// Disconnect closes the gateway connection.
func (c *Channel) Disconnect() error {
	if c.session == nil {
		return nil
	}
	return c.session.Close()
}

// Send delivers an outbound dispatcher reply to the configured channel,
// splitting at Discord's character limit.
func (c *Channel) Send(o dispatch.Outbound) {
	if c.session == nil || c.cfg.ChannelID == "" {
		return
	}
	for _, chunk := range splitMessage(o.Text, maxMessageLen) {
		if _, err := c.session.ChannelMessageSend(c.cfg.ChannelID, chunk); err != nil {
			c.logger.Error("discord: send failed", "error", err)
			return
		}
	}
}

func (c *Channel) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if c.cfg.ChannelID != "" && m.ChannelID != c.cfg.ChannelID {
		return
	}
	if c.cfg.AllowedUserID != "" && m.Author.ID != c.cfg.AllowedUserID {
		return
	}

	chatID := channels.ChatID(m.ChannelID)
	if !c.sink.Allow(chatID) {
		c.logger.Warn("discord: inbound message rate-limited", "channel_id", m.ChannelID)
		return
	}
	c.sink.TrySend(dispatch.Inbound{
		ChatID:  chatID,
		UserID:  channels.ChatID(m.Author.ID),
		Text:    m.Content,
		Channel: "discord",
	})
}

func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	var chunks []string
	for len(text) > limit {
		chunks = append(chunks, text[:limit])
		text = text[limit:]
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}
