package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/Snehal-Reddy/iCrab/internal/agent"
	"github.com/Snehal-Reddy/iCrab/internal/channels/cli"
	"github.com/Snehal-Reddy/iCrab/internal/toolkit"
)

func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Chat with the agent from the terminal",
		Long: `Start a conversation with the agent directly in the terminal, using the
same agent loop, tools, and skills as the daemon's chat channels.

Pass a message as an argument for a single response, or run without
arguments for an interactive REPL.

Examples:
  icrab chat "what's on my cron schedule?"
  icrab chat`,
		Args: cobra.MaximumNArgs(1),
		RunE: runChat,
	}
	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger := buildLogger(cfg, false)

	ctx := context.Background()
	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.db.Close()

	if len(args) > 0 {
		reply, err := sendChatMessage(ctx, a, args[0])
		if err != nil {
			return err
		}
		fmt.Println(reply)
		return nil
	}

	return runChatREPL(ctx, a)
}

// sendChatMessage runs one stateful turn against the CLI's fixed chat id,
// bypassing the dispatcher queue — there is only ever one local caller, so
// the serialising queue buys nothing here, matching executeChat's direct
// agent call in cmd/copilot/commands/chat.go.
func sendChatMessage(ctx context.Context, a *app, text string) (string, error) {
	chatID := cli.ChatID
	channel := "cli"
	tctx := toolkit.Ctx{
		Workspace:           a.cfg.Workspace,
		RestrictToWorkspace: a.cfg.Agent.RestrictToWorkspace,
		ChatID:              &chatID,
		Channel:             &channel,
		Outbound:            cli.OutboundSender{},
		Delivered:           new(atomic.Bool),
	}
	reply, err := agent.ProcessMessage(ctx, a.deps, a.sessions, chatID, text, tctx)
	if err != nil {
		return "", fmt.Errorf("agent turn: %w", err)
	}
	return reply, nil
}

func runChatREPL(ctx context.Context, a *app) error {
	rl, err := readline.New("you> ")
	if err != nil {
		return fmt.Errorf("starting REPL: %w", err)
	}
	defer rl.Close()

	fmt.Println("icrab chat — type your message and press Enter, Ctrl+D to quit.")

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == io.EOF || err == readline.ErrInterrupt {
				return nil
			}
			return err
		}
		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		reply, err := sendChatMessage(ctx, a, input)
		if err != nil {
			fmt.Println("error:", err)
			continue
		}
		fmt.Println(reply)
	}
}
