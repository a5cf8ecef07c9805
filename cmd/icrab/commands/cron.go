package commands

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/Snehal-Reddy/iCrab/internal/cronengine"
)

// newCronCmd builds the `icrab cron` command group: local-only inspection
// helpers over the cron job store, not the running daemon (§2.2).
func newCronCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cron",
		Short: "Inspect scheduled jobs and cron expressions",
	}
	cmd.AddCommand(newCronListCmd(), newCronDescribeCmd())
	return cmd
}

func newCronListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List scheduled jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			store, err := cronengine.Load(cfg.Workspace)
			if err != nil {
				return fmt.Errorf("loading cron jobs: %w", err)
			}
			jobs := store.List()
			if len(jobs) == 0 {
				fmt.Println("no jobs scheduled")
				return nil
			}
			for _, j := range jobs {
				status := "enabled"
				if !j.Enabled {
					status = "disabled"
				}
				fmt.Printf("%s  [%s]  %s  %s\n", j.ID, status, j.Schedule.Kind, j.Message)
			}
			return nil
		},
	}
}

// newCronDescribeCmd prints the engine's own next-fire time for a cron
// expression next to robfig/cron/v3's interpretation of the same 5 fields,
// so the user can see where the engine's AND day-of-month/day-of-week
// semantics diverge from that library's OR semantics (§2.2).
func newCronDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <cron-expr>",
		Short: "Explain a cron expression using both the engine's and a standard library's semantics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expr := args[0]

			engineExpr, err := cronengine.ParseExpr(expr)
			if err != nil {
				return fmt.Errorf("engine parse: %w", err)
			}
			engineNext, ok := cronengine.NextMatch(engineExpr, time.Now().Unix())
			if !ok {
				fmt.Println("engine (AND day-of-month/day-of-week):  no future match")
			} else {
				fmt.Printf("engine (AND day-of-month/day-of-week):  %s\n", time.Unix(engineNext, 0).Format(time.RFC3339))
			}

			schedule, err := cron.ParseStandard(expr)
			if err != nil {
				fmt.Printf("robfig/cron (OR day-of-month/day-of-week): unparseable: %v\n", err)
				return nil
			}
			fmt.Printf("robfig/cron (OR day-of-month/day-of-week):  %s\n", schedule.Next(time.Now()).Format(time.RFC3339))
			return nil
		},
	}
}
