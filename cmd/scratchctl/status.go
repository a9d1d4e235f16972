package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/scratchd/scratchd/internal/control/client"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize daemon state and counters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, cli *client.Client) error {
			report, err := cli.Status(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Active project: %s\n", report.ActiveProject)
			if len(report.Projects) > 0 {
				fmt.Printf("Known projects: %s\n", strings.Join(report.Projects, ", "))
			}
			link := "down"
			if report.Connected {
				link = "up"
			}
			fmt.Printf("IPC link: %s\n", link)
			fmt.Printf("Windows: %d (%d hidden, %d marked)\n", report.Windows, report.Hidden, report.Marked)
			m := report.Metrics
			fmt.Printf("Sweeps: %d, commands: %d (%d failed), marks written: %d\n",
				m.Sweeps, m.Commands, m.CommandErrors, m.MarksWritten)
			if m.DecodeFailures > 0 {
				fmt.Printf("Malformed marks seen: %d\n", m.DecodeFailures)
			}
			if m.Reconnects > 0 {
				fmt.Printf("Reconnects: %d\n", m.Reconnects)
			}
			if len(report.Recovery) > 0 {
				fmt.Println("Recent recovery events:")
				for _, ev := range report.Recovery {
					line := fmt.Sprintf("  %s %s", ev.At.Format(time.RFC3339), ev.Kind)
					if ev.Detail != "" {
						line += ": " + ev.Detail
					}
					fmt.Println(line)
				}
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
