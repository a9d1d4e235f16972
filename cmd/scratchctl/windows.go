package main

import (
	"context"
	"fmt"

	"github.com/scratchd/scratchd/internal/control/client"
	"github.com/spf13/cobra"
)

var windowsCmd = &cobra.Command{
	Use:   "windows",
	Short: "List every window as the reconciler classifies it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, cli *client.Client) error {
			reports, err := cli.Windows(ctx)
			if err != nil {
				return err
			}
			if len(reports) == 0 {
				fmt.Println("No windows")
				return nil
			}
			for _, w := range reports {
				fmt.Println(windowLine(w))
			}
			return nil
		})
	},
}

func windowLine(w client.WindowReport) string {
	label := w.Class
	if label == "" {
		label = w.AppID
	}
	if label == "" {
		label = w.Title
	}
	visibility := "visible"
	if w.Hidden {
		visibility = "hidden"
	}
	line := fmt.Sprintf("con %d: %s [%s %s", w.ConID, label, visibility, w.Scope)
	if w.Project != "" {
		line += " project=" + w.Project
	}
	line += "]"
	if w.Malformed {
		line += " (malformed mark)"
	}
	return line
}

func init() {
	rootCmd.AddCommand(windowsCmd)
}
