package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/scratchd/scratchd/internal/control/client"
	"github.com/spf13/cobra"
)

var saveStateCmd = &cobra.Command{
	Use:   "save-state <con_id>",
	Short: "Persist a window's current placement into its mark",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conID, err := parseConID(args[0])
		if err != nil {
			return err
		}
		return withClient(func(ctx context.Context, cli *client.Client) error {
			saved, err := cli.SaveState(ctx, conID)
			if err != nil {
				return err
			}
			fmt.Printf("Saved state for con %d\n", saved.ConID)
			fmt.Println(saved.Mark)
			return nil
		})
	},
}

var restoreStateCmd = &cobra.Command{
	Use:   "restore-state <con_id>",
	Short: "Reapply the placement saved in a window's mark",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conID, err := parseConID(args[0])
		if err != nil {
			return err
		}
		return withClient(func(ctx context.Context, cli *client.Client) error {
			restored, err := cli.RestoreState(ctx, conID)
			if err != nil {
				return err
			}
			if restored.Floating {
				fmt.Printf("Restored con %d to %d,%d (%dx%d)\n",
					restored.ConID, restored.X, restored.Y, restored.Width, restored.Height)
			} else {
				fmt.Printf("Restored con %d to tiled layout\n", restored.ConID)
			}
			if restored.SavedAt > 0 {
				fmt.Printf("  saved at %s\n", time.Unix(restored.SavedAt, 0).Format(time.RFC3339))
			}
			return nil
		})
	},
}

func parseConID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid con id %q", raw)
	}
	return id, nil
}

func init() {
	rootCmd.AddCommand(saveStateCmd, restoreStateCmd)
}
