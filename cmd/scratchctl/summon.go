package main

import (
	"context"
	"fmt"

	"github.com/scratchd/scratchd/internal/control/client"
	"github.com/spf13/cobra"
)

var summonCmd = &cobra.Command{
	Use:   "summon <criteria>",
	Short: "Bring a matching window to the cursor and focus it",
	Long:  "summon matches a window by regexp over class, instance, and title, or by a numeric con id. Hidden windows are shown and positioned, visible floating ones re-positioned.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, cli *client.Client) error {
			result, err := cli.Summon(ctx, args[0])
			if err != nil {
				return err
			}
			label := result.Class
			if label == "" {
				label = result.Title
			}
			verb := "Repositioned"
			if result.WasHidden {
				verb = "Summoned"
			}
			fmt.Printf("%s con %d (%s)\n", verb, result.ConID, label)
			if result.Quadrant != "" {
				fmt.Printf("  placed at %d,%d (%s)\n", result.X, result.Y, result.Quadrant)
			}
			for _, reason := range result.Reasons {
				fmt.Printf("  reason: %s\n", reason)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(summonCmd)
}
