package main

import (
	"context"
	"fmt"

	"github.com/scratchd/scratchd/internal/control/client"
	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run a full reconciliation sweep",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		preview, _ := cmd.Flags().GetBool("preview")
		return withClient(func(ctx context.Context, cli *client.Client) error {
			if preview {
				plan, err := cli.PreviewReconcile(ctx)
				if err != nil {
					return err
				}
				if len(plan) == 0 {
					fmt.Println("Nothing to do")
					return nil
				}
				for _, p := range plan {
					fmt.Printf("%s con %d: %s\n", p.Action, p.ConID, p.Command)
				}
				return nil
			}
			result, err := cli.Reconcile(ctx)
			if err != nil {
				return err
			}
			printSweep(result)
			return nil
		})
	},
}

func printSweep(result client.ReconcileResult) {
	fmt.Printf("Swept %d window(s): %d hidden, %d shown, %d adopted, %d released\n",
		result.Windows, result.Hidden, result.Shown, result.Adopted, result.Released)
	if result.Failures > 0 {
		fmt.Printf("%d command(s) failed; see daemon logs\n", result.Failures)
	}
}

func init() {
	reconcileCmd.Flags().Bool("preview", false, "print the plan without dispatching")
	rootCmd.AddCommand(reconcileCmd)
}
