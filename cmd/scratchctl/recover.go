package main

import (
	"context"
	"fmt"

	"github.com/scratchd/scratchd/internal/control/client"
	"github.com/spf13/cobra"
)

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Rebuild daemon state from the window manager",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, cli *client.Client) error {
			if err := cli.Recover(ctx); err != nil {
				return err
			}
			fmt.Println("Recovery complete")
			return nil
		})
	},
}

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Trigger a live config reload",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, cli *client.Client) error {
			if err := cli.Reload(ctx); err != nil {
				return err
			}
			fmt.Println("Reload requested")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(recoverCmd, reloadCmd)
}
