package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/scratchd/scratchd/internal/control/client"
	"github.com/spf13/cobra"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Inspect or switch the active project",
}

var projectGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the active project",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, cli *client.Client) error {
			status, err := cli.Project(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Active project: %s\n", status.Active)
			if len(status.Projects) > 0 {
				fmt.Printf("Known projects: %s\n", strings.Join(status.Projects, ", "))
			}
			return nil
		})
	},
}

var projectSetCmd = &cobra.Command{
	Use:   "set <name>",
	Short: "Switch the active project and sweep window visibility",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, cli *client.Client) error {
			result, err := cli.SetProject(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Switched to project %s\n", args[0])
			printSweep(result)
			return nil
		})
	},
}

func init() {
	projectCmd.AddCommand(projectGetCmd, projectSetCmd)
	rootCmd.AddCommand(projectCmd)
}
