package main

import (
	"context"
	"time"

	"github.com/scratchd/scratchd/internal/control/client"
	"github.com/spf13/cobra"
)

// version is stamped at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:           "scratchctl",
	Short:         "Control a running scratchd daemon",
	Long:          "scratchctl talks to the scratchd control socket to inspect daemon state, switch projects, summon windows, and manage saved placements.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("socket", "", "path to the scratchd control socket")
	rootCmd.PersistentFlags().Duration("timeout", 3*time.Second, "control request timeout")
}

// withClient runs fn against the control socket named by the root flags.
func withClient(fn func(context.Context, *client.Client) error) error {
	socket, _ := rootCmd.PersistentFlags().GetString("socket")
	cli, err := client.New(socket)
	if err != nil {
		return err
	}
	timeout, _ := rootCmd.PersistentFlags().GetDuration("timeout")
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return fn(ctx, cli)
}
