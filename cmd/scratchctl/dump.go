package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/scratchd/scratchd/internal/control/client"
	"github.com/spf13/cobra"
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the full diagnostic state document as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, cli *client.Client) error {
			report, err := cli.Dump(ctx)
			if err != nil {
				return err
			}
			b, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(b))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)
}
