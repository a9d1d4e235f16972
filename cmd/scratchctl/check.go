package main

import (
	"fmt"
	"io"

	"github.com/scratchd/scratchd/internal/config"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate a configuration file without contacting the daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		if path == "" {
			return fmt.Errorf("check requires --config <path>")
		}
		return runCheck(path, cmd.OutOrStdout())
	},
}

func runCheck(path string, stdout io.Writer) error {
	if _, err := config.Load(path); err != nil {
		return err
	}
	fmt.Fprintln(stdout, "Configuration OK")
	return nil
}

func init() {
	checkCmd.Flags().String("config", "", "path to configuration file")
	rootCmd.AddCommand(checkCmd)
}
