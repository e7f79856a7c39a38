package main

import (
	"errors"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Split every file moved into the inbox directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.InboxDir == "" {
			return errors.New("inbox directory not set: use --inbox or INBOX_DIR")
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		return a.Watch(cmd.Context(), cfg.InboxDir)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
