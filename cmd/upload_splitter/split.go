package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"upload_splitter/internal/chunker"
)

var splitCmd = &cobra.Command{
	Use:   "split <file>...",
	Short: "Store local files as uploads and split them",
	Long: `Copies each file into the upload directory exactly as an HTTP upload
would be stored, splits it, and prints the result as JSON. The local file
is left untouched.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSplit,
}

func init() {
	rootCmd.AddCommand(splitCmd)
}

type splitOutput struct {
	Message  string           `json:"message"`
	UploadID string           `json:"upload_id"`
	File     string           `json:"file"`
	Strategy chunker.Strategy `json:"strategy"`
	Chunks   []chunker.Chunk  `json:"chunks,omitempty"`
}

func runSplit(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	for _, path := range args {
		res, err := a.IngestFile(cmd.Context(), path)
		if err != nil {
			return fmt.Errorf("split %s: %w", path, err)
		}

		data, err := json.MarshalIndent(splitOutput{
			Message:  res.Result.Message,
			UploadID: res.ID,
			File:     res.Name,
			Strategy: res.Result.Strategy,
			Chunks:   res.Result.Chunks,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	}
	return nil
}
