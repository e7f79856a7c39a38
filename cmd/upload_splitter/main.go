package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"upload_splitter/internal/app"
	"upload_splitter/internal/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "upload_splitter",
	Short: "Split large uploads into size-bounded chunks",
	Long: `Stores uploaded files and splits those above a size threshold:
CSV and text by whole lines with the header repeated, PDF by whole pages,
everything else into fixed-size byte blocks.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return cfg.Finalize()
	},
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	if err := config.Init(&cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Flags default to the environment so they only override what is given.
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfg.UploadDir, "upload-dir", cfg.UploadDir, "directory for uploads and their chunks")
	flags.StringVar(&cfg.DataDir, "data", cfg.DataDir, "directory for the upload catalog")
	flags.Int64Var(&cfg.SplitThreshold, "threshold", cfg.SplitThreshold, "files at or below this many bytes are not split")
	flags.Int64Var(&cfg.TextChunkSize, "text-chunk-size", cfg.TextChunkSize, "byte budget per CSV/text chunk")
	flags.Int64Var(&cfg.PDFChunkSize, "pdf-chunk-size", cfg.PDFChunkSize, "byte budget per PDF chunk")
	flags.Int64Var(&cfg.RawChunkSize, "raw-chunk-size", cfg.RawChunkSize, "block size for other files")
	flags.BoolVar(&cfg.VerifyPDFChunks, "verify-pdf", cfg.VerifyPDFChunks, "re-read PDF chunks and check their page counts")

	serveCmd.Flags().StringVar(&cfg.ListenAddr, "addr", cfg.ListenAddr, "listen address")
	serveCmd.Flags().StringVar(&cfg.InboxDir, "inbox", cfg.InboxDir, "also split files moved into this directory")
	serveCmd.Flags().Int64Var(&cfg.MaxUploadSize, "max-upload-size", cfg.MaxUploadSize, "largest accepted upload in bytes")
	watchCmd.Flags().StringVar(&cfg.InboxDir, "inbox", cfg.InboxDir, "directory to watch")

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Printf("❌ %v", err)
		stop()
		os.Exit(1)
	}
}

func newApp() (*app.App, error) {
	a, err := app.New(&cfg)
	if err != nil {
		return nil, err
	}
	if err := a.Init(); err != nil {
		return nil, err
	}
	return a, nil
}
