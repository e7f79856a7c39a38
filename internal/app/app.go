package app

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"upload_splitter/internal/chunker"
	"upload_splitter/internal/config"
)

type App struct {
	cfg        *config.Config
	dispatcher *chunker.Dispatcher
	catalog    *Catalog
	indexPage  []byte
}

func New(cfg *config.Config) (*App, error) {
	dispatcher, err := chunker.NewDispatcher(chunker.Config{
		Threshold:     cfg.SplitThreshold,
		TextChunkSize: cfg.TextChunkSize,
		PDFChunkSize:  cfg.PDFChunkSize,
		RawChunkSize:  cfg.RawChunkSize,
		VerifyPDF:     cfg.VerifyPDFChunks,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid chunking config: %w", err)
	}

	indexPage, err := renderIndex(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to render index page: %w", err)
	}

	return &App{
		cfg:        cfg,
		dispatcher: dispatcher,
		catalog:    NewCatalog(cfg.MetadataFile, cfg.DBFile),
		indexPage:  indexPage,
	}, nil
}

// Init creates the working directories and restores the catalog.
func (a *App) Init() error {
	for _, dir := range []string{a.cfg.UploadDir, a.cfg.DataDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	absUploadDir, err := filepath.Abs(a.cfg.UploadDir)
	if err != nil {
		return fmt.Errorf("failed to get absolute upload dir: %w", err)
	}

	if err := a.catalog.Load(absUploadDir); err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	log.Printf("Upload directory: %s", absUploadDir)
	return nil
}

// Catalog exposes the upload catalog.
func (a *App) Catalog() *Catalog {
	return a.catalog
}

// Helper to print address nicely in logs
func trimHostPrefix(addr string) string {
	if addr == "" {
		return "localhost"
	}
	if addr[0] == ':' {
		return "127.0.0.1" + addr
	}
	return addr
}
