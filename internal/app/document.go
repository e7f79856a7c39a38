package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"upload_splitter/internal/chunker"

	"github.com/google/uuid"
)

// UploadResult - outcome of storing and splitting one upload
type UploadResult struct {
	ID     string
	Name   string
	Size   int64
	Result chunker.Result
}

// processUpload stores r in a fresh per-upload directory and splits it. On
// failure the upload directory is removed entirely.
func (a *App) processUpload(ctx context.Context, filename string, r io.Reader) (*UploadResult, error) {
	name := SecureFilename(filename)
	id := uuid.NewString()
	dir := filepath.Join(a.cfg.UploadDir, id)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}

	path := filepath.Join(dir, name)
	size, err := saveFile(path, r)
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to save upload: %w", err)
	}

	log.Printf("📄 Upload %s stored: %s (%d bytes)", id, name, size)

	result, err := a.dispatcher.Split(ctx, path, name, size)
	if err != nil {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			log.Printf("⚠️  Failed to clean up %s: %v", dir, rmErr)
		}
		return nil, err
	}

	log.Printf("📦 %s", result.Message)

	info := UploadInfo{
		ID:        id,
		Name:      name,
		Size:      size,
		Strategy:  result.Strategy,
		Chunks:    result.Chunks,
		CreatedAt: time.Now().UTC(),
	}
	if err := a.catalog.Record(ctx, info); err != nil {
		log.Printf("⚠️  Failed to record upload %s in catalog: %v", id, err)
	}

	return &UploadResult{ID: id, Name: name, Size: size, Result: result}, nil
}

// IngestFile processes a local file as if it had been uploaded. The file
// itself is copied and left in place.
func (a *App) IngestFile(ctx context.Context, path string) (*UploadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return a.processUpload(ctx, filepath.Base(path), f)
}

func saveFile(path string, r io.Reader) (int64, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		return n, err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return n, err
	}
	return n, f.Close()
}
