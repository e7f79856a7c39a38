package chunker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

// Dispatcher picks a chunker for an uploaded file and runs it
type Dispatcher struct {
	config Config
	text   Chunker
	pdf    Chunker
	raw    Chunker
}

// NewDispatcher creates a dispatcher with one chunker per strategy
func NewDispatcher(config Config) (*Dispatcher, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Dispatcher{
		config: config,
		text:   NewTextChunker(config.TextChunkSize),
		pdf:    NewPDFChunker(config.PDFChunkSize, config.VerifyPDF),
		raw:    NewRawChunker(config.RawChunkSize),
	}, nil
}

// Validate rejects budgets that could never produce a chunk.
func (c Config) Validate() error {
	var errs []error
	for name, v := range map[string]int64{
		"threshold":       c.Threshold,
		"text chunk size": c.TextChunkSize,
		"pdf chunk size":  c.PDFChunkSize,
		"raw chunk size":  c.RawChunkSize,
	} {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", name, v))
		}
	}
	return errors.Join(errs...)
}

// KindOf infers the structural kind of a file from its extension.
func KindOf(filename string) Kind {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return KindLines
	case ".pdf":
		return KindPages
	default:
		return KindRaw
	}
}

// Split chunks the file at path if it is larger than the threshold. On
// success the chunks sit next to path and path itself is removed. On failure
// no chunk of this run is left behind and path is untouched.
func (d *Dispatcher) Split(ctx context.Context, path, filename string, size int64) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	if size <= d.config.Threshold {
		return Result{
			Strategy: StrategyNone,
			Message:  "File is small. Saved without chunking.",
		}, nil
	}

	kind := KindOf(filename)
	chunker, strategy := d.chunkerFor(kind)
	src := SourceFile{Path: path, Name: filename, Size: size, Kind: kind}

	log.Printf("🎯 [dispatcher] %s (%s, %s): strategy %s",
		filename, kind, humanize.IBytes(uint64(size)), chunker.Name())

	staging, err := NewStaging(filepath.Dir(path))
	if err != nil {
		return Result{}, err
	}

	chunks, err := chunker.Split(src, staging)
	if err != nil {
		if abortErr := staging.Abort(); abortErr != nil {
			log.Printf("⚠️  [dispatcher] cleaning %s: %v", staging.Dir(), abortErr)
		}
		return Result{}, fmt.Errorf("%s chunker failed on %s: %w", chunker.Name(), filename, err)
	}

	if err := staging.Commit(); err != nil {
		return Result{}, err
	}

	if err := os.Remove(path); err != nil {
		if revertErr := staging.Revert(); revertErr != nil {
			log.Printf("⚠️  [dispatcher] reverting chunks of %s: %v", filename, revertErr)
		}
		return Result{}, fmt.Errorf("removing original %s: %w", filename, err)
	}

	return Result{
		Strategy: strategy,
		Chunks:   chunks,
		Message:  d.summary(strategy, len(chunks)),
	}, nil
}

func (d *Dispatcher) chunkerFor(kind Kind) (Chunker, Strategy) {
	switch kind {
	case KindLines:
		return d.text, StrategyText
	case KindPages:
		return d.pdf, StrategyPDF
	default:
		return d.raw, StrategyRaw
	}
}

func (d *Dispatcher) summary(strategy Strategy, n int) string {
	switch strategy {
	case StrategyText:
		return fmt.Sprintf("Text file split into %d chunks.", n)
	case StrategyPDF:
		return fmt.Sprintf("PDF split into %d chunks (max %s each).", n, humanize.IBytes(uint64(d.config.PDFChunkSize)))
	default:
		return fmt.Sprintf("Binary file split into %d chunks (raw bytes).", n)
	}
}
