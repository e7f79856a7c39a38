package chunker

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Staging is a Sink that writes chunks into a hidden directory next to their
// final location and publishes them all at once on Commit.
type Staging struct {
	dir       string
	final     string
	names     []string
	published []string
}

// NewStaging creates a staging directory inside finalDir.
func NewStaging(finalDir string) (*Staging, error) {
	dir, err := os.MkdirTemp(finalDir, ".staging-*")
	if err != nil {
		return nil, fmt.Errorf("creating staging dir: %w: %w", ErrChunkWriteFailed, err)
	}
	return &Staging{dir: dir, final: finalDir}, nil
}

// Dir returns the staging directory path.
func (s *Staging) Dir() string {
	return s.dir
}

func (s *Staging) Create(name string) (io.WriteCloser, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return nil, fmt.Errorf("invalid chunk name %q", name)
	}
	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, err
	}
	s.names = append(s.names, name)
	return &syncedFile{File: f}, nil
}

// Commit moves every staged chunk into the final directory. If a rename
// fails, chunks already moved are removed again before the error returns.
// Once every chunk is published a leftover staging dir is only logged.
func (s *Staging) Commit() error {
	for _, name := range s.names {
		if err := os.Rename(filepath.Join(s.dir, name), filepath.Join(s.final, name)); err != nil {
			return errors.Join(
				fmt.Errorf("publishing %s: %w: %w", name, ErrChunkWriteFailed, err),
				s.Revert(),
				s.Abort(),
			)
		}
		s.published = append(s.published, name)
	}
	if err := os.RemoveAll(s.dir); err != nil {
		log.Printf("⚠️  [staging] failed to remove %s: %v", s.dir, err)
	}
	return nil
}

// Abort discards everything still staged.
func (s *Staging) Abort() error {
	return os.RemoveAll(s.dir)
}

// Revert removes chunks that Commit already published.
func (s *Staging) Revert() error {
	var errs []error
	for _, name := range s.published {
		if err := os.Remove(filepath.Join(s.final, name)); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	s.published = nil
	return errors.Join(errs...)
}

// syncedFile flushes to stable storage before closing.
type syncedFile struct {
	*os.File
}

func (f *syncedFile) Close() error {
	if err := f.File.Sync(); err != nil {
		f.File.Close()
		return err
	}
	return f.File.Close()
}
