package chunker

import (
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	sha256 "github.com/minio/sha256-simd"
)

// SplitName splits a filename into base and extension, e.g. "a.tar.gz" -> ("a.tar", ".gz").
// Leading dots belong to the base, so ".bashrc" has no extension.
func SplitName(name string) (string, string) {
	name = filepath.Base(name)
	ext := filepath.Ext(strings.TrimLeft(name, "."))
	return strings.TrimSuffix(name, ext), ext
}

// PartName is the name of the n-th chunk of a page-structured source.
func PartName(base, ext string, n int) string {
	return fmt.Sprintf("%s_part%d%s", base, n, ext)
}

// LineChunkName is the name of the n-th chunk of a line-structured source.
func LineChunkName(base, ext string, n int) string {
	return fmt.Sprintf("%s_chunk%d%s", base, n, ext)
}

// RawPartName is the name of the n-th block of a raw source, zero padded.
func RawPartName(base, ext string, n int) string {
	return fmt.Sprintf("%s_part%04d%s", base, n, ext)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// writeChunk creates name in sink and fills it through write, recording size and digest.
func writeChunk(sink Sink, index int, name string, units int, write func(w io.Writer) error) (Chunk, error) {
	f, err := sink.Create(name)
	if err != nil {
		return Chunk{}, fmt.Errorf("creating %s: %w: %w", name, ErrChunkWriteFailed, err)
	}

	h := sha256.New()
	cw := &countingWriter{w: io.MultiWriter(f, h)}
	if err := write(cw); err != nil {
		f.Close()
		return Chunk{}, fmt.Errorf("writing %s: %w: %w", name, ErrChunkWriteFailed, err)
	}
	if err := f.Close(); err != nil {
		return Chunk{}, fmt.Errorf("closing %s: %w: %w", name, ErrChunkWriteFailed, err)
	}

	return Chunk{
		Index:  index,
		Name:   name,
		Size:   cw.n,
		Units:  units,
		Digest: hex.EncodeToString(h.Sum(nil)),
	}, nil
}
