package chunker

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
)

// RawChunker cuts any file into fixed-size blocks with no regard for content
type RawChunker struct {
	blockSize int64
}

func NewRawChunker(blockSize int64) *RawChunker {
	return &RawChunker{blockSize: blockSize}
}

func (c *RawChunker) Name() string {
	return "raw"
}

func (c *RawChunker) Split(src SourceFile, sink Sink) ([]Chunk, error) {
	f, err := os.Open(src.Path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w: %w", src.Name, ErrSourceUnreadable, err)
	}
	defer f.Close()

	base, ext := SplitName(src.Name)
	chunks, err := c.split(f, base, ext, sink)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ [%s] Created %d chunks", c.Name(), len(chunks))
	return chunks, nil
}

func (c *RawChunker) split(r io.Reader, base, ext string, sink Sink) ([]Chunk, error) {
	var chunks []Chunk
	buf := make([]byte, c.blockSize)

	for index := 0; ; index++ {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			block := buf[:n]
			chunk, werr := writeChunk(sink, index, RawPartName(base, ext, index), 1, func(w io.Writer) error {
				_, err := w.Write(block)
				return err
			})
			if werr != nil {
				return nil, werr
			}
			chunks = append(chunks, chunk)
		}

		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading block %d: %w: %w", index, ErrSourceUnreadable, err)
		}
	}

	return chunks, nil
}
