package chunker

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"unicode/utf8"
)

// TextChunker splits line-structured text (CSV, plain text) into chunks of
// whole lines. The first line is treated as a header and repeated at the top
// of every chunk.
type TextChunker struct {
	maxSize int64
}

// NewTextChunker creates a line chunker with the given per-chunk budget
func NewTextChunker(maxSize int64) *TextChunker {
	return &TextChunker{maxSize: maxSize}
}

func (t *TextChunker) Name() string {
	return "text"
}

func (t *TextChunker) Split(src SourceFile, sink Sink) ([]Chunk, error) {
	f, err := os.Open(src.Path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w: %w", src.Name, ErrSourceUnreadable, err)
	}
	defer f.Close()

	base, ext := SplitName(src.Name)
	chunks, err := t.split(f, base, ext, sink)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ [%s] Created %d chunks", t.Name(), len(chunks))
	return chunks, nil
}

func (t *TextChunker) split(r io.Reader, base, ext string, sink Sink) ([]Chunk, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	var chunks []Chunk

	acc := NewAccumulator[[]byte](t.maxSize, func(index int, lines [][]byte, size int64) error {
		chunk, err := writeChunk(sink, index, LineChunkName(base, ext, index), len(lines), func(w io.Writer) error {
			bw := bufio.NewWriter(w)
			for _, line := range lines {
				if _, err := bw.Write(line); err != nil {
					return err
				}
			}
			return bw.Flush()
		})
		if err != nil {
			return err
		}
		chunks = append(chunks, chunk)
		return nil
	})

	header, err := readLine(br, 1)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	acc.Seed([][]byte{header}, LineSize(header))

	for lineNo := 2; err == nil; lineNo++ {
		var line []byte
		line, err = readLine(br, lineNo)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		if len(line) == 0 {
			continue
		}
		if offerErr := acc.Offer(line, LineSize(line)); offerErr != nil {
			return nil, offerErr
		}
	}

	if err := acc.Finish(); err != nil {
		return nil, err
	}
	return chunks, nil
}

// readLine returns the next line including its terminator. The last line of
// a stream may come back together with io.EOF.
func readLine(br *bufio.Reader, lineNo int) ([]byte, error) {
	line, err := br.ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading line %d: %w: %w", lineNo, ErrSourceUnreadable, err)
	}
	if !utf8.Valid(line) {
		return nil, fmt.Errorf("line %d: %w", lineNo, ErrEncoding)
	}
	return line, err
}
