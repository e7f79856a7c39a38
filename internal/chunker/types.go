package chunker

import (
	"errors"
	"io"
)

var (
	// ErrSourceUnreadable: the source is missing, unreadable or structurally corrupt.
	ErrSourceUnreadable = errors.New("source unreadable")
	// ErrChunkWriteFailed: a chunk file could not be created or written.
	ErrChunkWriteFailed = errors.New("chunk write failed")
	// ErrEncoding: line-structured input is not valid UTF-8.
	ErrEncoding = errors.New("invalid text encoding")
)

// Kind is the structural kind of a source file, inferred from its extension
type Kind int

const (
	KindRaw Kind = iota
	KindLines
	KindPages
)

func (k Kind) String() string {
	switch k {
	case KindLines:
		return "line-structured"
	case KindPages:
		return "page-structured"
	default:
		return "raw"
	}
}

// Strategy names the splitting strategy the dispatcher ran
type Strategy string

const (
	StrategyNone Strategy = "none"
	StrategyText Strategy = "text"
	StrategyPDF  Strategy = "pdf"
	StrategyRaw  Strategy = "raw"
)

// SourceFile is the file being split. Name is the upload filename the chunk
// names are derived from; it may differ from the base of Path.
type SourceFile struct {
	Path string
	Name string
	Size int64
	Kind Kind
}

// Chunk describes one written output file
type Chunk struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	Units  int    `json:"units"`
	Digest string `json:"sha256"`
}

// Result is what a dispatcher run reports back to the caller
type Result struct {
	Strategy Strategy
	Chunks   []Chunk
	Message  string
}

// Names returns the chunk filenames in order.
func (r Result) Names() []string {
	names := make([]string, 0, len(r.Chunks))
	for _, c := range r.Chunks {
		names = append(names, c.Name)
	}
	return names
}

// Sink receives chunk files by base name
type Sink interface {
	Create(name string) (io.WriteCloser, error)
}

// Chunker - interface for all splitting strategies
type Chunker interface {
	// Split writes the chunks of src into sink, in index order
	Split(src SourceFile, sink Sink) ([]Chunk, error)

	// Name returns the chunker name for logging
	Name() string
}

// Config holds the budgets used by the dispatcher
type Config struct {
	Threshold     int64 // files at or below this size are not split
	TextChunkSize int64
	PDFChunkSize  int64
	RawChunkSize  int64
	VerifyPDF     bool // re-read every PDF chunk and check its page count
}

// DefaultConfig mirrors the budgets of the upload service: 10 MiB everywhere.
func DefaultConfig() Config {
	const tenMiB = 10 * 1024 * 1024
	return Config{
		Threshold:     tenMiB,
		TextChunkSize: tenMiB,
		PDFChunkSize:  tenMiB,
		RawChunkSize:  tenMiB,
		VerifyPDF:     true,
	}
}
