package chunker

import (
	"fmt"
	"io"
)

// PageDocument is a page-structured source that can serialize any subset of
// its pages as a standalone document.
type PageDocument interface {
	// PageCount returns the number of pages; pages are numbered from 1.
	PageCount() int

	// WritePages writes a document holding exactly pages, in that order.
	WritePages(w io.Writer, pages []int) error

	Close() error
}

// LineSize is the encoded byte length of a line, terminator included.
func LineSize(line []byte) int64 {
	return int64(len(line))
}

// PageEstimator measures pages by serializing each one as a one-page document.
// The measurement includes the fixed per-document overhead, so it overestimates
// pages that end up sharing a chunk.
type PageEstimator struct {
	doc   PageDocument
	cache map[int]int64
}

func NewPageEstimator(doc PageDocument) *PageEstimator {
	return &PageEstimator{
		doc:   doc,
		cache: make(map[int]int64),
	}
}

// Size returns the serialized size of page alone.
func (e *PageEstimator) Size(page int) (int64, error) {
	if n, ok := e.cache[page]; ok {
		return n, nil
	}

	cw := &countingWriter{w: io.Discard}
	if err := e.doc.WritePages(cw, []int{page}); err != nil {
		return 0, fmt.Errorf("measuring page %d: %w: %w", page, ErrSourceUnreadable, err)
	}

	e.cache[page] = cw.n
	return cw.n, nil
}
