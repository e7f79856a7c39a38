package chunker

import (
	"bytes"
	"fmt"
	"io"
	"log"
)

// PDFChunker splits a PDF into documents of whole pages under a byte budget
type PDFChunker struct {
	maxSize int64
	verify  bool
	open    func(path string) (PageDocument, error)
}

// NewPDFChunker creates a page chunker. With verify set every written chunk
// is parsed again and its page count checked.
func NewPDFChunker(maxSize int64, verify bool) *PDFChunker {
	return &PDFChunker{
		maxSize: maxSize,
		verify:  verify,
		open:    OpenPDF,
	}
}

func (p *PDFChunker) Name() string {
	return "pdf"
}

func (p *PDFChunker) Split(src SourceFile, sink Sink) ([]Chunk, error) {
	doc, err := p.open(src.Path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w: %w", src.Name, ErrSourceUnreadable, err)
	}
	defer doc.Close()

	log.Printf("📄 [%s] %s: %d pages, %d bytes", p.Name(), src.Name, doc.PageCount(), src.Size)

	base, ext := SplitName(src.Name)
	chunks, err := p.splitDocument(doc, base, ext, sink)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ [%s] Created %d chunks", p.Name(), len(chunks))
	return chunks, nil
}

func (p *PDFChunker) splitDocument(doc PageDocument, base, ext string, sink Sink) ([]Chunk, error) {
	var chunks []Chunk
	estimator := NewPageEstimator(doc)

	acc := NewAccumulator[int](p.maxSize, func(index int, pages []int, size int64) error {
		// Serialize in memory first: the verification pass needs the bytes.
		var buf bytes.Buffer
		if err := doc.WritePages(&buf, pages); err != nil {
			return fmt.Errorf("materializing pages %d-%d: %w: %w",
				pages[0], pages[len(pages)-1], ErrChunkWriteFailed, err)
		}
		if p.verify {
			if err := verifyPageCount(buf.Bytes(), len(pages)); err != nil {
				return fmt.Errorf("verifying chunk %d: %w: %w", index, ErrChunkWriteFailed, err)
			}
		}

		chunk, err := writeChunk(sink, index, PartName(base, ext, index), len(pages), func(w io.Writer) error {
			_, err := buf.WriteTo(w)
			return err
		})
		if err != nil {
			return err
		}
		chunks = append(chunks, chunk)
		return nil
	})

	for page := 1; page <= doc.PageCount(); page++ {
		size, err := estimator.Size(page)
		if err != nil {
			return nil, err
		}
		if size > p.maxSize {
			log.Printf("⚠️  [%s] page %d alone is %d bytes, over the %d byte budget", p.Name(), page, size, p.maxSize)
		}
		if err := acc.Offer(page, size); err != nil {
			return nil, err
		}
	}
	if err := acc.Finish(); err != nil {
		return nil, err
	}

	return chunks, nil
}

func verifyPageCount(b []byte, want int) error {
	got, err := countPDFPages(b)
	if err != nil {
		return fmt.Errorf("re-reading chunk: %w", err)
	}
	if got != want {
		return fmt.Errorf("chunk has %d pages, expected %d", got, want)
	}
	return nil
}
