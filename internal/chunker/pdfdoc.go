package chunker

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func init() {
	// pdfcpu would otherwise create a config directory under the user's home.
	api.DisableConfigDir()
}

func pdfConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	conf.WriteObjectStream = false
	conf.WriteXRefStream = false
	return conf
}

// pdfDocument is a PageDocument backed by a parsed pdfcpu context. The file
// stays open because pdfcpu may resolve objects lazily.
type pdfDocument struct {
	f   *os.File
	ctx *model.Context
}

// OpenPDF parses and validates the PDF at path.
func OpenPDF(path string) (PageDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	doc, err := readPDF(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	doc.f = f
	return doc, nil
}

func readPDF(rs io.ReadSeeker) (*pdfDocument, error) {
	ctx, err := api.ReadContext(rs, pdfConfiguration())
	if err != nil {
		return nil, fmt.Errorf("reading pdf: %w", err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, fmt.Errorf("validating pdf: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("counting pages: %w", err)
	}
	return &pdfDocument{ctx: ctx}, nil
}

func (d *pdfDocument) PageCount() int {
	return d.ctx.PageCount
}

func (d *pdfDocument) WritePages(w io.Writer, pages []int) error {
	dst, err := pdfcpu.ExtractPages(d.ctx, pages, false)
	if err != nil {
		return fmt.Errorf("extracting pages %v: %w", pages, err)
	}
	dst.Configuration.WriteObjectStream = false
	dst.Configuration.WriteXRefStream = false
	return api.WriteContext(dst, w)
}

func (d *pdfDocument) Close() error {
	if d.f == nil {
		return nil
	}
	return d.f.Close()
}

// countPDFPages re-reads a serialized document with an independent parser.
func countPDFPages(b []byte) (int, error) {
	r, err := pdf.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return 0, err
	}
	return r.NumPage(), nil
}
