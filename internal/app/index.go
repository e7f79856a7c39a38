package app

import (
	"bytes"
	_ "embed"
	"html/template"
	texttemplate "text/template"

	"upload_splitter/internal/config"

	"github.com/dustin/go-humanize"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed index.md
var indexMarkdown string

var indexLayout = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Upload splitter</title></head>
<body>
{{.Body}}
<h2>Upload</h2>
<form method="post" action="/upload" enctype="multipart/form-data">
<input type="file" name="file">
<button type="submit">Upload</button>
</form>
</body>
</html>
`))

// renderIndex renders the landing page once; budgets are filled in from cfg.
func renderIndex(cfg *config.Config) ([]byte, error) {
	tmpl, err := texttemplate.New("index.md").Parse(indexMarkdown)
	if err != nil {
		return nil, err
	}

	var md bytes.Buffer
	err = tmpl.Execute(&md, map[string]string{
		"Threshold": humanize.IBytes(uint64(cfg.SplitThreshold)),
		"Text":      humanize.IBytes(uint64(cfg.TextChunkSize)),
		"PDF":       humanize.IBytes(uint64(cfg.PDFChunkSize)),
		"Raw":       humanize.IBytes(uint64(cfg.RawChunkSize)),
	})
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	converter := goldmark.New(goldmark.WithExtensions(extension.Table))
	if err := converter.Convert(md.Bytes(), &body); err != nil {
		return nil, err
	}

	var page bytes.Buffer
	if err := indexLayout.Execute(&page, map[string]any{"Body": template.HTML(body.String())}); err != nil {
		return nil, err
	}
	return page.Bytes(), nil
}
