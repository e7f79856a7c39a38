package app

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upload_splitter/internal/config"
)

func newTestApp(t *testing.T) *App {
	t.Helper()

	root := t.TempDir()
	cfg := &config.Config{
		UploadDir:       filepath.Join(root, "uploads"),
		DataDir:         filepath.Join(root, "data"),
		ListenAddr:      "127.0.0.1:0",
		SplitThreshold:  16,
		TextChunkSize:   10,
		PDFChunkSize:    1 << 20,
		RawChunkSize:    8,
		MaxUploadSize:   1 << 20,
		VerifyPDFChunks: false,
	}
	require.NoError(t, cfg.Finalize())

	a, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, a.Init())
	return a
}

func uploadRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(a *App, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestUpload_SmallFileKept(t *testing.T) {
	a := newTestApp(t)

	rec := serve(a, uploadRequest(t, "notes.txt", []byte("h\n1\n")))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[uploadResponse](t, rec)
	assert.Equal(t, "File is small. Saved without chunking.", resp.Message)
	assert.Equal(t, "none", string(resp.Strategy))
	assert.Empty(t, resp.Chunks)
	assert.NotEmpty(t, resp.UploadID)

	b, err := os.ReadFile(filepath.Join(a.cfg.UploadDir, resp.UploadID, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "h\n1\n", string(b))
}

func TestUpload_TextSplit(t *testing.T) {
	a := newTestApp(t)

	rec := serve(a, uploadRequest(t, "my data.csv", []byte("a,b,c\n1,2\n3,4\n5,6\n")))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[uploadResponse](t, rec)
	assert.Equal(t, "Text file split into 3 chunks.", resp.Message)
	assert.Equal(t, "my_data.csv", resp.File)
	assert.Equal(t, []string{"my_data_chunk1.csv", "my_data_chunk2.csv", "my_data_chunk3.csv"}, resp.Chunks)

	dir := filepath.Join(a.cfg.UploadDir, resp.UploadID)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, resp.Chunks, names)
}

func TestUpload_RawSplit(t *testing.T) {
	a := newTestApp(t)

	rec := serve(a, uploadRequest(t, "image.png", bytes.Repeat([]byte{0x89}, 20)))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[uploadResponse](t, rec)
	assert.Equal(t, "Binary file split into 3 chunks (raw bytes).", resp.Message)
	assert.Equal(t, []string{"image_part0000.png", "image_part0001.png", "image_part0002.png"}, resp.Chunks)
}

func TestUpload_NoFile(t *testing.T) {
	a := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(""))
	rec := serve(a, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string]string{"error": "No file uploaded"}, decode[map[string]string](t, rec))
}

func TestUpload_InvalidTextRejected(t *testing.T) {
	a := newTestApp(t)

	content := []byte("h\n" + strings.Repeat("row\n", 5) + "\xff\xfe\n")
	rec := serve(a, uploadRequest(t, "broken.txt", content))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	entries, err := os.ReadDir(a.cfg.UploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "failed upload leaves nothing behind")
	assert.Empty(t, a.catalog.List())
}

func TestUpload_SameNameConcurrently(t *testing.T) {
	a := newTestApp(t)
	content := []byte("a,b,c\n1,2\n3,4\n5,6\n")

	results := make(chan *UploadResult, 8)
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			res, err := a.processUpload(t.Context(), "same.csv", bytes.NewReader(content))
			if err != nil {
				errs <- err
				return
			}
			results <- res
		}()
	}

	ids := map[string]bool{}
	for i := 0; i < 8; i++ {
		select {
		case err := <-errs:
			t.Fatalf("upload failed: %v", err)
		case res := <-results:
			assert.Len(t, res.Result.Chunks, 3)
			ids[res.ID] = true
		}
	}
	assert.Len(t, ids, 8)
	assert.Len(t, a.catalog.List(), 8)
}

func TestDocumentsAndRows(t *testing.T) {
	a := newTestApp(t)

	first := decode[uploadResponse](t, serve(a, uploadRequest(t, "a.csv", []byte("a,b,c\n1,2\n3,4\n5,6\n"))))
	second := decode[uploadResponse](t, serve(a, uploadRequest(t, "small.bin", []byte("tiny"))))

	rec := serve(a, httptest.NewRequest(http.MethodGet, "/api/documents", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	docs := decode[[]documentResponse](t, rec)
	require.Len(t, docs, 2)

	ids := []string{docs[0].ID, docs[1].ID}
	assert.ElementsMatch(t, []string{first.UploadID, second.UploadID}, ids)

	rows := decode[[]string](t, serve(a, httptest.NewRequest(http.MethodGet, "/api/rows/"+first.UploadID, nil)))
	assert.Equal(t, first.Chunks, rows)

	rows = decode[[]string](t, serve(a, httptest.NewRequest(http.MethodGet, "/api/rows/"+second.UploadID, nil)))
	assert.Equal(t, []string{"small.bin"}, rows)

	rows = decode[[]string](t, serve(a, httptest.NewRequest(http.MethodGet, "/api/rows/unknown", nil)))
	assert.Empty(t, rows)
}

func TestSearch(t *testing.T) {
	a := newTestApp(t)

	up := decode[uploadResponse](t, serve(a, uploadRequest(t, "quarterly report.csv", []byte("a,b,c\n1,2\n3,4\n5,6\n"))))
	serve(a, uploadRequest(t, "zzz.bin", []byte("tiny")))

	rec := serve(a, httptest.NewRequest(http.MethodGet, "/api/search?q=quarterly_report&n=3", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	results := decode[[]SearchResult](t, rec)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, up.UploadID, r.UploadID)
		assert.Equal(t, "quarterly_report.csv", r.Source)
		assert.Contains(t, up.Chunks, r.File)
		assert.Len(t, r.SHA256, 64)
	}

	rec = serve(a, httptest.NewRequest(http.MethodGet, "/api/search", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(a, httptest.NewRequest(http.MethodGet, "/api/search?q=x&n=zero", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIndexPage(t *testing.T) {
	a := newTestApp(t)

	rec := serve(a, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	page := string(body)
	assert.Contains(t, page, "<h1>Upload splitter</h1>")
	assert.Contains(t, page, "<table>")
	assert.Contains(t, page, "16 B")
	assert.Contains(t, page, `enctype="multipart/form-data"`)

	rec = serve(a, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
