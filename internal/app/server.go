package app

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"upload_splitter/internal/chunker"
)

type uploadResponse struct {
	Message  string           `json:"message"`
	UploadID string           `json:"upload_id"`
	File     string           `json:"file"`
	Strategy chunker.Strategy `json:"strategy"`
	Chunks   []string         `json:"chunks,omitempty"`
}

type documentResponse struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Size      int64            `json:"size"`
	Strategy  chunker.Strategy `json:"strategy"`
	CreatedAt string           `json:"created_at"`
}

// Handler returns the HTTP routes of the upload service.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", a.handleIndex)
	mux.HandleFunc("POST /upload", a.handleUpload)
	mux.HandleFunc("GET /api/documents", a.handleDocuments)
	mux.HandleFunc("GET /api/rows/{id}", a.handleRows)
	mux.HandleFunc("GET /api/search", a.handleSearch)
	return mux
}

func (a *App) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(a.indexPage)
}

func (a *App) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.cfg.MaxUploadSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	res, err := a.processUpload(r.Context(), header.Filename, file)
	if err != nil {
		log.Printf("❌ Upload of %q failed: %v", header.Filename, err)
		switch {
		case errors.Is(err, chunker.ErrEncoding), errors.Is(err, chunker.ErrSourceUnreadable):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "Failed to process upload")
		}
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Message:  res.Result.Message,
		UploadID: res.ID,
		File:     res.Name,
		Strategy: res.Result.Strategy,
		Chunks:   res.Result.Names(),
	})
}

func (a *App) handleDocuments(w http.ResponseWriter, _ *http.Request) {
	docs := []documentResponse{}
	for _, info := range a.catalog.List() {
		docs = append(docs, documentResponse{
			ID:        info.ID,
			Name:      info.Name,
			Size:      info.Size,
			Strategy:  info.Strategy,
			CreatedAt: info.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	writeJSON(w, http.StatusOK, docs)
}

func (a *App) handleRows(w http.ResponseWriter, r *http.Request) {
	info, ok := a.catalog.Get(r.PathValue("id"))
	if !ok {
		writeJSON(w, http.StatusOK, []string{})
		return
	}
	writeJSON(w, http.StatusOK, info.Files())
}

func (a *App) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "Missing query parameter q")
		return
	}

	n := 10
	if s := r.URL.Query().Get("n"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			writeError(w, http.StatusBadRequest, "Parameter n must be a positive integer")
			return
		}
		n = v
	}

	results, err := a.catalog.Search(r.Context(), query, n, a.cfg.SearchMinSimilarity)
	if err != nil {
		log.Printf("❌ Search error: %v", err)
		writeError(w, http.StatusInternalServerError, "Search failed")
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("⚠️  Failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
