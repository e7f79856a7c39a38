package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"time"

	"upload_splitter/internal/chunker"

	"github.com/philippgille/chromem-go"
)

const collectionName = "chunks"

// Metadata is the persisted list of processed uploads
type Metadata struct {
	Uploads    map[string]UploadInfo `json:"uploads"`
	UploadPath string                `json:"upload_path"`
}

// UploadInfo describes one processed upload and the files it left behind
type UploadInfo struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Size      int64            `json:"size"`
	Strategy  chunker.Strategy `json:"strategy"`
	Chunks    []chunker.Chunk  `json:"chunks,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// Files returns the names stored for the upload: its chunks, or the original
// file when it was small enough to keep whole.
func (u UploadInfo) Files() []string {
	if len(u.Chunks) == 0 {
		return []string{u.Name}
	}
	names := make([]string, 0, len(u.Chunks))
	for _, c := range u.Chunks {
		names = append(names, c.Name)
	}
	return names
}

// Catalog records every upload in a JSON metadata file and indexes each
// stored file in a chromem collection for search.
type Catalog struct {
	mu            sync.Mutex
	metadataFile  string
	dbFile        string
	metadata      *Metadata
	db            *chromem.DB
	embeddingFunc chromem.EmbeddingFunc
}

func NewCatalog(metadataFile, dbFile string) *Catalog {
	return &Catalog{
		metadataFile:  metadataFile,
		dbFile:        dbFile,
		metadata:      &Metadata{Uploads: make(map[string]UploadInfo)},
		db:            chromem.NewDB(),
		embeddingFunc: nameEmbedding,
	}
}

// Load restores the catalog. A catalog written for a different upload
// directory describes files that are not there, so it is discarded.
func (c *Catalog) Load(uploadPath string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.loadMetadata(); err != nil {
		log.Printf("⚠️  [catalog] ignoring unreadable metadata %s: %v", c.metadataFile, err)
		c.metadata = &Metadata{Uploads: make(map[string]UploadInfo)}
	}

	if c.metadata.UploadPath != "" && c.metadata.UploadPath != uploadPath {
		log.Printf("[catalog] upload directory changed from %s to %s, invalidating catalog", c.metadata.UploadPath, uploadPath)
		c.metadata.Uploads = make(map[string]UploadInfo)
		_ = os.Remove(c.dbFile)
	}
	c.metadata.UploadPath = uploadPath

	if _, err := os.Stat(c.dbFile); err == nil {
		log.Printf("[catalog] loading search index from %s", c.dbFile)
		if err := c.db.ImportFromFile(c.dbFile, "", collectionName); err != nil {
			return fmt.Errorf("failed to import search index: %w", err)
		}
	}

	coll, err := c.db.GetOrCreateCollection(collectionName, nil, c.embeddingFunc)
	if err != nil {
		return fmt.Errorf("failed to open collection: %w", err)
	}
	log.Printf("[catalog] %d uploads, %d indexed files", len(c.metadata.Uploads), coll.Count())

	return c.saveMetadata()
}

// Record stores info and indexes its files.
func (c *Catalog) Record(ctx context.Context, info UploadInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	coll, err := c.db.GetOrCreateCollection(collectionName, nil, c.embeddingFunc)
	if err != nil {
		return fmt.Errorf("failed to open collection: %w", err)
	}

	var docs []chromem.Document
	if len(info.Chunks) == 0 {
		docs = append(docs, chromem.Document{
			ID:      info.ID + "/" + info.Name,
			Content: info.Name,
			Metadata: map[string]string{
				"upload_id": info.ID,
				"source":    info.Name,
				"strategy":  string(info.Strategy),
				"size":      strconv.FormatInt(info.Size, 10),
			},
		})
	}
	for _, ch := range info.Chunks {
		docs = append(docs, chromem.Document{
			ID:      info.ID + "/" + ch.Name,
			Content: ch.Name,
			Metadata: map[string]string{
				"upload_id": info.ID,
				"source":    info.Name,
				"strategy":  string(info.Strategy),
				"index":     strconv.Itoa(ch.Index),
				"size":      strconv.FormatInt(ch.Size, 10),
				"sha256":    ch.Digest,
			},
		})
	}

	if err := coll.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to index %s: %w", info.Name, err)
	}

	c.metadata.Uploads[info.ID] = info
	if err := c.saveMetadata(); err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}
	if err := c.saveDB(); err != nil {
		return fmt.Errorf("failed to save search index: %w", err)
	}
	return nil
}

// List returns all uploads, oldest first.
func (c *Catalog) List() []UploadInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	list := make([]UploadInfo, 0, len(c.metadata.Uploads))
	for _, info := range c.metadata.Uploads {
		list = append(list, info)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list
}

func (c *Catalog) Get(id string) (UploadInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	info, ok := c.metadata.Uploads[id]
	return info, ok
}

func (c *Catalog) loadMetadata() error {
	if c.metadataFile == "" {
		return nil
	}
	f, err := os.Open(c.metadataFile)
	if os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(c.metadata); err != nil {
		return err
	}
	if c.metadata.Uploads == nil {
		c.metadata.Uploads = make(map[string]UploadInfo)
	}
	return nil
}

func (c *Catalog) saveMetadata() error {
	if c.metadataFile == "" {
		return nil
	}
	f, err := os.Create(c.metadataFile)
	if err != nil {
		return err
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(c.metadata)
}

func (c *Catalog) saveDB() error {
	if c.dbFile == "" {
		return nil
	}
	return c.db.ExportToFile(c.dbFile, true, "", collectionName)
}
