package app

import (
	"context"
	"fmt"
	"strconv"
)

// SearchResult - one stored file matching a search
type SearchResult struct {
	UploadID   string  `json:"upload_id"`
	File       string  `json:"file"`
	Source     string  `json:"source"`
	Index      int     `json:"index,omitempty"`
	SHA256     string  `json:"sha256,omitempty"`
	Similarity float32 `json:"similarity"`
}

// Search looks up stored files whose names resemble query
func (c *Catalog) Search(ctx context.Context, query string, n int, minSimilarity float32) ([]SearchResult, error) {
	c.mu.Lock()
	coll := c.db.GetCollection(collectionName, c.embeddingFunc)
	c.mu.Unlock()
	if coll == nil {
		return nil, fmt.Errorf("collection %q not found", collectionName)
	}

	// chromem refuses to return more results than it holds
	if count := coll.Count(); n > count {
		n = count
	}
	if n <= 0 {
		return []SearchResult{}, nil
	}

	results, err := coll.Query(ctx, query, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	searchResults := []SearchResult{}
	for _, r := range results {
		if r.Similarity < minSimilarity {
			continue
		}
		index, _ := strconv.Atoi(r.Metadata["index"])
		searchResults = append(searchResults, SearchResult{
			UploadID:   r.Metadata["upload_id"],
			File:       r.Content,
			Source:     r.Metadata["source"],
			Index:      index,
			SHA256:     r.Metadata["sha256"],
			Similarity: r.Similarity,
		})
	}

	return searchResults, nil
}
