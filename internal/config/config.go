package config

import (
	"fmt"
	"path/filepath"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	UploadDir           string  `env:"UPLOAD_DIR" envDefault:"./uploads"`
	DataDir             string  `env:"DATA_DIR" envDefault:"./data"`
	InboxDir            string  `env:"INBOX_DIR"`
	ListenAddr          string  `env:"LISTEN_ADDR" envDefault:":8080"`
	SplitThreshold      int64   `env:"SPLIT_THRESHOLD" envDefault:"10485760"`
	TextChunkSize       int64   `env:"TEXT_CHUNK_SIZE" envDefault:"10485760"`
	PDFChunkSize        int64   `env:"PDF_CHUNK_SIZE" envDefault:"10485760"`
	RawChunkSize        int64   `env:"RAW_CHUNK_SIZE" envDefault:"10485760"`
	MaxUploadSize       int64   `env:"MAX_UPLOAD_SIZE" envDefault:"1073741824"`
	VerifyPDFChunks     bool    `env:"VERIFY_PDF_CHUNKS" envDefault:"true"`
	SearchMinSimilarity float32 `env:"SEARCH_MIN_SIMILARITY" envDefault:"0.2"`
	MetadataFile        string
	DBFile              string
}

func Init(cfg interface{}) error {
	return env.Parse(cfg)
}

// Finalize derives the catalog file paths from DataDir and checks limits.
func (c *Config) Finalize() error {
	if c.UploadDir == "" {
		return fmt.Errorf("upload dir must be set")
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("max upload size must be positive, got %d", c.MaxUploadSize)
	}
	c.MetadataFile = filepath.Join(c.DataDir, "uploads.json")
	c.DBFile = filepath.Join(c.DataDir, "chunks.gob.gz")
	return nil
}
