package backup

import (
	"context"
	"time"
)

const (
	archiveRoot   = "quillpost"
	archiveDBDir  = archiveRoot + "/db"
	manifestFile  = archiveRoot + "/manifest.json"
	archiveFormat = "quillpost-bson"
	formatVersion = 1

	defaultKeyTemplate = "{Y}/{m}/{filename}"
)

// Collections lists the exported collections in archive order.
var Collections = []string{"users", "categories", "posts"}

type manifest struct {
	Format      string         `json:"format"`
	Version     int            `json:"version"`
	Engine      string         `json:"engine"`
	CreatedAt   time.Time      `json:"created_at"`
	Collections []string       `json:"collections"`
	Counts      map[string]int `json:"counts"`
}

// Uploader stores a finished archive remotely and returns its location.
type Uploader interface {
	Upload(ctx context.Context, key string, payload []byte, contentType string) (string, error)
}

// Artifact is a backup archive written to disk.
type Artifact struct {
	Filename string
	Path     string
	Data     []byte
	Counts   map[string]int
	// RemoteURL is set when the archive was uploaded.
	RemoteURL string
}

type fileItem struct {
	Filename string `json:"filename"`
	Size     string `json:"size"`
}
