// Package registry implements the node-local content-addressed blob store
// and the tag-based peer/fleet discovery poller.
//
// The blob store is a direct repurposing of the model-registry blob store:
// same BlobPath/atomic-rename/SHA256 discipline, now used to persist
// checkpoint-plan artifacts and spawn-script payloads instead of model
// weights.
package registry

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// BlobStore is a local, content-addressed object store rooted at dir.
type BlobStore struct {
	dir string
}

// NewBlobStore creates a BlobStore rooted at dir. The directory is created
// lazily on first write.
func NewBlobStore(dir string) *BlobStore {
	return &BlobStore{dir: dir}
}

// Init ensures the blob directory exists.
func (s *BlobStore) Init() error {
	return os.MkdirAll(filepath.Join(s.dir, "blobs"), 0o755)
}

// BlobPath returns the filesystem path for a content-addressed blob.
// digest is "sha256:<hex>"; stored on disk as blobs/sha256-<hex>.
func (s *BlobStore) BlobPath(digest string) string {
	safe := strings.ReplaceAll(digest, ":", "-")
	return filepath.Join(s.dir, "blobs", safe)
}

// Write hashes content, writes it to a temp file, and atomically renames it
// into its content-addressed location. Returns the digest.
func (s *BlobStore) Write(content []byte) (string, error) {
	if err := s.Init(); err != nil {
		return "", fmt.Errorf("init blob store: %w", err)
	}

	h := sha256.Sum256(content)
	digest := "sha256:" + hex.EncodeToString(h[:])
	blobPath := s.BlobPath(digest)

	if _, err := os.Stat(blobPath); err == nil {
		return digest, nil // already present, content-addressed dedup
	}

	tmp, err := os.CreateTemp(filepath.Join(s.dir, "blobs"), "tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp blob: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("write temp blob: %w", err)
	}
	tmp.Close()

	if err := os.Rename(tmpPath, blobPath); err != nil {
		// Cross-device rename: fall back to copy.
		if copyErr := copyFile(tmpPath, blobPath); copyErr != nil {
			os.Remove(tmpPath)
			return "", fmt.Errorf("move blob: %w", copyErr)
		}
		os.Remove(tmpPath)
	}
	return digest, nil
}

// Read returns the content addressed by digest.
func (s *BlobStore) Read(digest string) ([]byte, error) {
	data, err := os.ReadFile(s.BlobPath(digest))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("blob %s: %w", digest, errBlobNotFound)
		}
		return nil, err
	}
	return data, nil
}

var errBlobNotFound = fmt.Errorf("blob not found")

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
