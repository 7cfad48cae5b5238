package registry

import (
	"bytes"
	"testing"
)

func TestBlobStoreWriteRead(t *testing.T) {
	store := NewBlobStore(t.TempDir())

	content := []byte("checkpoint-plan-artifact-payload")
	digest, err := store.Write(content)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := store.Read(digest)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Fatalf("Read returned %q, want %q", got, content)
	}
}

func TestBlobStoreDedup(t *testing.T) {
	store := NewBlobStore(t.TempDir())

	content := []byte("duplicate-content")
	d1, err := store.Write(content)
	if err != nil {
		t.Fatalf("first Write: %v", err)
	}
	d2, err := store.Write(content)
	if err != nil {
		t.Fatalf("second Write: %v", err)
	}
	if d1 != d2 {
		t.Fatalf("digests differ for identical content: %s vs %s", d1, d2)
	}
}

func TestBlobStoreReadMissing(t *testing.T) {
	store := NewBlobStore(t.TempDir())
	if _, err := store.Read("sha256:deadbeef"); err == nil {
		t.Fatal("expected error reading missing blob")
	}
}
