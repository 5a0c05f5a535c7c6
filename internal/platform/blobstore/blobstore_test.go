package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestInMemoryUploadDownload(t *testing.T) {
	store := NewInMemoryBlobStore()
	meta, err := store.Upload(context.Background(), BlobMetadata{
		FileName:    "audiometry.pdf",
		ContentType: "application/pdf",
		Category:    "audiometry",
	}, strings.NewReader("pdf-bytes"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.Key == "" || meta.Size != 9 || meta.Hash == "" {
		t.Errorf("metadata not filled: %+v", meta)
	}

	rc, got, err := store.Download(context.Background(), meta.Key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if !bytes.Equal(data, []byte("pdf-bytes")) {
		t.Errorf("content mismatch: %q", data)
	}
	if got.FileName != "audiometry.pdf" {
		t.Errorf("filename mismatch: %q", got.FileName)
	}
}

func TestInMemoryUpload_ExplicitKeyOverwrites(t *testing.T) {
	store := NewInMemoryBlobStore()
	key := "certificates/task-1.pdf"
	for i := 0; i < 2; i++ {
		if _, err := store.Upload(context.Background(), BlobMetadata{FileName: "cert.pdf", Key: key}, strings.NewReader("v")); err != nil {
			t.Fatalf("upload %d: %v", i, err)
		}
	}
	meta, err := store.GetMetadata(context.Background(), key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.Key != key {
		t.Errorf("expected stable key, got %q", meta.Key)
	}
}

func TestInMemoryUpload_MissingFileName(t *testing.T) {
	store := NewInMemoryBlobStore()
	if _, err := store.Upload(context.Background(), BlobMetadata{}, strings.NewReader("x")); !errors.Is(err, ErrMissingFileName) {
		t.Fatalf("expected ErrMissingFileName, got %v", err)
	}
}

func TestInMemoryDownload_NotFound(t *testing.T) {
	store := NewInMemoryBlobStore()
	if _, _, err := store.Download(context.Background(), "missing"); !errors.Is(err, ErrBlobNotFound) {
		t.Fatalf("expected ErrBlobNotFound, got %v", err)
	}
}

func TestInMemoryDelete(t *testing.T) {
	store := NewInMemoryBlobStore()
	meta, _ := store.Upload(context.Background(), BlobMetadata{FileName: "a.txt"}, strings.NewReader("x"))
	if err := store.Delete(context.Background(), meta.Key); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Delete(context.Background(), meta.Key); !errors.Is(err, ErrBlobNotFound) {
		t.Fatalf("expected ErrBlobNotFound on second delete, got %v", err)
	}
}
