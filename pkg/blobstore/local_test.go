package blobstore_test

import (
	"context"
	"testing"

	"github.com/Abraxas-365/caremail/pkg/blobstore"
	"github.com/Abraxas-365/caremail/pkg/errx"
)

func newStore(t *testing.T) *blobstore.LocalStore {
	t.Helper()
	s, err := blobstore.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	return s
}

func TestLocalStore_WriteReadRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if err := s.Write(ctx, "uploads/report.pdf", []byte("pdf-data")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := s.Read(ctx, "uploads/report.pdf")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != "pdf-data" {
		t.Fatalf("unexpected content: %q", data)
	}

	exists, err := s.Exists(ctx, "uploads/report.pdf")
	if err != nil || !exists {
		t.Fatalf("Exists = %v, %v", exists, err)
	}
}

func TestLocalStore_MissingKeyIsNotFound(t *testing.T) {
	s := newStore(t)

	_, err := s.Read(context.Background(), "nope.bin")
	if err == nil {
		t.Fatal("expected error for missing key")
	}
	var e *errx.Error
	if !errx.As(err, &e) || e.Code != "BLOBSTORE_NOT_FOUND" {
		t.Fatalf("expected BLOBSTORE_NOT_FOUND, got %v", err)
	}

	exists, err := s.Exists(context.Background(), "nope.bin")
	if err != nil || exists {
		t.Fatalf("Exists = %v, %v", exists, err)
	}
}

func TestLocalStore_RejectsTraversal(t *testing.T) {
	s := newStore(t)

	for _, key := range []string{"", "../escape", "a/../../escape"} {
		if _, err := s.Read(context.Background(), key); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}
