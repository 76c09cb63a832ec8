package imagecache

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
)

func newTestCache(t *testing.T, maxPayload int) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "images.db"), maxPayload)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	return c
}

func TestPutGet_RoundTrip(t *testing.T) {
	c := newTestCache(t, 0)

	payload := []byte("fake-jpeg-bytes")
	if _, err := c.Put("dish-a", "pork.jpg", payload); err != nil {
		t.Fatalf("put: %v", err)
	}

	rec, err := c.Get("dish-a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Filename != "pork.jpg" || !bytes.Equal(rec.Payload, payload) {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.UploadedToCloud || rec.CloudURL != "" || rec.UploadTime != nil {
		t.Fatal("fresh record must not be marked uploaded")
	}
	if rec.LocalLoadTime.IsZero() {
		t.Fatal("local load time not set")
	}
}

func TestPut_ReplaceResetsCloudStatus(t *testing.T) {
	c := newTestCache(t, 0)

	c.Put("dish-a", "v1.jpg", []byte("v1"))
	if err := c.MarkUploaded("dish-a", "https://img.example/v1.jpg"); err != nil {
		t.Fatalf("mark uploaded: %v", err)
	}

	// Attaching a new image invalidates the old cloud copy.
	if _, err := c.Put("dish-a", "v2.jpg", []byte("v2")); err != nil {
		t.Fatalf("replace: %v", err)
	}
	rec, _ := c.Get("dish-a")
	if rec.UploadedToCloud || rec.CloudURL != "" {
		t.Fatalf("replacement must reset cloud status: %+v", rec)
	}
}

func TestPut_QuotaExceeded(t *testing.T) {
	c := newTestCache(t, 8)

	_, err := c.Put("dish-a", "big.jpg", make([]byte, 9))
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got: %v", err)
	}
	if _, err := c.Get("dish-a"); !errors.Is(err, ErrNotFound) {
		t.Fatal("oversized payload must not be stored")
	}
}

func TestMarkUploaded(t *testing.T) {
	c := newTestCache(t, 0)
	c.Put("dish-a", "pork.jpg", []byte("x"))

	if err := c.MarkUploaded("dish-a", "https://img.example/pork.jpg"); err != nil {
		t.Fatalf("mark uploaded: %v", err)
	}
	rec, _ := c.Get("dish-a")
	if !rec.UploadedToCloud || rec.CloudURL != "https://img.example/pork.jpg" {
		t.Fatalf("cloud status not recorded: %+v", rec)
	}
	if rec.UploadTime == nil {
		t.Fatal("upload time not recorded")
	}
}

func TestMarkUploaded_NotFound(t *testing.T) {
	c := newTestCache(t, 0)
	if err := c.MarkUploaded("nope", "https://img.example/x.jpg"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	c := newTestCache(t, 0)
	if _, err := c.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestClear(t *testing.T) {
	c := newTestCache(t, 0)
	c.Put("dish-a", "a.jpg", []byte("a"))
	c.Put("dish-b", "b.jpg", []byte("b"))

	if err := c.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	recs, err := c.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected empty cache, got %d records", len(recs))
	}
}
