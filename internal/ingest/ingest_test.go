// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jeranaias/folio-tui/internal/backend"
)

// =============================================================================
// FAKE UPLOADER
// =============================================================================

type fakeUploader struct {
	mu        sync.Mutex
	textReqs  []backend.StoreTextRequest
	pdfNames  []string
	uploadErr error
}

func (f *fakeUploader) StoreText(ctx context.Context, req backend.StoreTextRequest) (*backend.StoreResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	f.textReqs = append(f.textReqs, req)
	return &backend.StoreResult{Filename: req.Filename, TotalChunks: 3}, nil
}

func (f *fakeUploader) OCRPDF(ctx context.Context, pdf []byte, filename, folderName, title, author string) (*backend.StoreResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	f.pdfNames = append(f.pdfNames, filename)
	return &backend.StoreResult{Filename: filename, TotalPages: 2}, nil
}

func (f *fakeUploader) textCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.textReqs)
}

// =============================================================================
// INGESTER TESTS
// =============================================================================

func TestIngester_UploadText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "meeting_notes-2025.md")
	os.WriteFile(path, []byte("# Notes\nContent here."), 0644)

	up := &fakeUploader{}
	ing := NewIngester(up, "docs")
	ing.DefaultAuthor = "Ops Team"

	res, err := ing.UploadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}
	if res.TotalChunks != 3 {
		t.Errorf("TotalChunks = %d", res.TotalChunks)
	}

	req := up.textReqs[0]
	if req.FolderName != "docs" {
		t.Errorf("FolderName = %q", req.FolderName)
	}
	if req.Filename != "meeting_notes-2025.md" {
		t.Errorf("Filename = %q", req.Filename)
	}
	if req.Title != "meeting notes 2025" {
		t.Errorf("Title = %q", req.Title)
	}
	if req.Author != "Ops Team" {
		t.Errorf("Author = %q", req.Author)
	}
	if req.Text != "# Notes\nContent here." {
		t.Errorf("Text = %q", req.Text)
	}
}

func TestIngester_UploadPDF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.pdf")
	os.WriteFile(path, []byte("%PDF-1.4 fake"), 0644)

	up := &fakeUploader{}
	ing := NewIngester(up, "docs")

	res, err := ing.UploadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}
	if res.TotalPages != 2 {
		t.Errorf("TotalPages = %d", res.TotalPages)
	}
	if len(up.pdfNames) != 1 || up.pdfNames[0] != "report.pdf" {
		t.Errorf("pdfNames = %v", up.pdfNames)
	}
}

func TestIngester_UnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "binary.exe")
	os.WriteFile(path, []byte{0x00}, 0644)

	ing := NewIngester(&fakeUploader{}, "docs")
	_, err := ing.UploadFile(context.Background(), path)
	if !errors.Is(err, ErrUnsupportedFile) {
		t.Errorf("err = %v, want ErrUnsupportedFile", err)
	}
}

func TestSupported(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"notes.txt", true},
		{"readme.MD", true},
		{"paper.pdf", true},
		{"archive.zip", false},
		{"no_extension", false},
	}
	for _, tc := range tests {
		if got := Supported(tc.path); got != tc.want {
			t.Errorf("Supported(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

// =============================================================================
// WATCHER TESTS
// =============================================================================

func TestFsnotifyWatcher_UploadsNewFile(t *testing.T) {
	dir := t.TempDir()
	up := &fakeUploader{}
	ing := NewIngester(up, "docs")

	var mu sync.Mutex
	var results []string
	fw, err := NewFsnotifyWatcher(ing, dir, 50*time.Millisecond, func(path string, res *backend.StoreResult, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err == nil {
			results = append(results, filepath.Base(path))
		}
	})
	if err != nil {
		t.Fatalf("NewFsnotifyWatcher failed: %v", err)
	}
	defer fw.Close()

	if err := fw.Watch(); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	os.WriteFile(filepath.Join(dir, "dropped.txt"), []byte("fresh document"), 0644)
	os.WriteFile(filepath.Join(dir, "ignored.tmp"), []byte("scratch"), 0644)

	deadline := time.Now().Add(3 * time.Second)
	for {
		mu.Lock()
		n := len(results)
		mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("upload never happened")
		}
		time.Sleep(20 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(results) != 1 || results[0] != "dropped.txt" {
		t.Errorf("results = %v", results)
	}
}

func TestPollingWatcher_SkipsBaseline(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "existing.txt"), []byte("already there"), 0644)

	up := &fakeUploader{}
	ing := NewIngester(up, "docs")

	pw := NewPollingWatcher(ing, dir, 30*time.Millisecond, nil)
	if err := pw.Watch(); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer pw.Close()

	// Existing files form the baseline and are not uploaded.
	time.Sleep(120 * time.Millisecond)
	if up.textCount() != 0 {
		t.Fatalf("baseline file was uploaded")
	}

	os.WriteFile(filepath.Join(dir, "new.txt"), []byte("new document"), 0644)

	deadline := time.Now().Add(3 * time.Second)
	for up.textCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("new file never uploaded")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestStartWatcher_DeliversUploadsWithDefaultAuthor(t *testing.T) {
	dir := t.TempDir()
	up := &fakeUploader{}
	ing := NewIngester(up, "docs")
	ing.DefaultAuthor = "Watch Folder"

	var mu sync.Mutex
	var results []string
	w, err := StartWatcher(ing, dir, 50*time.Millisecond, func(path string, res *backend.StoreResult, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err == nil {
			results = append(results, filepath.Base(path))
		}
	})
	if err != nil {
		t.Fatalf("StartWatcher failed: %v", err)
	}
	defer w.Close()

	os.WriteFile(filepath.Join(dir, "dropped.txt"), []byte("fresh document"), 0644)

	deadline := time.Now().Add(3 * time.Second)
	for up.textCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("upload never happened")
		}
		time.Sleep(20 * time.Millisecond)
	}

	up.mu.Lock()
	author := up.textReqs[0].Author
	up.mu.Unlock()
	if author != "Watch Folder" {
		t.Errorf("Author = %q, want the ingester's default author", author)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(results) != 1 || results[0] != "dropped.txt" {
		t.Errorf("results = %v", results)
	}
}
