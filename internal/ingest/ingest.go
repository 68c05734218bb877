// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/folio-tui/internal/backend"
)

// =============================================================================
// UPLOADER INTERFACE
// =============================================================================

// Uploader is the slice of the backend client ingestion needs.
type Uploader interface {
	StoreText(ctx context.Context, req backend.StoreTextRequest) (*backend.StoreResult, error)
	OCRPDF(ctx context.Context, pdf []byte, filename, folderName, title, author string) (*backend.StoreResult, error)
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrUnsupportedFile means the file's extension has no ingestion route.
var ErrUnsupportedFile = errors.New("unsupported file type")

// =============================================================================
// INGESTER
// =============================================================================

// Ingester uploads local files into one backend folder.
type Ingester struct {
	client     Uploader
	folderName string

	// DefaultAuthor is attached to uploads when set.
	DefaultAuthor string
}

// NewIngester creates an ingester targeting the given backend folder.
func NewIngester(client Uploader, folderName string) *Ingester {
	return &Ingester{
		client:     client,
		folderName: folderName,
	}
}

// FolderName returns the backend folder uploads land in.
func (ing *Ingester) FolderName() string {
	return ing.folderName
}

// Supported reports whether a file has an ingestion route.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".pdf":
		return true
	}
	return false
}

// UploadFile reads a local file and sends it to the backend. Text and
// Markdown go to the text endpoint; PDFs go through OCR.
func (ing *Ingester) UploadFile(ctx context.Context, path string) (*backend.StoreResult, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".txt", ".md":
		return ing.uploadText(ctx, path)
	case ".pdf":
		return ing.uploadPDF(ctx, path)
	default:
		return nil, ErrUnsupportedFile
	}
}

func (ing *Ingester) uploadText(ctx context.Context, path string) (*backend.StoreResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	filename := filepath.Base(path)
	return ing.client.StoreText(ctx, backend.StoreTextRequest{
		Text:       string(data),
		Filename:   filename,
		FolderName: ing.folderName,
		Title:      titleFromFilename(filename),
		Author:     ing.DefaultAuthor,
	})
}

func (ing *Ingester) uploadPDF(ctx context.Context, path string) (*backend.StoreResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	filename := filepath.Base(path)
	return ing.client.OCRPDF(ctx, data, filename, ing.folderName, titleFromFilename(filename), ing.DefaultAuthor)
}

// titleFromFilename derives a readable title from a file name.
func titleFromFilename(filename string) string {
	title := strings.TrimSuffix(filename, filepath.Ext(filename))
	title = strings.ReplaceAll(title, "_", " ")
	title = strings.ReplaceAll(title, "-", " ")
	return strings.TrimSpace(title)
}
