// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingest

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jeranaias/folio-tui/internal/backend"
)

// =============================================================================
// FILE WATCHER INTERFACE
// =============================================================================

// ResultFunc observes the outcome of each automatic upload.
type ResultFunc func(path string, res *backend.StoreResult, err error)

// FileWatcher is the interface for watch-folder implementations
type FileWatcher interface {
	// Watch starts watching for new documents
	Watch() error

	// Close stops watching and releases resources
	Close() error
}

// =============================================================================
// FSNOTIFY WATCHER
// =============================================================================

// FsnotifyWatcher implements FileWatcher using fsnotify
type FsnotifyWatcher struct {
	ing      *Ingester
	dir      string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onResult ResultFunc

	mu      sync.Mutex
	pending map[string]time.Time // File path -> last change time

	ctx    context.Context
	cancel context.CancelFunc
}

// NewFsnotifyWatcher creates a new fsnotify-based watcher
func NewFsnotifyWatcher(ing *Ingester, dir string, debounce time.Duration, onResult ResultFunc) (*FsnotifyWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &FsnotifyWatcher{
		ing:      ing,
		dir:      dir,
		watcher:  watcher,
		debounce: debounce,
		onResult: onResult,
		pending:  make(map[string]time.Time),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Watch starts watching for new documents
func (fw *FsnotifyWatcher) Watch() error {
	if err := fw.watcher.Add(fw.dir); err != nil {
		return err
	}

	go fw.processEvents()
	go fw.processPending()

	return nil
}

// processEvents processes file system events
func (fw *FsnotifyWatcher) processEvents() {
	defer func() {
		// A panic here must not take down the whole program
		if r := recover(); r != nil {
			_ = r
		}
	}()

	for {
		select {
		case <-fw.ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			// Uploads trigger on Write and Create; a file being copied in
			// fires both, which the debounce collapses into one upload.
			if event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create {
				fw.handleFileChange(event.Name)
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			// Non-fatal
			_ = err
		}
	}
}

// handleFileChange records a candidate upload with debounce
func (fw *FsnotifyWatcher) handleFileChange(path string) {
	if !Supported(path) {
		return
	}
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return
	}

	fw.mu.Lock()
	fw.pending[path] = time.Now()
	fw.mu.Unlock()
}

// processPending uploads files once they have been quiet for the debounce
// interval.
func (fw *FsnotifyWatcher) processPending() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-fw.ctx.Done():
			return

		case <-ticker.C:
			now := time.Now()

			fw.mu.Lock()
			var toUpload []string
			for path, changeTime := range fw.pending {
				if now.Sub(changeTime) >= fw.debounce {
					toUpload = append(toUpload, path)
					delete(fw.pending, path)
				}
			}
			fw.mu.Unlock()

			for _, path := range toUpload {
				res, err := fw.ing.UploadFile(fw.ctx, path)
				if fw.onResult != nil {
					fw.onResult(path, res, err)
				}
			}
		}
	}
}

// Close stops watching and releases resources
func (fw *FsnotifyWatcher) Close() error {
	fw.cancel()
	if fw.watcher != nil {
		return fw.watcher.Close()
	}
	return nil
}

// =============================================================================
// POLLING WATCHER (FALLBACK)
// =============================================================================

// PollingWatcher implements FileWatcher using periodic directory scans
type PollingWatcher struct {
	ing      *Ingester
	dir      string
	interval time.Duration
	onResult ResultFunc

	mu    sync.Mutex
	files map[string]time.Time // File path -> mod time

	ctx    context.Context
	cancel context.CancelFunc
}

// NewPollingWatcher creates a new polling-based watcher
func NewPollingWatcher(ing *Ingester, dir string, interval time.Duration, onResult ResultFunc) *PollingWatcher {
	ctx, cancel := context.WithCancel(context.Background())

	return &PollingWatcher{
		ing:      ing,
		dir:      dir,
		interval: interval,
		onResult: onResult,
		files:    make(map[string]time.Time),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Watch starts watching for new documents
func (pw *PollingWatcher) Watch() error {
	// Initial scan establishes the baseline; existing files are not
	// re-uploaded.
	baseline, err := pw.scan()
	if err != nil {
		return err
	}
	pw.mu.Lock()
	pw.files = baseline
	pw.mu.Unlock()

	go pw.poll()

	return nil
}

// scan records supported files and their modification times
func (pw *PollingWatcher) scan() (map[string]time.Time, error) {
	entries, err := os.ReadDir(pw.dir)
	if err != nil {
		return nil, err
	}

	files := make(map[string]time.Time)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(pw.dir, entry.Name())
		if !Supported(path) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files[path] = info.ModTime()
	}

	return files, nil
}

// poll periodically checks for new or changed documents
func (pw *PollingWatcher) poll() {
	ticker := time.NewTicker(pw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-pw.ctx.Done():
			return

		case <-ticker.C:
			pw.checkChanges()
		}
	}
}

// checkChanges uploads files that are new or changed since the last scan
func (pw *PollingWatcher) checkChanges() {
	current, err := pw.scan()
	if err != nil {
		return
	}

	pw.mu.Lock()
	previous := pw.files
	pw.files = current
	pw.mu.Unlock()

	for path, modTime := range current {
		if oldTime, exists := previous[path]; !exists || !oldTime.Equal(modTime) {
			res, err := pw.ing.UploadFile(pw.ctx, path)
			if pw.onResult != nil {
				pw.onResult(path, res, err)
			}
		}
	}
}

// Close stops watching
func (pw *PollingWatcher) Close() error {
	pw.cancel()
	return nil
}

// =============================================================================
// WATCHER FACTORY
// =============================================================================

// StartWatcher starts a watcher over dir (fsnotify or polling fallback).
func StartWatcher(ing *Ingester, dir string, debounce time.Duration, onResult ResultFunc) (FileWatcher, error) {
	fw, err := NewFsnotifyWatcher(ing, dir, debounce, onResult)
	if err == nil {
		if err := fw.Watch(); err == nil {
			return fw, nil
		}
		fw.Close()
	}

	// Fallback to polling watcher
	pw := NewPollingWatcher(ing, dir, 5*time.Second, onResult)
	if err := pw.Watch(); err != nil {
		return nil, err
	}
	return pw, nil
}
