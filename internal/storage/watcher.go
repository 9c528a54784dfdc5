// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// DOCUMENT WATCHER
// =============================================================================

// Watcher notifies a callback when the thread document changes on disk,
// so a running client picks up edits made by another process. Atomic
// renames produce a burst of events for one logical write, so changes are
// debounced before the callback fires.
type Watcher struct {
	store    *Store
	onChange func()
	debounce time.Duration
	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	pending  bool
	lastSeen time.Time
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewWatcher creates a watcher over the store's document. The callback
// runs on the watcher's goroutine; it must not block.
func NewWatcher(store *Store, debounce time.Duration, onChange func()) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, &StorageError{Op: "watch", Err: err}
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Watcher{
		store:    store,
		onChange: onChange,
		debounce: debounce,
		watcher:  fw,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Watch starts watching for document changes.
func (w *Watcher) Watch() error {
	// Watch the directory, not the file: atomic writes replace the file
	// by rename, which drops a watch placed on the file itself.
	if err := w.watcher.Add(filepath.Dir(w.store.Path)); err != nil {
		return &StorageError{Op: "watch", Err: err}
	}

	go w.processEvents()
	go w.processPending()

	return nil
}

// processEvents marks the document dirty on relevant filesystem events
func (w *Watcher) processEvents() {
	defer func() {
		if r := recover(); r != nil {
			_ = r
		}
	}()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if event.Name != w.store.Path {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.mu.Lock()
				w.pending = true
				w.lastSeen = time.Now()
				w.mu.Unlock()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Non-fatal, keep watching
			_ = err
		}
	}
}

// processPending fires the callback once a change has settled
func (w *Watcher) processPending() {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case <-ticker.C:
			w.mu.Lock()
			fire := w.pending && time.Since(w.lastSeen) >= w.debounce
			if fire {
				w.pending = false
			}
			w.mu.Unlock()

			if fire && w.onChange != nil {
				w.onChange()
			}
		}
	}
}

// Close stops watching and releases resources.
func (w *Watcher) Close() error {
	w.cancel()
	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}
