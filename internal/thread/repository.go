// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package thread

import (
	"errors"
	"log"
	"sort"
	"sync"

	"github.com/jeranaias/loom-tui/internal/model"
	"github.com/jeranaias/loom-tui/internal/storage"
)

// ErrThreadNotFound indicates the requested thread is not in the collection.
var ErrThreadNotFound = errors.New("thread not found")

// =============================================================================
// REPOSITORY
// =============================================================================

// Repository owns the thread collection. All mutations go through it:
// each one updates the in-memory collection first, then persists the whole
// document. A failed persist is logged and otherwise ignored, so the
// session continues on the in-memory state.
type Repository struct {
	store   *storage.Store
	mu      sync.Mutex
	threads []*model.Thread
}

// NewRepository creates a repository backed by the given store and loads
// the existing collection. A document that cannot be read yields an empty
// collection.
func NewRepository(store *storage.Store) *Repository {
	r := &Repository{store: store}
	r.Reload()
	return r
}

// Reload replaces the in-memory collection with the document on disk.
// Called at startup and when the document changes under another process.
func (r *Repository) Reload() {
	threads, err := r.store.Read()
	if err != nil {
		log.Printf("STORAGE_READ_FAILED | error=%v starting_empty", err)
	}

	sort.SliceStable(threads, func(i, j int) bool {
		return threads[i].CreatedAt.After(threads[j].CreatedAt)
	})

	r.mu.Lock()
	r.threads = threads
	r.mu.Unlock()
}

// List returns the collection ordered most recently created first.
// The returned slice is a snapshot; its threads are shared.
func (r *Repository) List() []*model.Thread {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*model.Thread, len(r.threads))
	copy(out, r.threads)
	return out
}

// Count returns the number of threads in the collection.
func (r *Repository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.threads)
}

// Get returns the thread with the given ID, or ErrThreadNotFound.
func (r *Repository) Get(id string) (*model.Thread, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	th := r.find(id)
	if th == nil {
		return nil, ErrThreadNotFound
	}
	return th, nil
}

// Create adds a new empty thread at the head of the collection and
// returns it.
func (r *Repository) Create() *model.Thread {
	th := model.NewThread("")

	r.mu.Lock()
	r.threads = append([]*model.Thread{th}, r.threads...)
	r.persistLocked()
	r.mu.Unlock()

	return th
}

// Delete removes the thread with the given ID and returns the remaining
// collection. Deleting an unknown ID is a no-op: the caller sees the same
// collection either way.
func (r *Repository) Delete(id string) []*model.Thread {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, th := range r.threads {
		if th.ID == id {
			r.threads = append(r.threads[:i], r.threads[i+1:]...)
			r.persistLocked()
			break
		}
	}

	out := make([]*model.Thread, len(r.threads))
	copy(out, r.threads)
	return out
}

// Append adds a message to the thread with the given ID and persists the
// collection. The first user message of a thread still carrying the
// default title derives the title from its content. Returns a deep copy
// of the updated thread so callers cannot mutate repository state.
func (r *Repository) Append(id string, msg *model.Message) (*model.Thread, error) {
	if msg == nil || !msg.Role.Storable() {
		return nil, errors.New("message not storable")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	th := r.find(id)
	if th == nil {
		return nil, ErrThreadNotFound
	}

	firstMessage := len(th.Messages) == 0
	th.Append(msg)
	if msg.Role == model.RoleUser && firstMessage {
		th.Title = model.TitleFromContent(msg.Content)
	}

	r.persistLocked()
	return th.Clone(), nil
}

// Rename sets the title of the thread with the given ID.
func (r *Repository) Rename(id, title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	th := r.find(id)
	if th == nil {
		return ErrThreadNotFound
	}

	th.Title = title
	r.persistLocked()
	return nil
}

// Export renders the thread with the given ID in the requested format,
// "markdown" or "json".
func (r *Repository) Export(id, format string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	th := r.find(id)
	if th == nil {
		return "", ErrThreadNotFound
	}

	switch format {
	case "json":
		data, err := th.ExportJSON()
		return string(data), err
	default:
		return th.ExportMarkdown(), nil
	}
}

// find returns the thread with the given ID. Caller holds the lock.
func (r *Repository) find(id string) *model.Thread {
	for _, th := range r.threads {
		if th.ID == id {
			return th
		}
	}
	return nil
}

// persistLocked writes the collection to the document. Caller holds the
// lock. Failures are logged and swallowed.
func (r *Repository) persistLocked() {
	if err := r.store.Write(r.threads); err != nil {
		log.Printf("STORAGE_WRITE_FAILED | error=%v", err)
	}
}
