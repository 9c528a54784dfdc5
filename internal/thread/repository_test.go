// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package thread

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/loom-tui/internal/model"
	"github.com/jeranaias/loom-tui/internal/storage"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	store, err := storage.NewStoreWithPath(filepath.Join(t.TempDir(), storage.DocumentName))
	if err != nil {
		t.Fatalf("NewStoreWithPath: %v", err)
	}
	return NewRepository(store)
}

func TestCreatePrependsThread(t *testing.T) {
	repo := newTestRepository(t)

	first := repo.Create()
	second := repo.Create()

	list := repo.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 threads, got %d", len(list))
	}
	if list[0].ID != second.ID {
		t.Errorf("newest thread should be first, got %s", list[0].ID)
	}
	if list[1].ID != first.ID {
		t.Errorf("oldest thread should be last, got %s", list[1].ID)
	}
	if first.Title != model.DefaultTitle {
		t.Errorf("new thread title = %q, want %q", first.Title, model.DefaultTitle)
	}
}

func TestAppendDerivesTitleFromFirstUserMessage(t *testing.T) {
	repo := newTestRepository(t)
	th := repo.Create()

	updated, err := repo.Append(th.ID, model.NewUserMessage("How does the scheduler work?", ""))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if updated.Title != "How does the scheduler work?" {
		t.Errorf("Title = %q", updated.Title)
	}

	// A second user message must not retitle the thread.
	updated, err = repo.Append(th.ID, model.NewUserMessage("And the allocator?", ""))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if updated.Title != "How does the scheduler work?" {
		t.Errorf("title changed on second message: %q", updated.Title)
	}
}

func TestAppendClipsLongTitle(t *testing.T) {
	repo := newTestRepository(t)
	th := repo.Create()

	content := strings.Repeat("x", 60)
	updated, err := repo.Append(th.ID, model.NewUserMessage(content, ""))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	want := strings.Repeat("x", 50) + "..."
	if updated.Title != want {
		t.Errorf("Title = %q, want %q", updated.Title, want)
	}
}

func TestAppendAssistantDoesNotTitle(t *testing.T) {
	repo := newTestRepository(t)
	th := repo.Create()

	updated, err := repo.Append(th.ID, model.NewAssistantMessage("hello", "m", nil, 0))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if updated.Title != model.DefaultTitle {
		t.Errorf("assistant message derived a title: %q", updated.Title)
	}
}

func TestAppendAfterRenameToPlaceholderDoesNotRetitle(t *testing.T) {
	repo := newTestRepository(t)
	th := repo.Create()

	if _, err := repo.Append(th.ID, model.NewUserMessage("first question", "")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	// Only the first message ever titles a thread, even when the user
	// renames it back to the placeholder.
	if err := repo.Rename(th.ID, model.DefaultTitle); err != nil {
		t.Fatalf("Rename: %v", err)
	}

	updated, err := repo.Append(th.ID, model.NewUserMessage("second question", ""))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if updated.Title != model.DefaultTitle {
		t.Errorf("Title = %q, want placeholder kept", updated.Title)
	}
}

func TestAppendUnknownThread(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.Append("thr_missing", model.NewUserMessage("hi", ""))
	if !errors.Is(err, ErrThreadNotFound) {
		t.Errorf("err = %v, want ErrThreadNotFound", err)
	}
}

func TestAppendReturnsClone(t *testing.T) {
	repo := newTestRepository(t)
	th := repo.Create()

	clone, err := repo.Append(th.ID, model.NewUserMessage("hi", ""))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	clone.Title = "mutated"
	clone.Messages[0].Content = "mutated"

	got, err := repo.Get(th.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title == "mutated" || got.Messages[0].Content == "mutated" {
		t.Error("mutating the returned thread leaked into the repository")
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	repo := newTestRepository(t)
	th := repo.Create()

	remaining := repo.Delete(th.ID)
	if len(remaining) != 0 {
		t.Fatalf("expected empty collection, got %d", len(remaining))
	}

	remaining = repo.Delete(th.ID)
	if len(remaining) != 0 {
		t.Errorf("second delete changed the collection: %d threads", len(remaining))
	}

	remaining = repo.Delete("thr_never_existed")
	if len(remaining) != 0 {
		t.Errorf("deleting unknown ID changed the collection: %d threads", len(remaining))
	}
}

func TestPersistenceAcrossRepositories(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewStoreWithPath(filepath.Join(dir, storage.DocumentName))
	if err != nil {
		t.Fatalf("NewStoreWithPath: %v", err)
	}

	repo := NewRepository(store)
	th := repo.Create()
	if _, err := repo.Append(th.ID, model.NewUserMessage("persist me", "")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	reopened := NewRepository(store)
	got, err := reopened.Get(th.ID)
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got.Title != "persist me" {
		t.Errorf("Title = %q", got.Title)
	}
	if got.MessageCount() != 1 {
		t.Errorf("MessageCount = %d, want 1", got.MessageCount())
	}
}

func TestReloadKeepsCreationOrder(t *testing.T) {
	store, err := storage.NewStoreWithPath(filepath.Join(t.TempDir(), storage.DocumentName))
	if err != nil {
		t.Fatalf("NewStoreWithPath: %v", err)
	}

	older := model.NewThread("older")
	older.CreatedAt = older.CreatedAt.Add(-time.Hour)
	newer := model.NewThread("newer")
	if err := store.Write([]*model.Thread{newer, older}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	repo := NewRepository(store)
	// Activity on the older thread must not promote it past newer ones.
	if _, err := repo.Append(older.ID, model.NewUserMessage("later activity", "")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	reopened := NewRepository(store)
	got := reopened.List()
	if len(got) != 2 {
		t.Fatalf("expected 2 threads, got %d", len(got))
	}
	if got[0].ID != newer.ID {
		t.Errorf("List()[0].ID = %q, want newest-created thread %q", got[0].ID, newer.ID)
	}
}

func TestRename(t *testing.T) {
	repo := newTestRepository(t)
	th := repo.Create()

	if err := repo.Rename(th.ID, "Design notes"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	got, _ := repo.Get(th.ID)
	if got.Title != "Design notes" {
		t.Errorf("Title = %q", got.Title)
	}

	if err := repo.Rename("thr_missing", "x"); !errors.Is(err, ErrThreadNotFound) {
		t.Errorf("err = %v, want ErrThreadNotFound", err)
	}
}

func TestExport(t *testing.T) {
	repo := newTestRepository(t)
	th := repo.Create()
	repo.Append(th.ID, model.NewUserMessage("hello", ""))

	md, err := repo.Export(th.ID, "markdown")
	if err != nil {
		t.Fatalf("Export markdown: %v", err)
	}
	if !strings.Contains(md, "hello") {
		t.Errorf("markdown export missing content: %q", md)
	}

	js, err := repo.Export(th.ID, "json")
	if err != nil {
		t.Fatalf("Export json: %v", err)
	}
	if !strings.Contains(js, `"hello"`) {
		t.Errorf("json export missing content: %q", js)
	}
}
