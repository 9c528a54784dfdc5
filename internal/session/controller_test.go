// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jeranaias/loom-tui/internal/gateway"
	"github.com/jeranaias/loom-tui/internal/model"
	"github.com/jeranaias/loom-tui/internal/storage"
	"github.com/jeranaias/loom-tui/internal/thread"
)

// fakeCompleter records calls and returns a scripted outcome.
type fakeCompleter struct {
	calls   int
	history []gateway.ChatMessage
	output  string
	err     error
}

func (f *fakeCompleter) Complete(_ context.Context, history []gateway.ChatMessage, _ string) (*gateway.Completion, error) {
	f.calls++
	f.history = history
	if f.err != nil {
		return nil, f.err
	}
	return &gateway.Completion{
		Output:    f.output,
		Usage:     json.RawMessage(`{"total_tokens":5}`),
		TimeTaken: 0.4,
	}, nil
}

func (f *fakeCompleter) BuildRequest(history []gateway.ChatMessage, modelID string) ([]byte, error) {
	return gateway.NewClient("http://example.invalid", "").BuildRequest(history, modelID)
}

func newTestController(t *testing.T, fake *fakeCompleter) (*Controller, *thread.Repository) {
	t.Helper()
	store, err := storage.NewStoreWithPath(filepath.Join(t.TempDir(), storage.DocumentName))
	if err != nil {
		t.Fatalf("NewStoreWithPath: %v", err)
	}
	repo := thread.NewRepository(store)
	return NewController(repo, fake, "test-model"), repo
}

func TestBeginRejectsBlankMessage(t *testing.T) {
	ctrl, repo := newTestController(t, &fakeCompleter{output: "ok"})

	for _, content := range []string{"", "   ", "\n\t"} {
		if _, err := ctrl.Begin("", content); !errors.Is(err, ErrBlankMessage) {
			t.Errorf("Begin(%q) err = %v, want ErrBlankMessage", content, err)
		}
	}
	if repo.Count() != 0 {
		t.Errorf("blank send created a thread")
	}
}

func TestBeginCreatesThreadWhenNoneSelected(t *testing.T) {
	ctrl, repo := newTestController(t, &fakeCompleter{output: "ok"})

	th, err := ctrl.Begin("", "hello")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if repo.Count() != 1 {
		t.Fatalf("expected 1 thread, got %d", repo.Count())
	}
	if th.Title != "hello" {
		t.Errorf("Title = %q", th.Title)
	}
	if !ctrl.IsPending(th.ID) {
		t.Error("thread not marked pending after Begin")
	}
}

func TestBeginTagsUserMessageWithModel(t *testing.T) {
	ctrl, _ := newTestController(t, &fakeCompleter{output: "ok"})
	ctrl.SetModel("tagged-model")

	th, err := ctrl.Begin("", "hello")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if got := th.Messages[0].Model; got != "tagged-model" {
		t.Errorf("user message Model = %q, want %q", got, "tagged-model")
	}
}

func TestBeginRejectsSecondSendWhilePending(t *testing.T) {
	ctrl, _ := newTestController(t, &fakeCompleter{output: "ok"})

	th, err := ctrl.Begin("", "first")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	if _, err := ctrl.Begin(th.ID, "second"); !errors.Is(err, ErrRequestPending) {
		t.Errorf("err = %v, want ErrRequestPending", err)
	}

	got, _ := ctrl.repo.Get(th.ID)
	if got.MessageCount() != 1 {
		t.Errorf("rejected send changed the thread: %d messages", got.MessageCount())
	}
}

func TestDistinctThreadsSendIndependently(t *testing.T) {
	ctrl, _ := newTestController(t, &fakeCompleter{output: "ok"})

	a, err := ctrl.Begin("", "thread a")
	if err != nil {
		t.Fatalf("Begin a: %v", err)
	}
	b, err := ctrl.Begin("", "thread b")
	if err != nil {
		t.Fatalf("Begin b while a pending: %v", err)
	}
	if !ctrl.IsPending(a.ID) || !ctrl.IsPending(b.ID) {
		t.Error("both threads should be pending")
	}
}

func TestResolveSuccessAppendsAssistant(t *testing.T) {
	fake := &fakeCompleter{output: "the answer"}
	ctrl, repo := newTestController(t, fake)

	th, _ := ctrl.Begin("", "the question")
	updated := ctrl.Resolve(context.Background(), th.ID)
	if updated == nil {
		t.Fatal("Resolve returned nil")
	}

	if updated.MessageCount() != 2 {
		t.Fatalf("expected 2 messages, got %d", updated.MessageCount())
	}
	last := updated.LastMessage()
	if last.Role != model.RoleAssistant || last.Content != "the answer" {
		t.Errorf("last message = %+v", last)
	}
	if last.Model != "test-model" {
		t.Errorf("Model = %q", last.Model)
	}
	if last.TimeTaken != 0.4 {
		t.Errorf("TimeTaken = %v", last.TimeTaken)
	}
	if ctrl.IsPending(th.ID) {
		t.Error("pending not cleared after resolve")
	}
	if ctrl.Error(th.ID) != "" {
		t.Errorf("unexpected error recorded: %q", ctrl.Error(th.ID))
	}

	// History sent to the gateway is the stored thread, in order.
	if len(fake.history) != 1 || fake.history[0].Content != "the question" {
		t.Errorf("history = %+v", fake.history)
	}

	got, err := repo.Get(th.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.MessageCount() != 2 {
		t.Errorf("repository missed the assistant message: %d messages", got.MessageCount())
	}
}

func TestResolveEmptyOutputFallback(t *testing.T) {
	ctrl, _ := newTestController(t, &fakeCompleter{output: "   "})

	th, _ := ctrl.Begin("", "hi")
	updated := ctrl.Resolve(context.Background(), th.ID)
	if got := updated.LastMessage().Content; got != "No response received" {
		t.Errorf("Content = %q", got)
	}
}

func TestResolveFailureKeepsThreadIntact(t *testing.T) {
	fake := &fakeCompleter{err: &gateway.TransportError{Status: 503, Body: "overloaded"}}
	ctrl, _ := newTestController(t, fake)

	th, _ := ctrl.Begin("", "hi")
	updated := ctrl.Resolve(context.Background(), th.ID)
	if updated == nil {
		t.Fatal("Resolve returned nil")
	}

	if updated.MessageCount() != 1 {
		t.Errorf("failure changed the thread: %d messages", updated.MessageCount())
	}
	if ctrl.IsPending(th.ID) {
		t.Error("pending not cleared after failure")
	}
	if ctrl.Error(th.ID) == "" {
		t.Error("no error recorded for failed send")
	}
}

func TestNextSendClearsRecordedError(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("boom")}
	ctrl, _ := newTestController(t, fake)

	th, _ := ctrl.Begin("", "hi")
	ctrl.Resolve(context.Background(), th.ID)
	if ctrl.Error(th.ID) == "" {
		t.Fatal("expected recorded error")
	}

	fake.err = nil
	fake.output = "recovered"
	if _, err := ctrl.Begin(th.ID, "again"); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if ctrl.Error(th.ID) != "" {
		t.Error("starting a new send should clear the previous error")
	}
}

func TestResolveDeletedThreadDropsSilently(t *testing.T) {
	fake := &fakeCompleter{output: "late reply"}
	ctrl, repo := newTestController(t, fake)

	th, _ := ctrl.Begin("", "hi")
	repo.Delete(th.ID)

	if updated := ctrl.Resolve(context.Background(), th.ID); updated != nil {
		t.Errorf("Resolve on deleted thread returned %v", updated)
	}
	if ctrl.IsPending(th.ID) {
		t.Error("pending not cleared for deleted thread")
	}
	if repo.Count() != 0 {
		t.Error("resolving a deleted thread resurrected it")
	}
}

func TestPendingRequestDiagnostics(t *testing.T) {
	ctrl, _ := newTestController(t, &fakeCompleter{output: "ok"})

	th, _ := ctrl.Begin("", "inspect me")
	req, ok := ctrl.Pending(th.ID)
	if !ok {
		t.Fatal("no pending request recorded")
	}
	if req.Model != "test-model" {
		t.Errorf("Model = %q", req.Model)
	}
	if req.ContextSize != 1 {
		t.Errorf("ContextSize = %d", req.ContextSize)
	}

	var payload map[string]any
	if err := json.Unmarshal(req.Payload, &payload); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if payload["organisation_id"] != float64(gateway.OrganisationID) {
		t.Errorf("payload organisation_id = %v", payload["organisation_id"])
	}
}
