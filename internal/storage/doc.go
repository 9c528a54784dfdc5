// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists the thread collection for the loom TUI.
//
// The whole collection lives in a single JSON document at a fixed path
// (~/.loom/threads.json by default). The Store does nothing beyond reading
// and writing that document; every write replaces the file atomically. All
// domain rules live in internal/thread.
//
// A read failure of any kind degrades to the empty collection so the client
// always starts; a write failure is reported as a *StorageError for the
// caller to log and swallow.
//
// Watcher mirrors the browser original's cross-tab storage events: it
// observes the document path with fsnotify and invokes a callback when
// another process rewrites it.
package storage
