// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/jeranaias/loom-tui/internal/model"
	"github.com/jeranaias/loom-tui/internal/util"
)

// DocumentName is the fixed file name of the thread document.
const DocumentName = "threads.json"

// =============================================================================
// STORE
// =============================================================================

// Store reads and writes the thread document. It holds no state beyond the
// document path and performs no interpretation of the collection.
type Store struct {
	// Path is the full path of the JSON document.
	Path string
}

// NewStore creates a store under the user's loom data directory.
func NewStore() (*Store, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, &StorageError{Op: "init", Err: err}
	}

	dir := filepath.Join(homeDir, ".loom")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &StorageError{Op: "init", Err: err}
	}

	return &Store{Path: filepath.Join(dir, DocumentName)}, nil
}

// NewStoreWithPath creates a store over an explicit document path.
func NewStoreWithPath(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, &StorageError{Op: "init", Err: err}
	}
	return &Store{Path: path}, nil
}

// =============================================================================
// READ / WRITE
// =============================================================================

// Read loads the thread collection from disk. Any failure - missing file,
// unreadable file, malformed JSON - yields the empty collection and a nil
// error: a client with no data is the correct recovery in every case. The
// underlying cause is returned as the second value for callers that log it.
func (s *Store) Read() ([]*model.Thread, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return []*model.Thread{}, nil
		}
		return []*model.Thread{}, &StorageError{Op: "read", Err: err}
	}

	var threads []*model.Thread
	if err := json.Unmarshal(data, &threads); err != nil {
		return []*model.Thread{}, &StorageError{Op: "decode", Err: err}
	}
	if threads == nil {
		threads = []*model.Thread{}
	}
	return threads, nil
}

// Write replaces the document with the given collection. The write is
// atomic: on crash the previous document survives intact. File mode 0600
// keeps conversation content private to the owner.
func (s *Store) Write(threads []*model.Thread) error {
	if threads == nil {
		threads = []*model.Thread{}
	}

	data, err := json.MarshalIndent(threads, "", "  ")
	if err != nil {
		return &StorageError{Op: "encode", Err: err}
	}

	if err := util.AtomicWriteFile(s.Path, data, 0600); err != nil {
		return &StorageError{Op: "write", Err: err}
	}
	return nil
}

// =============================================================================
// ERRORS
// =============================================================================

// StorageError wraps a failed document operation. It is recovered locally
// everywhere: reads degrade to the empty collection, writes are logged and
// ignored. It never reaches the user.
type StorageError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return "storage " + e.Op + ": " + e.Err.Error()
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *StorageError) Unwrap() error {
	return e.Err
}
