// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small shared helpers for the loom TUI.
//
// It covers two concerns the rest of the codebase relies on:
//
//   - Atomic file writes (AtomicWriteFile): temp file + fsync + rename, so
//     the thread document on disk is never left half-written.
//   - Rune-aware string handling (ClipRunes, TruncateRunes, SafeSubstring):
//     all user-visible truncation operates on runes, never bytes, so UTF-8
//     content cannot be split mid-character.
package util
