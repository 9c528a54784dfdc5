// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package thread manages the named conversation collection.
//
// A Repository holds the in-memory collection, keeps it ordered most
// recent first, derives titles from first messages, and persists every
// mutation through the storage document. Persistence failures never
// interrupt a session: the in-memory state stays authoritative and the
// failure is logged.
package thread
