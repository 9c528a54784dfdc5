// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for threads and messages.
//
// A Thread is one persisted conversation: an ordered, append-only sequence
// of Messages plus a title and timestamps. A Message is a single turn,
// authored by the user or the assistant; the system role exists only at the
// transport boundary and is never stored.
//
// Types here carry no behavior beyond construction, ordering, and
// serialization. Persistence lives in internal/storage, domain rules in
// internal/thread.
package model
