// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the main TUI for loom.
//
// The Model is a Bubble Tea program with one primary chat view and a set
// of modal overlays: the thread switcher, search, the model picker,
// delete confirmation, request diagnostics, and help. Sends resolve
// asynchronously through the session controller, so switching threads
// while a request is in flight keeps the rest of the interface live.
package chat
