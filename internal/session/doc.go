// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session drives the send lifecycle for chat threads.
//
// The Controller sits between the thread repository and the completion
// gateway. Each thread is either idle or has exactly one request in
// flight; a second send on a pending thread is refused, and sends on
// other threads proceed independently. Pending state and per-thread
// errors are runtime-only and vanish on restart.
package session
