// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gateway implements the client for the completion endpoint.
//
// A completion request carries the full thread history plus a fixed
// system preamble, and returns the assistant output with usage data and
// server-side timing. Each request is sent exactly once: there is no
// retry, queueing, or backoff at this layer. Failures are reported as
// *TransportError (server replied non-2xx) or *NetworkError (no reply),
// which the session layer surfaces per thread.
package gateway
