// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package search implements substring search over the thread collection.
//
// The scan is linear over every message of every thread, case
// insensitive, with rune-safe preview windows around the first match in
// each message.
package search

import (
	"strings"
	"unicode"

	"github.com/jeranaias/loom-tui/internal/model"
	"github.com/jeranaias/loom-tui/internal/util"
)

// Preview window sizes, in runes, around the matched substring.
const (
	PreviewBefore = 30
	PreviewAfter  = 50
)

// Result is one matching message.
type Result struct {
	ThreadID    string
	ThreadTitle string
	MessageID   string
	Role        model.Role
	Content     string
	Preview     string
}

// Run scans the collection for the query. A blank (empty or whitespace)
// query means no active search and returns nil, which callers must keep
// distinct from a search that matched nothing. Threads are visited in
// collection order, messages in thread order; each matching message
// yields one result built around its first match.
func Run(threads []*model.Thread, query string) []Result {
	if strings.TrimSpace(query) == "" {
		return nil
	}

	needle := foldRunes(query)
	results := []Result{}

	for _, th := range threads {
		for _, msg := range th.Messages {
			idx := indexFold([]rune(msg.Content), needle)
			if idx < 0 {
				continue
			}
			results = append(results, Result{
				ThreadID:    th.ID,
				ThreadTitle: th.Title,
				MessageID:   msg.ID,
				Role:        msg.Role,
				Content:     msg.Content,
				Preview:     preview(msg.Content, idx, idx+len(needle)),
			})
		}
	}
	return results
}

// foldRunes lowercases rune by rune. The simple case mapping keeps the
// rune count stable, so rune indices computed against the folded text
// are valid in the original; full case folding does not (U+0130 expands
// to two runes, U+023A narrows from three bytes to two).
func foldRunes(s string) []rune {
	runes := []rune(s)
	for i, r := range runes {
		runes[i] = unicode.ToLower(r)
	}
	return runes
}

// indexFold returns the rune index of the first case-insensitive
// occurrence of the already-folded needle in haystack, or -1.
func indexFold(haystack, needle []rune) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j, nr := range needle {
			if unicode.ToLower(haystack[i+j]) != nr {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// preview builds the context window around a match, given the match
// bounds in rune indices. The window spans a fixed number of runes
// before and after the match, with ellipsis markers on the sides that
// were cut.
func preview(content string, matchStart, matchEnd int) string {
	total := util.RuneLen(content)

	windowStart := matchStart - PreviewBefore
	if windowStart < 0 {
		windowStart = 0
	}
	windowEnd := matchEnd + PreviewAfter
	if windowEnd > total {
		windowEnd = total
	}

	var b strings.Builder
	if windowStart > 0 {
		b.WriteString(util.Ellipsis)
	}
	b.WriteString(util.SafeSubstring(content, windowStart, windowEnd))
	if windowEnd < total {
		b.WriteString(util.Ellipsis)
	}
	return b.String()
}
