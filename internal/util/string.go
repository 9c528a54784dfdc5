// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

// Ellipsis is the marker appended to clipped text throughout the UI and the
// thread titles. Kept ASCII so it renders identically in every terminal.
const Ellipsis = "..."

// ClipRunes returns the first max runes of s and whether anything was
// dropped. Unlike TruncateRunes it does not append a marker; callers decide
// how a clipped string is presented.
func ClipRunes(s string, max int) (string, bool) {
	if max <= 0 {
		return "", s != ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s, false
	}
	return string(runes[:max]), true
}

// TruncateRunes truncates s to at most maxRunes runes, appending Ellipsis
// when the string was shortened. Safe for any UTF-8 input.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	if maxRunes <= len(Ellipsis) {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-len(Ellipsis)]) + Ellipsis
}

// SafeSubstring returns s[start:end] in rune indices, clamping both bounds
// to the string. It never splits a multi-byte character.
func SafeSubstring(s string, start, end int) string {
	runes := []rune(s)
	if start < 0 {
		start = 0
	}
	if start > len(runes) {
		return ""
	}
	if end < 0 || end > len(runes) {
		end = len(runes)
	}
	if start >= end {
		return ""
	}
	return string(runes[start:end])
}

// RuneLen returns the number of runes in s.
func RuneLen(s string) int {
	return len([]rune(s))
}
