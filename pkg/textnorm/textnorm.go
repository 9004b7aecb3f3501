// Copyright (c) 2026 PetHaul. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package textnorm cleans free-text form input before it is relayed upstream.
//
// # Usage
//
// Profile fields (names, addresses, delivery notes) arrive from browsers and
// IMEs in mixed Unicode forms. Composing them to NFC keeps length checks and
// backend comparisons consistent: "é" typed as e + combining acute and "é"
// typed precomposed become the same string.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Clean normalizes a single-line field.
//
// # Transformation Pipeline
//
// 1. Removes format characters (zero-width joiners, BOM).
// 2. Composes to NFC.
// 3. Turns control characters (CR, LF, TAB) into spaces.
// 4. Collapses runs of whitespace into one space and trims the ends.
func Clean(s string) string {
	if s == "" {
		return s
	}

	// 1. Strip invisible format runes and compose
	t := transform.Chain(transform.RemoveFunc(isFormat), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		result = norm.NFC.String(s)
	}

	// 2. Controls become separators
	result = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, result)

	// 3. Whitespace cleanup
	return strings.Join(strings.Fields(result), " ")
}

// isFormat reports whether r is a Unicode format character (category Cf).
func isFormat(r rune) bool {
	return unicode.Is(unicode.Cf, r)
}

// Fields applies [Clean] to every pointed-to string in place.
func Fields(fields ...*string) {
	for _, field := range fields {
		if field != nil {
			*field = Clean(*field)
		}
	}
}
