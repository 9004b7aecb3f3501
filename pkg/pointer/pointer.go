// Copyright (c) 2026 PetHaul. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package pointer provides generic helpers for optional values.

Backend payloads use pointers to tell "absent" apart from the zero value
(an omitted isAuthenticated is not the same answer as false).

Key Functions:
  - To: Creates a pointer from a value literal.
  - First: Dereferences the first non-nil pointer of a list.
*/
package pointer

// To returns a pointer to the provided value.
func To[T any](v T) *T {
	return &v
}

// First returns the value behind the first non-nil pointer.
// When every pointer is nil it returns the zero value of T.
func First[T any](candidates ...*T) T {
	for _, candidate := range candidates {
		if candidate != nil {
			return *candidate
		}
	}
	var zero T
	return zero
}
