// Copyright (c) 2026 PetHaul. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/pethaul/internal/platform/apperr"
	"github.com/taibuivan/pethaul/internal/platform/validate"
)

/*
TestValidator_Required tests the mandatory field validation logic.
*/
func TestValidator_Required(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		hasError bool
	}{
		{"valid_string", "petlover", false},
		{"empty_string", "", true},
		{"whitespace_only", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.Required("userId", tt.value)

			if tt.hasError {
				err := v.Err()
				require.Error(t, err)

				ae := apperr.As(err)
				require.NotNil(t, ae)
				assert.Equal(t, "VALIDATION_ERROR", ae.Code)
				assert.Equal(t, "userId", ae.Details[0].Field)
			} else {
				assert.False(t, v.HasErrors())
				assert.Nil(t, v.Err())
			}
		})
	}
}

/*
TestValidator_Optional checks that format rules skip empty values.
*/
func TestValidator_Optional(t *testing.T) {
	tests := []struct {
		name    string
		apply   func(v *validate.Validator)
		isValid bool
	}{
		{"empty_email", func(v *validate.Validator) { v.Email("email", "") }, true},
		{"valid_email", func(v *validate.Validator) { v.Email("email", "dog@pethaul.kr") }, true},
		{"invalid_email", func(v *validate.Validator) { v.Email("email", "dog@") }, false},
		{"empty_phone", func(v *validate.Validator) { v.Phone("phone", "") }, true},
		{"valid_phone", func(v *validate.Validator) { v.Phone("phone", "010-1234-5678") }, true},
		{"compact_phone", func(v *validate.Validator) { v.Phone("phone", "01012345678") }, true},
		{"invalid_phone", func(v *validate.Validator) { v.Phone("phone", "call me") }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			tt.apply(v)
			assert.Equal(t, !tt.isValid, v.HasErrors())
		})
	}
}

/*
TestIsLocalPath guards the post-login redirect against open redirects.
*/
func TestIsLocalPath(t *testing.T) {
	tests := []struct {
		value string
		local bool
	}{
		{"/mypage", true},
		{"/admin/orders?page=2", true},
		{"//evil.example", false},
		{"/\\evil.example", false},
		{"https://evil.example", false},
		{"mypage", false},
		{"/a\r\nSet-Cookie: x", false},
		{"/\t/evil.example", false},
		{"/\n/evil.example", false},
		{"/\r/evil.example", false},
		{"/a\\b", false},
		{"/\x7f", false},
		{"/caf\u00e9", true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.local, validate.IsLocalPath(tt.value))
		})
	}
}

/*
TestValidator_Chain_Failure tests error accumulation in the chain.
*/
func TestValidator_Chain_Failure(t *testing.T) {
	v := &validate.Validator{}

	err := v.
		Required("userId", "").
		MinLen("password", "abc", 4).
		Email("email", "not-an-email").
		Err()

	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Len(t, ae.Details, 3)
}
