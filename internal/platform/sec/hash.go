// Copyright (c) 2026 PetHaul. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint returns a stable, non-reversible hex digest of a secret such as
// a session cookie value.
//
// The session id is a bearer credential: anyone holding it owns the browser
// session. Stores that outlive the session (audit rows) keep the fingerprint.
func Fingerprint(secret string) string {
	if secret == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
