// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tokenstore

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// fingerprintKey domain-separates token fingerprints from any other
// BLAKE3 use of the same bytes.
var fingerprintKey = func() [32]byte {
	var key [32]byte
	copy(key[:], "bugdesk.session-token.fingerprint")
	return key
}()

// Fingerprint returns a short, stable, non-reversible identifier for a
// token, for logs and "whoami" output. Never log the token itself.
func Fingerprint(token []byte) string {
	if len(token) == 0 {
		return ""
	}
	hasher, err := blake3.NewKeyed(fingerprintKey[:])
	if err != nil {
		panic("tokenstore: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(token)
	return hex.EncodeToString(hasher.Sum(nil)[:6])
}
