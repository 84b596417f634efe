package entity

import (
	"crypto/sha256"
	"encoding/hex"
)

// FingerprintLength is the length of a fingerprint in hex characters.
const FingerprintLength = sha256.Size * 2

// Fingerprint computes the content fingerprint of an essay body.
//
// The fingerprint is the lowercase hex SHA-256 of the UTF-8 body text and depends on
// nothing else, so the same essay scraped on different days maps to the same key no
// matter how the translation differs. No whitespace normalization is applied.
func Fingerprint(body string) string {
	sum := sha256.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])
}
