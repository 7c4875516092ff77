package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// PhraseIDLength is the length of a derived identifier: hex-encoded SHA-256.
const PhraseIDLength = sha256.Size * 2

// DerivePhraseID maps a phrase to its cache identifier.
//
// The identifier is the lowercase hex SHA-256 of the phrase's exact UTF-8
// bytes. No trimming, case folding or Unicode normalization is applied, so
// two phrases share a cache entry only when they are byte-for-byte equal.
func DerivePhraseID(phrase string) string {
	sum := sha256.Sum256([]byte(phrase))
	return hex.EncodeToString(sum[:])
}

// ValidPhraseID reports whether id has the shape DerivePhraseID produces.
func ValidPhraseID(id string) bool {
	if len(id) != PhraseIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
