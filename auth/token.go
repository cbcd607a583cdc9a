// Package auth holds the shared-secret comparison used by every ingestion
// route.
package auth

// TokenMatches reports whether the presented token is exactly the expected
// one. Byte-for-byte equality: no trimming, normalization, or case folding.
// Pure; callers decide how to log and reject a mismatch.
func TokenMatches(presented, expected string) bool {
	return presented == expected
}
