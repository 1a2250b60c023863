package identity

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// HashBody returns the hex sha256 of the raw request body. An empty body hashes as "{}".
func HashBody(body []byte) string {
	if len(body) == 0 {
		body = []byte("{}")
	}
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// Sign computes the expected signature for a signed wallet request.
func Sign(secret, wallet, nonce, action string, body []byte) string {
	payload := fmt.Sprintf("%s:%s:%s:%s:%s", wallet, nonce, action, HashBody(body), secret)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

func signatureMatches(expected, got string) bool {
	return subtle.ConstantTimeCompare([]byte(expected), []byte(got)) == 1
}
