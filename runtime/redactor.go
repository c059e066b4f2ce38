package runtime

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Redactor turns a raw network address into an opaque token with a
// keyed BLAKE2b MAC. Same address and secret give the same token;
// without the secret the token cannot be linked back to the address.
type Redactor struct {
	key []byte
}

func NewRedactor(secret string) *Redactor {
	key := []byte(secret)
	if len(key) > 64 {
		// BLAKE2b caps keys at 64 bytes, compress longer secrets first
		sum := blake2b.Sum256(key)
		key = sum[:]
	}
	return &Redactor{key: key}
}

// Hash returns the hex token for an address, or the empty sentinel for
// an empty address or a MAC construction failure. Redaction failures
// must never abort message processing.
func (r *Redactor) Hash(rawAddress string) string {
	if rawAddress == "" {
		return ""
	}
	mac, err := blake2b.New256(r.key)
	if err != nil {
		return ""
	}
	mac.Write([]byte(rawAddress))
	return hex.EncodeToString(mac.Sum(nil))
}
