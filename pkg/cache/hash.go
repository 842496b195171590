package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Hash returns the hex SHA-256 of data. Datasets and overlays are keyed by
// the hash of their raw bytes, so reformatting a file invalidates its entries.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey builds "<kind>:<sha256(base, NUL, json(opts))>". The option
// struct's JSON tags define which settings take part in the key.
func hashKey(kind, base string, opts any) string {
	h := sha256.New()
	h.Write([]byte(base))
	h.Write([]byte{0})
	enc, _ := json.Marshal(opts)
	h.Write(enc)
	return kind + ":" + hex.EncodeToString(h.Sum(nil))
}
