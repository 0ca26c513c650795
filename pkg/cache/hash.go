package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// hashKey builds "<keyType>:<sha256 of the JSON-encoded parts>". Struct
// fields encode in declaration order, so equal options give equal keys.
func hashKey(keyType string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return keyType + ":" + Hash(data)
}

// Hash returns the hex SHA-256 digest of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
