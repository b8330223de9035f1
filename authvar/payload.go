package authvar

import (
	"crypto/sha256"
	"encoding/binary"
)

// VariablePayload is the canonical pre-signature content of one
// variable. Immutable once built.
type VariablePayload struct {
	Name string
	Data []byte
}

// OAKPayload builds the OAK variable payload: the SHA-256 digest of the
// DER certificate. The digest algorithm is fixed, the firmware knows no
// other.
func OAKPayload(certDER []byte) []byte {
	sum := sha256.Sum256(certDER)
	return sum[:]
}

// BPMPayload encodes the bitmask the way the firmware reads it back, as
// 8 little-endian bytes.
func BPMPayload(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}
