package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Signature is a canonical structural fingerprint used for cache keys and
// cheap equality. Two values with the same construction history sign
// identically.
type Signature string

// NewSignature hashes raw bytes into a signature.
func NewSignature(data []byte) Signature {
	sum := sha256.Sum256(data)
	return Signature(hex.EncodeToString(sum[:]))
}

// SignatureOf builds a signature from an operation kind and its parts.
// Parts are joined with an unambiguous separator before hashing so that
// ("a", "bc") and ("ab", "c") sign differently.
func SignatureOf(kind string, parts ...string) Signature {
	var b strings.Builder
	b.WriteString(kind)
	for _, p := range parts {
		b.WriteByte(0x1f)
		b.WriteString(p)
	}
	return NewSignature([]byte(b.String()))
}

// CombineSignatures derives a signature from an operation kind and operand
// signatures, order-preserving.
func CombineSignatures(kind string, sigs ...Signature) Signature {
	parts := make([]string, len(sigs))
	for i, s := range sigs {
		parts[i] = string(s)
	}
	return SignatureOf(kind, parts...)
}

// CombineCommutative derives a signature from an operation kind and operand
// signatures after sorting them, so operand order cannot produce distinct
// signatures for equivalent constructions.
func CombineCommutative(kind string, sigs ...Signature) Signature {
	sorted := make([]string, len(sigs))
	for i, s := range sigs {
		sorted[i] = string(s)
	}
	sort.Strings(sorted)
	return SignatureOf(kind, sorted...)
}

// String returns the string representation.
func (s Signature) String() string {
	return string(s)
}

// IsEmpty checks if the signature is unset.
func (s Signature) IsEmpty() bool {
	return s == ""
}

// Equals checks if two signatures are equal.
func (s Signature) Equals(other Signature) bool {
	return s == other
}

// FormatFloat renders a float for inclusion in signatures and cache keys with
// enough precision to round-trip exactly.
func FormatFloat(f float64) string {
	return fmt.Sprintf("%.17g", f)
}

// FormatInt renders an int for inclusion in signatures and cache keys.
func FormatInt(v int) string {
	return fmt.Sprintf("%d", v)
}
