package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignatureOf_SeparatorIsUnambiguous(t *testing.T) {
	a := SignatureOf("op", "a", "bc")
	b := SignatureOf("op", "ab", "c")
	assert.False(t, a.Equals(b))
}

func TestSignatureOf_Deterministic(t *testing.T) {
	a := SignatureOf("sum", "x", "y")
	b := SignatureOf("sum", "x", "y")
	assert.True(t, a.Equals(b))
	assert.Len(t, a.String(), 64)
}

func TestCombineSignatures_OrderMatters(t *testing.T) {
	x, y := NewSignature([]byte("x")), NewSignature([]byte("y"))
	assert.False(t, CombineSignatures("sub", x, y).Equals(CombineSignatures("sub", y, x)))
}

func TestCombineCommutative_OrderBlind(t *testing.T) {
	x, y := NewSignature([]byte("x")), NewSignature([]byte("y"))
	assert.True(t, CombineCommutative("add", x, y).Equals(CombineCommutative("add", y, x)))
}

func TestSignature_IsEmpty(t *testing.T) {
	var s Signature
	assert.True(t, s.IsEmpty())
	assert.False(t, NewSignature(nil).IsEmpty())
}

func TestFormatFloat_RoundTripsPrecision(t *testing.T) {
	assert.NotEqual(t, FormatFloat(0.1), FormatFloat(0.1+1e-16))
	assert.Equal(t, FormatFloat(0.5), FormatFloat(0.5))
}

func TestSpecErrors_Classify(t *testing.T) {
	err := NewSpecError(ErrInvalidDie, "sides must be non-negative")
	assert.True(t, IsSpecError(err))
	assert.True(t, errors.Is(err, ErrInvalidDie))
	assert.False(t, IsInvariantError(err))
}

func TestInvariantErrors_CarrySignature(t *testing.T) {
	sig := NewSignature([]byte("offender"))
	err := NewInvariantError(ErrMassInvariant, sig, "mass drifted")
	assert.True(t, IsInvariantError(err))
	assert.Contains(t, err.Error(), sig.String())
	assert.False(t, IsSpecError(err))
}
