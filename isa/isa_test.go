package isa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatORoundTripImmediate(t *testing.T) {
	word := EncodeFormatO(OpRsc, CondAL, false, 0, 1, Operand2{Imm: true, Immediate: 11})

	op, cond, sFlag, rd, rn, operand2 := DecodeFormatO(word)
	assert.Equal(t, OpRsc, op)
	assert.Equal(t, CondAL, cond)
	assert.False(t, sFlag)
	assert.Equal(t, 0, rd)
	assert.Equal(t, 1, rn)
	require.True(t, operand2.Imm)
	assert.Equal(t, uint32(11), operand2.Immediate)
}

func TestFormatORoundTripRegisterShift(t *testing.T) {
	word := EncodeFormatO(OpRsc, CondAL, true, 0, 1, Operand2{Rm: 2, Shift: ShiftLSL, Amount: 0})

	op, cond, sFlag, rd, rn, operand2 := DecodeFormatO(word)
	assert.Equal(t, OpRsc, op)
	assert.Equal(t, CondAL, cond)
	assert.True(t, sFlag)
	assert.Equal(t, 0, rd)
	assert.Equal(t, 1, rn)
	require.False(t, operand2.Imm)
	assert.Equal(t, 2, operand2.Rm)
	assert.Equal(t, ShiftLSL, operand2.Shift)
	assert.Equal(t, uint32(0), operand2.Amount)
}

func TestFormatO2RoundTrip(t *testing.T) {
	word := EncodeFormatO2(OpSmull, CondAL, true, 0, 1, 2, 3)

	op, cond, sFlag, rdLo, rdHi, rn, rm := DecodeFormatO2(word)
	assert.Equal(t, OpSmull, op)
	assert.Equal(t, CondAL, cond)
	assert.True(t, sFlag)
	assert.Equal(t, 0, rdLo)
	assert.Equal(t, 1, rdHi)
	assert.Equal(t, 2, rn)
	assert.Equal(t, 3, rm)
}

func TestDecodeOpcodeCondIndependentOfFormat(t *testing.T) {
	word := EncodeFormatO2(OpUmull, CondNE, false, 4, 5, 6, 7)
	op, cond, sFlag := DecodeOpcodeCond(word)
	assert.Equal(t, OpUmull, op)
	assert.Equal(t, CondNE, cond)
	assert.False(t, sFlag)
}

func TestCondHoldsStandardSet(t *testing.T) {
	tests := []struct {
		cond             Cond
		n, z, v, c, want bool
	}{
		{CondEQ, false, true, false, false, true},
		{CondNE, false, false, false, false, true},
		{CondCS, false, false, false, true, true},
		{CondCC, false, false, false, false, true},
		{CondMI, true, false, false, false, true},
		{CondPL, false, false, false, false, true},
		{CondGE, true, false, true, false, true},
		{CondLT, true, false, false, false, true},
		{CondAL, false, false, false, false, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.cond.Holds(tt.n, tt.z, tt.v, tt.c), "cond %v", tt.cond)
	}
}

func TestShiftLSLCarryOut(t *testing.T) {
	result, carry := ShiftLSL.Apply(0x80000001, 1, false)
	assert.Equal(t, uint32(2), result)
	assert.True(t, carry)
}

func TestShiftRORWrapsAround(t *testing.T) {
	result, _ := ShiftROR.Apply(0x1, 1, false)
	assert.Equal(t, uint32(0x80000000), result)
}

func TestShiftZeroAmountPassesCarryThrough(t *testing.T) {
	result, carry := ShiftLSL.Apply(0x12345678, 0, true)
	assert.Equal(t, uint32(0x12345678), result)
	assert.True(t, carry, "an unshifted operand must not clobber the incoming carry")

	result, carry = ShiftLSR.Apply(0x12345678, 0, false)
	assert.Equal(t, uint32(0x12345678), result)
	assert.False(t, carry)
}

func TestPackUnpackNZCV(t *testing.T) {
	p := PackNZCV(true, false, true, false)
	n, z, c, v := UnpackNZCV(p)
	assert.True(t, n)
	assert.False(t, z)
	assert.True(t, c)
	assert.False(t, v)
}
