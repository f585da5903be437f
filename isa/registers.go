package isa

// NumRegs is the size of the register file format_o/format_o2's 5-bit
// register fields can address.
const NumRegs = 32

// Reserved register indices, aliased on top of the general bank per the
// original's register layout: the stack pointer and link register are
// ordinary register slots by convention only, and NR carries the
// software-interrupt request number read by the swi handler.
const (
	SP = NumRegs - 4
	LR = NumRegs - 3
	PC = NumRegs - 2
	NR = NumRegs - 1
)
