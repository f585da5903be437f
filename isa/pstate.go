package isa

// PSTATE flag bit positions, matching the ARM convention the teacher's
// own SVE encoder assumes throughout (N highest, then Z, C, V).
const (
	NFlag = 31
	ZFlag = 30
	CFlag = 29
	VFlag = 28
)

// TestFlag reports whether the given bit position is set in pstate.
func TestFlag(pstate uint32, bit uint) bool {
	return (pstate>>bit)&1 != 0
}

// SetFlag returns pstate with the given bit position set to v.
func SetFlag(pstate uint32, bit uint, v bool) uint32 {
	if v {
		return pstate | (1 << bit)
	}
	return pstate &^ (1 << bit)
}

// PackNZCV returns a pstate word with exactly the N, Z, C, V bits set
// from the given booleans; all other bits are zero.
func PackNZCV(n, z, c, v bool) uint32 {
	var p uint32
	p = SetFlag(p, NFlag, n)
	p = SetFlag(p, ZFlag, z)
	p = SetFlag(p, CFlag, c)
	p = SetFlag(p, VFlag, v)
	return p
}

// UnpackNZCV reads the N, Z, C, V bits out of pstate.
func UnpackNZCV(pstate uint32) (n, z, c, v bool) {
	return TestFlag(pstate, NFlag), TestFlag(pstate, ZFlag), TestFlag(pstate, CFlag), TestFlag(pstate, VFlag)
}
