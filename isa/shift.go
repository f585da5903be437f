package isa

// ShiftType selects the barrel shifter's operation on an instruction's
// second operand before the ALU sees it.
type ShiftType uint32

const (
	ShiftLSL ShiftType = iota
	ShiftLSR
	ShiftASR
	ShiftROR
)

var shiftNames = map[ShiftType]string{
	ShiftLSL: "lsl",
	ShiftLSR: "lsr",
	ShiftASR: "asr",
	ShiftROR: "ror",
}

func (s ShiftType) String() string {
	if name, ok := shiftNames[s]; ok {
		return name
	}
	return "unknown"
}

// Apply runs the barrel shifter over value, returning the shifted
// result and the shifter's carry-out. The carry-out feeds PSTATE's C
// flag for logical operations; additive operations compute their own
// carry from the ALU instead. An unshifted operand (amount == 0) has no
// carry-out of its own, so it passes carryIn through unchanged rather
// than clobbering C, matching the barrel shifter's behavior on a
// register operand with no shift specified.
func (s ShiftType) Apply(value, amount uint32, carryIn bool) (result uint32, carryOut bool) {
	if amount == 0 {
		return value, carryIn
	}
	switch s {
	case ShiftLSL:
		if amount > 32 {
			return 0, false
		}
		carryOut = (value>>(32-amount))&1 != 0
		if amount == 32 {
			return 0, carryOut
		}
		return value << amount, carryOut
	case ShiftLSR:
		if amount > 32 {
			return 0, false
		}
		carryOut = (value>>(amount-1))&1 != 0
		if amount == 32 {
			return 0, carryOut
		}
		return value >> amount, carryOut
	case ShiftASR:
		signed := int32(value)
		if amount >= 32 {
			if signed < 0 {
				return 0xFFFFFFFF, true
			}
			return 0, false
		}
		carryOut = (value>>(amount-1))&1 != 0
		return uint32(signed >> amount), carryOut
	case ShiftROR:
		amount %= 32
		if amount == 0 {
			return value, (value>>31)&1 != 0
		}
		carryOut = (value>>(amount-1))&1 != 0
		return (value >> amount) | (value << (32 - amount)), carryOut
	default:
		return value, false
	}
}
