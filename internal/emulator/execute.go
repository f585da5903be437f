package emulator

import "github.com/basm32/basm32/isa"

// executeALU runs the format_o opcodes: data-processing, compare,
// multiply, load/store, and branch. rd/rn index the register file
// directly; operand2 is run through the barrel shifter here, before the
// opcode is dispatched.
func (e *Emulator) executeALU(op isa.Opcode, sFlag bool, rd, rn int, operand2 isa.Operand2, word, pc uint32) error {
	rnVal := e.Regs[rn]
	n, z, c, v := e.flags()
	op2Val, shifterCarry := e.resolveOperand2(operand2, c)

	logical := func(result uint32) {
		if sFlag {
			n, z, c = result>>31&1 == 1, result == 0, shifterCarry
		}
		e.Regs[rd] = result
	}

	switch op {
	case isa.OpMov:
		logical(op2Val)
	case isa.OpMvn:
		logical(^op2Val)
	case isa.OpAnd:
		logical(rnVal & op2Val)
	case isa.OpOrr:
		logical(rnVal | op2Val)
	case isa.OpEor:
		logical(rnVal ^ op2Val)

	case isa.OpAdd:
		result, carryOut, overflow := addWithCarry(rnVal, op2Val, 0)
		if sFlag {
			n, z, c, v = addFlags(result, carryOut, overflow)
		}
		e.Regs[rd] = result

	case isa.OpSub:
		result, carryOut, overflow := addWithCarry(rnVal, ^op2Val, 1)
		if sFlag {
			n, z, c, v = addFlags(result, carryOut, overflow)
		}
		e.Regs[rd] = result

	case isa.OpCmp:
		result, carryOut, overflow := addWithCarry(rnVal, ^op2Val, 1)
		n, z, c, v = addFlags(result, carryOut, overflow)

	case isa.OpRsc:
		result, rn2, rz2, rc2, rv2 := rsc(op2Val, rnVal, c)
		if sFlag {
			n, z, c, v = rn2, rz2, rc2, rv2
		}
		e.Regs[rd] = result

	case isa.OpMul:
		result := rnVal * op2Val
		if sFlag {
			n, z = result>>31&1 == 1, result == 0
		}
		e.Regs[rd] = result

	case isa.OpLdr:
		val, err := e.Bus.ReadWord(rnVal + op2Val)
		if err != nil {
			return err
		}
		e.Regs[rd] = val

	case isa.OpStr:
		if err := e.Bus.WriteWord(rnVal+op2Val, e.Regs[rd]); err != nil {
			return err
		}

	case isa.OpB:
		e.Regs[isa.PC] = rnVal + op2Val

	case isa.OpBl:
		e.Regs[isa.LR] = e.Regs[isa.PC]
		e.Regs[isa.PC] = rnVal + op2Val

	default:
		return &ErrInvalidOpcode{Word: word, PC: pc}
	}

	e.setFlags(n, z, c, v)
	return nil
}

// executeMultiply runs the format_o2 extended multiplies. Per the
// grounded test scenarios, a zero-result or sign-only flag update never
// touches C or V: they are carried through unchanged whether or not
// sFlag is set.
func (e *Emulator) executeMultiply(op isa.Opcode, sFlag bool, rdLo, rdHi, rn, rm int, word, pc uint32) error {
	rnVal, rmVal := e.Regs[rn], e.Regs[rm]
	n, z, c, v := e.flags()

	switch op {
	case isa.OpSmull:
		product := int64(int32(rnVal)) * int64(int32(rmVal))
		e.Regs[rdLo] = uint32(product)
		e.Regs[rdHi] = uint32(uint64(product) >> 32)
		if sFlag {
			n = uint64(product)>>63&1 == 1
			z = product == 0
		}

	case isa.OpUmull:
		product := uint64(rnVal) * uint64(rmVal)
		e.Regs[rdLo] = uint32(product)
		e.Regs[rdHi] = uint32(product >> 32)
		if sFlag {
			n = product>>63&1 == 1
			z = product == 0
		}

	default:
		return &ErrInvalidOpcode{Word: word, PC: pc}
	}

	e.setFlags(n, z, c, v)
	return nil
}
