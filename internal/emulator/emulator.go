// Package emulator implements the cycle-stepped execution engine: a
// register file and PSTATE word driven by a fetch/decode/execute loop
// over a membus.Bus, built on the shared instruction encoding in isa.
package emulator

import (
	"context"
	"io"
	"log"
	"os"

	"github.com/basm32/basm32/internal/membus"
	"github.com/basm32/basm32/isa"
)

// Emulator holds the architectural state the original calls the
// processor: a general register bank, the PSTATE flag word, and the
// bus it executes against.
type Emulator struct {
	Regs   [isa.NumRegs]uint32
	PState uint32

	Bus *membus.Bus

	logger *log.Logger
	errlog *log.Logger

	halted      bool
	haltMessage string
}

// NewEmulator constructs an emulator over bus with PC and all other
// registers zeroed, the same reset state the processor is left in
// before a caller seeds it.
func NewEmulator(bus *membus.Bus) *Emulator {
	return &Emulator{
		Bus:    bus,
		logger: log.New(os.Stdout, "", 0),
		errlog: log.New(os.Stderr, "", 0),
	}
}

// SetLogOutput redirects the emu_print/emu_printr/emu_printm/emu_printp/
// emu_log sink. Tests use this to capture SWI output instead of stdout.
func (e *Emulator) SetLogOutput(w io.Writer) { e.logger = log.New(w, "", 0) }

// SetErrorOutput redirects the emu_err sink.
func (e *Emulator) SetErrorOutput(w io.Writer) { e.errlog = log.New(w, "", 0) }

func (e *Emulator) flags() (n, z, c, v bool) {
	return isa.UnpackNZCV(e.PState)
}

func (e *Emulator) setFlags(n, z, c, v bool) {
	e.PState = isa.PackNZCV(n, z, c, v)
}

// SetNZCV seeds the flag word directly; tests use this to set up a
// scenario's initial PSTATE.
func (e *Emulator) SetNZCV(n, z, c, v bool) { e.setFlags(n, z, c, v) }

// SetPC seeds the program counter.
func (e *Emulator) SetPC(pc uint32) { e.Regs[isa.PC] = pc }

// Halted reports whether a prior step halted the run via emu_err.
func (e *Emulator) Halted() bool { return e.halted }

// Run executes at most nSteps instructions, stopping early if the run
// halts itself (emu_err), faults, or ctx is cancelled. A fault, a
// cancellation, or the emu_err step that halts the run (its Cause is an
// *ErrHalted) is returned as an *EmulatorFault; a clean exhaustion of the
// step budget, or a Run on an already-halted emulator, returns nil.
func (e *Emulator) Run(ctx context.Context, nSteps int) error {
	for i := 0; i < nSteps; i++ {
		if e.halted {
			return nil
		}
		select {
		case <-ctx.Done():
			return &EmulatorFault{PC: e.Regs[isa.PC], Cause: ctx.Err()}
		default:
		}
		if err := e.Step(); err != nil {
			return &EmulatorFault{PC: e.Regs[isa.PC], Cause: err}
		}
	}
	return nil
}

// Step fetches, decodes, and executes exactly one instruction: advance
// PC by 4 before executing, test the condition, dispatch by format, and
// update flags only when the instruction both ran and carries sFlag
// (cmp, which has no destination register, always updates them).
func (e *Emulator) Step() error {
	pc := e.Regs[isa.PC]
	word, err := e.Bus.ReadWord(pc)
	if err != nil {
		return err
	}
	e.Regs[isa.PC] = pc + 4
	return e.execute(word, pc)
}

func (e *Emulator) execute(word, pc uint32) error {
	op, cond, sFlag := isa.DecodeOpcodeCond(word)
	n, z, c, v := e.flags()
	if !cond.Holds(n, z, v, c) {
		return nil
	}

	switch {
	case op == isa.OpSwi:
		return e.swi()
	case op.IsExtendedMultiply():
		_, _, _, rdLo, rdHi, rn, rm := isa.DecodeFormatO2(word)
		return e.executeMultiply(op, sFlag, rdLo, rdHi, rn, rm, word, pc)
	default:
		_, _, _, rd, rn, operand2 := isa.DecodeFormatO(word)
		return e.executeALU(op, sFlag, rd, rn, operand2, word, pc)
	}
}

// resolveOperand2 runs the barrel shifter, if any, over operand2.
// carryIn is the current C flag: an operand with no shift of its own
// (an immediate, or a register shifted by 0) passes it through
// unchanged instead of clobbering it.
func (e *Emulator) resolveOperand2(o isa.Operand2, carryIn bool) (uint32, bool) {
	if o.Imm {
		return o.Immediate, carryIn
	}
	return o.Shift.Apply(e.Regs[o.Rm&0x1F], o.Amount, carryIn)
}
