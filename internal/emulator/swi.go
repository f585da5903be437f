package emulator

import (
	"fmt"

	"github.com/basm32/basm32/isa"
)

const (
	swiPrint    = 1000
	swiPrintReg = 1001
	swiPrintMem = 1002
	swiPrintPS  = 1003
	swiAssertR  = 1010
	swiAssertM  = 1011
	swiAssertP  = 1012
	swiLog      = 1020
	swiErr      = 1021
)

// swi dispatches the request named by the NR register, with up to six
// arguments in r0..r5. Unknown IDs, including the documented-but-never-
// implemented io_setup/xattr range (0-16), all fall through to
// ErrInvalidSyscall.
func (e *Emulator) swi() error {
	id := e.Regs[isa.NR]
	args := e.Regs[0:6]

	switch id {
	case swiPrint:
		e.logger.Printf("%d %d %d %d %d %d", args[0], args[1], args[2], args[3], args[4], args[5])

	case swiPrintReg:
		e.logger.Printf("%d", e.Regs[args[0]&0x1F])

	case swiPrintMem:
		val, err := e.readSized(args[0], args[1], args[2] != 0)
		if err != nil {
			return err
		}
		e.logger.Printf("%d", val)

	case swiPrintPS:
		n, z, c, v := e.flags()
		e.logger.Printf("N=%d Z=%d C=%d V=%d", b2i(n), b2i(z), b2i(c), b2i(v))

	case swiAssertR:
		got := int32(e.Regs[args[0]&0x1F])
		min, max := int32(args[1]), int32(args[2])
		if got < min || got > max {
			return &ErrAssertionFailed{Detail: fmt.Sprintf("register %d = %d, want [%d, %d]", args[0], got, min, max)}
		}

	case swiAssertM:
		val, err := e.readSized(args[0], args[1], args[2] != 0)
		if err != nil {
			return err
		}
		got, min, max := int32(val), int32(args[3]), int32(args[4])
		if got < min || got > max {
			return &ErrAssertionFailed{Detail: fmt.Sprintf("memory @0x%08x = %d, want [%d, %d]", args[0], got, min, max)}
		}

	case swiAssertP:
		n, z, c, v := e.flags()
		bits := [4]bool{n, z, c, v}
		bit := args[0]
		if bit > 3 {
			return &ErrAssertionFailed{Detail: fmt.Sprintf("pstate bit %d out of range", bit)}
		}
		got := b2i(bits[bit])
		if got != args[1] {
			return &ErrAssertionFailed{Detail: fmt.Sprintf("pstate bit %d = %d, want %d", bit, got, args[1])}
		}

	case swiLog:
		s, err := e.readCString(args[0])
		if err != nil {
			return err
		}
		e.logger.Println(s)

	case swiErr:
		s, err := e.readCString(args[0])
		if err != nil {
			return err
		}
		e.errlog.Println(s)
		e.halted = true
		e.haltMessage = s
		return &ErrHalted{Message: s}

	default:
		return &ErrInvalidSyscall{ID: id}
	}
	return nil
}

// readSized reads a size-byte (1, 2, or 4) value at addr, byte-swapping
// to little-endian when requested: the bus always assembles reads
// big-endian, so emu_printm/emu_assertm's explicit endianness argument
// has to be applied on top of that.
func (e *Emulator) readSized(addr, size uint32, littleEndian bool) (uint32, error) {
	val, err := e.Bus.Read(addr, int(size))
	if err != nil {
		return 0, err
	}
	if !littleEndian {
		return val, nil
	}
	switch size {
	case 2:
		return (val&0xFF)<<8 | (val>>8)&0xFF, nil
	case 4:
		return (val&0xFF)<<24 | (val&0xFF00)<<8 | (val>>8)&0xFF00 | (val>>24)&0xFF, nil
	default:
		return val, nil
	}
}

func (e *Emulator) readCString(addr uint32) (string, error) {
	var buf []byte
	for {
		b, err := e.Bus.ReadByte(addr)
		if err != nil {
			return "", err
		}
		if b == 0 {
			break
		}
		buf = append(buf, byte(b))
		addr++
	}
	return string(buf), nil
}

func b2i(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
