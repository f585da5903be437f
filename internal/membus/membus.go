// Package membus implements the emulator's address space: a bus of
// disjoint, fixed-range memory regions, each independently readable or
// writable, dispatched to by address.
package membus

import "fmt"

// Region is a contiguous, fixed-bounds span of byte-addressable memory.
// Read assembles a big-endian word from Width bytes; Write stores a
// word's low Width bytes little-endian. The asymmetry is deliberate and
// carried over unchanged: it is how the hardware this emulates actually
// lays bytes on the bus.
type Region struct {
	Lo, Hi   uint32
	Writable bool
	data     []byte
}

// NewRegion allocates a region covering [lo, hi] inclusive.
func NewRegion(lo, hi uint32, writable bool) *Region {
	return &Region{Lo: lo, Hi: hi, Writable: writable, data: make([]byte, int(hi-lo)+1)}
}

// NewROM allocates a read-only region preloaded with image, which must
// fit within [lo, hi] inclusive; the remainder stays zeroed.
func NewROM(image []byte, lo, hi uint32) (*Region, error) {
	r := NewRegion(lo, hi, false)
	if len(image) > len(r.data) {
		return nil, fmt.Errorf("membus: ROM image of %d bytes exceeds region size %d", len(image), len(r.data))
	}
	copy(r.data, image)
	return r, nil
}

func (r *Region) contains(addr uint32, width int) bool {
	if addr < r.Lo || addr > r.Hi {
		return false
	}
	end := uint64(addr) + uint64(width) - 1
	return end <= uint64(r.Hi)
}

// read assembles a big-endian word from width bytes starting at addr,
// relative to the region's own address space.
func (r *Region) read(addr uint32, width int) uint32 {
	off := addr - r.Lo
	var v uint32
	for i := 0; i < width; i++ {
		v <<= 8
		v += uint32(r.data[off+uint32(i)])
	}
	return v
}

// write stores value's low width bytes little-endian starting at addr.
func (r *Region) write(addr uint32, value uint32, width int) {
	off := addr - r.Lo
	for i := 0; i < width; i++ {
		r.data[off+uint32(i)] = byte(value)
		value >>= 8
	}
}

// ErrOutOfBounds is returned when an access (of any width) falls outside
// every mapped region, or straddles the end of the region it starts in.
type ErrOutOfBounds struct {
	Address uint32
	Width   int
}

func (e *ErrOutOfBounds) Error() string {
	return fmt.Sprintf("membus: address 0x%08x (width %d) is out of bounds", e.Address, e.Width)
}

// ErrAccessDenied is returned when a write targets a non-writable
// (ROM) region.
type ErrAccessDenied struct {
	Address uint32
	Value   uint32
	Width   int
}

func (e *ErrAccessDenied) Error() string {
	return fmt.Sprintf("membus: write to read-only address 0x%08x denied", e.Address)
}

// Bus dispatches reads and writes to the region that claims a given
// address, in the order the regions were added.
type Bus struct {
	regions []*Region
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Map adds a region to the bus. Overlap with an existing region is the
// caller's responsibility to avoid; Map does not check for it, matching
// the teacher's own preference for construction-time trust over runtime
// validation of caller-supplied layout.
func (b *Bus) Map(r *Region) {
	b.regions = append(b.regions, r)
}

func (b *Bus) find(addr uint32, width int) *Region {
	for _, r := range b.regions {
		if r.contains(addr, width) {
			return r
		}
	}
	return nil
}

// Read reads width bytes (1, 2, or 4) starting at addr and returns them
// assembled as a big-endian word.
func (b *Bus) Read(addr uint32, width int) (uint32, error) {
	r := b.find(addr, width)
	if r == nil {
		return 0, &ErrOutOfBounds{Address: addr, Width: width}
	}
	return r.read(addr, width), nil
}

// ReadByte, ReadHalfWord, and ReadWord are Read with a fixed width.
func (b *Bus) ReadByte(addr uint32) (uint32, error)     { return b.Read(addr, 1) }
func (b *Bus) ReadHalfWord(addr uint32) (uint32, error) { return b.Read(addr, 2) }
func (b *Bus) ReadWord(addr uint32) (uint32, error)     { return b.Read(addr, 4) }

// Write stores value's low width bytes little-endian starting at addr.
func (b *Bus) Write(addr uint32, value uint32, width int) error {
	r := b.find(addr, width)
	if r == nil {
		return &ErrOutOfBounds{Address: addr, Width: width}
	}
	if !r.Writable {
		return &ErrAccessDenied{Address: addr, Value: value, Width: width}
	}
	r.write(addr, value, width)
	return nil
}

// WriteByte, WriteHalfWord, and WriteWord are Write with a fixed width.
func (b *Bus) WriteByte(addr uint32, v uint32) error     { return b.Write(addr, v, 1) }
func (b *Bus) WriteHalfWord(addr uint32, v uint32) error { return b.Write(addr, v, 2) }
func (b *Bus) WriteWord(addr uint32, v uint32) error     { return b.Write(addr, v, 4) }
