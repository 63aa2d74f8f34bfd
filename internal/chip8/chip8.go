// Package chip8 implements the CHIP-8 interpreter core: registers, memory,
// call stack, timers, framebuffer, key state and the fetch-decode-execute
// engine. It has no clock and no I/O of its own; an external driver calls
// Step at whatever cadence it wants and renders the exposed framebuffer.
package chip8

import (
	"math/rand"
	"time"
)

const (
	// DisplayWidth and DisplayHeight are the framebuffer dimensions in cells.
	DisplayWidth  = 64
	DisplayHeight = 32

	// MemorySize is the default memory size in bytes.
	MemorySize = 4096

	// ProgramStart is the address programs are loaded at and PC starts from.
	ProgramStart = 0x200

	glyphSize = 5 // bytes per font glyph
)

// Interpreter is one CHIP-8 machine. All state is owned exclusively by the
// instance; callers must not invoke Step concurrently.
type Interpreter struct {
	// V is the register file V0..VF. VF doubles as the carry/borrow/
	// shift-out/collision flag and is overwritten by any instruction
	// that defines a flag.
	V [16]byte
	// I is the 16-bit index register.
	I uint16
	// PC is the program counter, always even-stepped by the executor.
	PC uint16

	mem   []byte
	stack []uint16
	delay byte
	sound byte
	fb    []byte // DisplayWidth*DisplayHeight cells, each 0 or 1
	keys  [16]bool

	// key-wait latch (Fx0A)
	waiting bool
	waitReg byte
	lastKey int // last key the host reported pressed; -1 if none

	redraw bool
	rng    *rand.Rand
}

// New creates an interpreter with the default memory size, seeds the font
// table at address 0 and loads program at ProgramStart.
func New(program []byte) (*Interpreter, error) {
	return NewSized(program, MemorySize)
}

// NewSized is New with a memory-size override.
func NewSized(program []byte, memSize int) (*Interpreter, error) {
	if ProgramStart+len(program) > memSize {
		return nil, &ProgramTooLargeError{Size: len(program), Limit: memSize - ProgramStart}
	}
	c := &Interpreter{
		mem:     make([]byte, memSize),
		fb:      make([]byte, DisplayWidth*DisplayHeight),
		PC:      ProgramStart,
		lastKey: -1,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	copy(c.mem, fontSet[:])
	copy(c.mem[ProgramStart:], program)
	return c, nil
}

// Display exposes the framebuffer as DisplayWidth*DisplayHeight cells in
// row-major order, each 0 or 1. The host turns this into pixels.
func (c *Interpreter) Display() []byte { return c.fb }

// Redraw reports whether the last Step executed a draw instruction. It is
// recomputed every Step and not persisted.
func (c *Interpreter) Redraw() bool { return c.redraw }

// SoundActive reports whether the sound timer is running; the host decides
// how to render the beep.
func (c *Interpreter) SoundActive() bool { return c.sound > 0 }

// Waiting reports whether a key-wait latch is open. While it is, the driver
// should stop (or slow) its Step cadence until it delivers a key press.
func (c *Interpreter) Waiting() bool { return c.waiting }

// DelayTimer returns the current delay timer value.
func (c *Interpreter) DelayTimer() byte { return c.delay }

// SoundTimer returns the current sound timer value.
func (c *Interpreter) SoundTimer() byte { return c.sound }

// StackDepth returns the number of saved return addresses.
func (c *Interpreter) StackDepth() int { return len(c.stack) }

// SetKey records the state of panel key k (0-15). A press is also remembered
// as the last pressed key so an open key-wait latch resolves on the next Step.
func (c *Interpreter) SetKey(k byte, pressed bool) {
	if k > 0x0F {
		return
	}
	c.keys[k] = pressed
	if pressed {
		c.lastKey = int(k)
	}
}

// Peek reads a memory byte for tools and tests. Out-of-bounds reads return 0.
func (c *Interpreter) Peek(addr uint16) byte {
	if int(addr) >= len(c.mem) {
		return 0
	}
	return c.mem[addr]
}

// SeedRandom re-seeds the random source used by the Cxkk instruction so runs
// can be made deterministic.
func (c *Interpreter) SeedRandom(seed int64) {
	c.rng = rand.New(rand.NewSource(seed))
}

func (c *Interpreter) tickTimers() {
	if c.delay > 0 {
		c.delay--
	}
	if c.sound > 0 {
		c.sound--
	}
}
