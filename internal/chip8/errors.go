package chip8

import (
	"errors"
	"fmt"
)

// ErrStackUnderflow is returned by Step when a return executes with an empty
// call stack.
var ErrStackUnderflow = errors.New("return with empty call stack")

// ProgramTooLargeError is returned at construction when the program image
// does not fit between ProgramStart and the end of memory.
type ProgramTooLargeError struct {
	Size  int // image size in bytes
	Limit int // bytes available after the load offset
}

func (e *ProgramTooLargeError) Error() string {
	return fmt.Sprintf("program too large: %d bytes, limit %d", e.Size, e.Limit)
}

// UnknownOpcodeError is returned by Step when no dispatch case matches. PC is
// left unadvanced, so retrying without intervention refetches the same word.
type UnknownOpcodeError struct {
	Op uint16
	PC uint16
}

func (e *UnknownOpcodeError) Error() string {
	return fmt.Sprintf("unknown opcode %04X at %04X", e.Op, e.PC)
}

// MemoryFaultError is returned when a fetch, read or write would touch an
// address outside the configured memory. Memory is never modified out of
// bounds.
type MemoryFaultError struct {
	Addr uint16 // first offending address
	Size int    // configured memory size
}

func (e *MemoryFaultError) Error() string {
	return fmt.Sprintf("memory fault at %04X (memory size %d)", e.Addr, e.Size)
}
