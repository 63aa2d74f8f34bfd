package emu

import "github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/chip8"

// Config contains settings that affect emulation behavior.
type Config struct {
	CyclesPerFrame int // interpreter steps per StepFrame (8 ≈ 500 Hz at 60 fps)
	MemorySize     int // memory size override in bytes
	// Later: quirk toggles (sprite wrap, shift source register), debugger flags.
}

// Defaults fills missing fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.CyclesPerFrame <= 0 {
		c.CyclesPerFrame = 8
	}
	if c.MemorySize <= 0 {
		c.MemorySize = chip8.MemorySize
	}
}
