package emu

import (
	"fmt"
	"os"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/chip8"
)

// Machine wraps one interpreter core with the host-facing conveniences: ROM
// loading from disk, the per-frame step cadence (including backing off while
// the core waits for a key), and RGBA framebuffer conversion.
type Machine struct {
	cfg     Config
	core    *chip8.Interpreter
	rom     []byte
	romPath string
	fb      []byte // RGBA, DisplayWidth x DisplayHeight * 4
}

func New(cfg Config) *Machine {
	cfg.Defaults()
	return &Machine{
		cfg: cfg,
		fb:  make([]byte, chip8.DisplayWidth*chip8.DisplayHeight*4),
	}
}

// LoadProgram replaces the current core with a fresh one seeded with the
// given image. The image is retained for Reset.
func (m *Machine) LoadProgram(rom []byte) error {
	core, err := chip8.NewSized(rom, m.cfg.MemorySize)
	if err != nil {
		return err
	}
	m.core = core
	m.rom = make([]byte, len(rom))
	copy(m.rom, rom)
	return nil
}

// LoadROMFromFile loads a raw program image from disk. CHIP-8 ROMs carry no
// header or checksum.
func (m *Machine) LoadROMFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := m.LoadProgram(data); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	m.romPath = path
	return nil
}

// ROMPath returns the currently loaded ROM file path, if any.
func (m *Machine) ROMPath() string { return m.romPath }

// Reset rebuilds the core from the retained program image.
func (m *Machine) Reset() error {
	if m.rom == nil {
		return nil
	}
	return m.LoadProgram(m.rom)
}

// StepFrame advances the core by up to CyclesPerFrame steps and refreshes the
// RGBA framebuffer. When the key-wait latch opens, the remaining cycles of
// the frame are skipped; while it stays open, each frame runs a single step
// so the timers keep ticking until the host delivers a key. A core fault
// aborts the frame and is returned to the caller.
func (m *Machine) StepFrame() error {
	if m.core == nil {
		return nil
	}
	for i := 0; i < m.cfg.CyclesPerFrame; i++ {
		if err := m.core.Step(); err != nil {
			return fmt.Errorf("step: %w", err)
		}
		if m.core.Waiting() {
			break
		}
	}
	m.renderFramebuffer()
	return nil
}

// Framebuffer returns the display as RGBA bytes, white on black.
func (m *Machine) Framebuffer() []byte { return m.fb }

// Redraw reports whether the display changed during the last core step.
func (m *Machine) Redraw() bool {
	if m.core == nil {
		return false
	}
	return m.core.Redraw()
}

// Beeping reports whether the sound timer is running.
func (m *Machine) Beeping() bool {
	if m.core == nil {
		return false
	}
	return m.core.SoundActive()
}

// Waiting reports whether the core is blocked on a key press.
func (m *Machine) Waiting() bool {
	if m.core == nil {
		return false
	}
	return m.core.Waiting()
}

// KeyDown marks panel key k (0-15) pressed; the press also resolves an open
// key-wait latch on the next step.
func (m *Machine) KeyDown(k byte) {
	if m.core != nil {
		m.core.SetKey(k, true)
	}
}

// KeyUp marks panel key k released.
func (m *Machine) KeyUp(k byte) {
	if m.core != nil {
		m.core.SetKey(k, false)
	}
}

func (m *Machine) renderFramebuffer() {
	cells := m.core.Display()
	for i, cell := range cells {
		v := byte(0x00)
		if cell != 0 {
			v = 0xFF
		}
		j := i * 4
		m.fb[j], m.fb[j+1], m.fb[j+2], m.fb[j+3] = v, v, v, 0xFF
	}
}
