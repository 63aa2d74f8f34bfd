package emu

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/chip8"
)

// selfLoop is a jump-to-self, handy padding so frames past the interesting
// instructions spin harmlessly.
func selfLoop(addr uint16) []byte {
	op := 0x1000 | addr
	return []byte{byte(op >> 8), byte(op)}
}

func TestMachine_StepFrameBudget(t *testing.T) {
	m := New(Config{CyclesPerFrame: 3})
	// Five loads; one frame must execute exactly three of them.
	prog := []byte{0x60, 0x01, 0x61, 0x02, 0x62, 0x03, 0x63, 0x04, 0x64, 0x05}
	if err := m.LoadProgram(prog); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := m.StepFrame(); err != nil {
		t.Fatalf("frame: %v", err)
	}
	if m.core.PC != chip8.ProgramStart+6 {
		t.Fatalf("PC got %#04x want %#04x", m.core.PC, chip8.ProgramStart+6)
	}
	if m.core.V[3] != 0 {
		t.Fatal("frame ran past its cycle budget")
	}
}

func TestMachine_WaitBackoffAndResume(t *testing.T) {
	m := New(Config{CyclesPerFrame: 8})
	prog := []byte{0xF0, 0x0A, 0x61, 0x05} // LD V0,K; LD V1,5
	prog = append(prog, selfLoop(0x204)...)
	if err := m.LoadProgram(prog); err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := m.StepFrame(); err != nil {
		t.Fatalf("frame: %v", err)
	}
	if !m.Waiting() {
		t.Fatal("machine should be waiting after the frame that hit Fx0A")
	}
	pc := m.core.PC

	// Further frames leave the machine suspended.
	if err := m.StepFrame(); err != nil {
		t.Fatalf("frame: %v", err)
	}
	if m.core.PC != pc || m.core.V[1] != 0 {
		t.Fatal("machine advanced while waiting for a key")
	}

	m.KeyDown(0x9)
	if err := m.StepFrame(); err != nil {
		t.Fatalf("frame: %v", err)
	}
	if m.Waiting() {
		t.Fatal("key press should resolve the wait latch")
	}
	if m.core.V[0] != 0x9 {
		t.Fatalf("V0 got %02x want 09", m.core.V[0])
	}
	if m.core.V[1] != 0x05 {
		t.Fatalf("execution did not resume: V1=%02x", m.core.V[1])
	}
	m.KeyUp(0x9)
}

func TestMachine_FramebufferRGBA(t *testing.T) {
	m := New(Config{CyclesPerFrame: 3})
	// Draw the "0" glyph at (0,0): its top row is 0xF0.
	prog := []byte{0x60, 0x00, 0xF0, 0x29, 0xD1, 0x15}
	if err := m.LoadProgram(prog); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := m.StepFrame(); err != nil {
		t.Fatalf("frame: %v", err)
	}
	fb := m.Framebuffer()
	if len(fb) != chip8.DisplayWidth*chip8.DisplayHeight*4 {
		t.Fatalf("framebuffer length got %d", len(fb))
	}
	// (0,0) is lit: white, opaque.
	if fb[0] != 0xFF || fb[1] != 0xFF || fb[2] != 0xFF || fb[3] != 0xFF {
		t.Fatalf("lit pixel got % x want ff ff ff ff", fb[:4])
	}
	// (4,0) is dark: black, opaque.
	if fb[16] != 0x00 || fb[19] != 0xFF {
		t.Fatalf("dark pixel got % x want 00 00 00 ff", fb[16:20])
	}
}

func TestMachine_LoadROMFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "add.ch8")
	rom := []byte{0x60, 0x05, 0x61, 0x03, 0x80, 0x14}
	rom = append(rom, selfLoop(0x206)...)
	if err := os.WriteFile(path, rom, 0644); err != nil {
		t.Fatalf("write rom: %v", err)
	}

	m := New(Config{})
	if err := m.LoadROMFromFile(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.ROMPath() != path {
		t.Fatalf("ROMPath got %q want %q", m.ROMPath(), path)
	}
	if err := m.StepFrame(); err != nil {
		t.Fatalf("frame: %v", err)
	}
	if m.core.V[0] != 8 {
		t.Fatalf("V0 got %02x want 08", m.core.V[0])
	}

	if err := m.LoadROMFromFile(filepath.Join(t.TempDir(), "missing.ch8")); err == nil {
		t.Fatal("missing file should fail to load")
	}
}

func TestMachine_Reset(t *testing.T) {
	m := New(Config{CyclesPerFrame: 2})
	prog := []byte{0x60, 0x42}
	prog = append(prog, selfLoop(0x202)...)
	if err := m.LoadProgram(prog); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := m.StepFrame(); err != nil {
		t.Fatalf("frame: %v", err)
	}
	if m.core.V[0] != 0x42 {
		t.Fatalf("V0 got %02x want 42", m.core.V[0])
	}
	if err := m.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if m.core.PC != chip8.ProgramStart || m.core.V[0] != 0 {
		t.Fatalf("reset state: PC=%#04x V0=%02x", m.core.PC, m.core.V[0])
	}
}

func TestMachine_FaultSurfaced(t *testing.T) {
	m := New(Config{})
	if err := m.LoadProgram([]byte{0x00, 0xEE}); err != nil { // RET on empty stack
		t.Fatalf("load: %v", err)
	}
	err := m.StepFrame()
	if !errors.Is(err, chip8.ErrStackUnderflow) {
		t.Fatalf("error got %v want wrapped ErrStackUnderflow", err)
	}
}

func TestMachine_ProgramTooLarge(t *testing.T) {
	m := New(Config{MemorySize: 0x300})
	err := m.LoadProgram(make([]byte, 0x101))
	var tooLarge *chip8.ProgramTooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("error got %v want *ProgramTooLargeError", err)
	}
}

func TestMachine_Beeping(t *testing.T) {
	m := New(Config{CyclesPerFrame: 1})
	prog := []byte{0x60, 0x05, 0xF0, 0x18} // LD V0,5; LD ST,V0
	prog = append(prog, selfLoop(0x204)...)
	if err := m.LoadProgram(prog); err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.Beeping() {
		t.Fatal("beeping before the sound timer was set")
	}
	if err := m.StepFrame(); err != nil { // LD V0
		t.Fatalf("frame: %v", err)
	}
	if err := m.StepFrame(); err != nil { // LD ST (5, ticked to 4)
		t.Fatalf("frame: %v", err)
	}
	if !m.Beeping() {
		t.Fatal("sound level should be high while ST > 0")
	}
	for i := 0; i < 4; i++ {
		if err := m.StepFrame(); err != nil {
			t.Fatalf("frame: %v", err)
		}
	}
	if m.Beeping() {
		t.Fatal("sound level should drop once ST reaches 0")
	}
}
