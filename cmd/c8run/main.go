// c8run is a headless step-runner for CHIP-8 ROMs: it drives the interpreter
// core directly, optionally tracing every instruction, and dumps a recent
// trace window when the core faults. Useful for regression-running test ROMs
// without a display.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/chip8"
)

type traceEntry struct {
	step  int
	pc    uint16
	op    uint16
	i     uint16
	v     [16]byte
	depth int
	dt    byte
	st    byte
}

func (te traceEntry) String() string {
	return fmt.Sprintf("step=%d PC=%04X OP=%04X I=%04X V=%02X DT=%02X ST=%02X depth=%d",
		te.step, te.pc, te.op, te.i, te.v, te.dt, te.st, te.depth)
}

func main() {
	romPath := flag.String("rom", "", "path to CHIP-8 ROM (.ch8)")
	steps := flag.Int("steps", 1_000_000, "max interpreter steps to run")
	memSize := flag.Int("mem", chip8.MemorySize, "memory size in bytes")
	trace := flag.Bool("trace", false, "print PC/opcode/registers per step")
	traceOnFault := flag.Bool("traceOnFault", false, "on fault, print a recent trace window (slows down)")
	traceWindow := flag.Int("traceWindow", 64, "number of recent instructions kept for -traceOnFault")
	flag.Parse()

	if *romPath == "" {
		log.Fatal("-rom is required")
	}
	rom, err := os.ReadFile(*romPath)
	if err != nil {
		log.Fatalf("read rom: %v", err)
	}

	c, err := chip8.NewSized(rom, *memSize)
	if err != nil {
		var tooLarge *chip8.ProgramTooLargeError
		if errors.As(err, &tooLarge) {
			log.Fatalf("rom does not fit: %v", err)
		}
		log.Fatalf("new interpreter: %v", err)
	}

	ring := make([]traceEntry, *traceWindow)
	ringIdx := 0
	ringFill := 0

	start := time.Now()
	for i := 0; i < *steps; i++ {
		pc := c.PC
		op := uint16(c.Peek(pc))<<8 | uint16(c.Peek(pc+1))
		stepErr := c.Step()
		if *trace || *traceOnFault {
			te := traceEntry{
				step: i, pc: pc, op: op, i: c.I, v: c.V,
				depth: c.StackDepth(), dt: c.DelayTimer(), st: c.SoundTimer(),
			}
			if *trace {
				fmt.Println(te)
			}
			if *traceOnFault && *traceWindow > 0 {
				ring[ringIdx] = te
				ringIdx = (ringIdx + 1) % *traceWindow
				if ringFill < *traceWindow {
					ringFill++
				}
			}
		}
		if stepErr != nil {
			fmt.Printf("\nFault at step %d: %v\n", i, stepErr)
			if *traceOnFault && ringFill > 0 {
				fmt.Printf("\n--- recent trace (last %d instructions) ---\n", ringFill)
				startIdx := (ringIdx - ringFill + *traceWindow) % *traceWindow
				for j := 0; j < ringFill; j++ {
					fmt.Println(ring[(startIdx+j)%*traceWindow])
				}
				fmt.Printf("--- end trace ---\n")
			}
			fmt.Printf("\nDone: steps=%d elapsed=%s\n", i+1, time.Since(start).Truncate(time.Millisecond))
			os.Exit(1)
		}
		if c.Waiting() {
			// No key source here; the latch would never resolve.
			fmt.Printf("\nMachine is waiting for a key press; stopping.\n")
			fmt.Printf("\nDone: steps=%d elapsed=%s\n", i+1, time.Since(start).Truncate(time.Millisecond))
			return
		}
	}
	fmt.Printf("\nDone: steps=%d elapsed=%s\n", *steps, time.Since(start).Truncate(time.Millisecond))
}
