package chip8

// Step performs one fetch-decode-execute transition and then decrements both
// timers once if they are nonzero. If the key-wait latch is open it is
// resolved first when the host has recorded a pressed key; with no key
// recorded the machine only ticks its timers, honoring the scheduling
// contract that blocking lives outside the core.
func (c *Interpreter) Step() error {
	c.redraw = false

	if c.waiting {
		if c.lastKey < 0 {
			c.tickTimers()
			return nil
		}
		c.V[c.waitReg] = byte(c.lastKey)
		c.waiting = false
		c.lastKey = -1
	}

	if int(c.PC)+1 >= len(c.mem) {
		return &MemoryFaultError{Addr: c.PC, Size: len(c.mem)}
	}
	op := uint16(c.mem[c.PC])<<8 | uint16(c.mem[c.PC+1])

	if err := c.execute(op); err != nil {
		return err
	}
	c.tickTimers()
	return nil
}

// execute dispatches one opcode by its four nibbles. The default PC advance
// is +2; branches, calls, returns and skips override it explicitly.
func (c *Interpreter) execute(op uint16) error {
	x := byte(op>>8) & 0x0F
	y := byte(op>>4) & 0x0F
	kk := byte(op)
	nnn := op & 0x0FFF
	n := int(op & 0x000F)

	switch op & 0xF000 {
	case 0x0000:
		switch op {
		case 0x00E0: // CLS
			clear(c.fb)
			c.PC += 2
		case 0x00EE: // RET
			if len(c.stack) == 0 {
				return ErrStackUnderflow
			}
			c.PC = c.stack[len(c.stack)-1] + 2
			c.stack = c.stack[:len(c.stack)-1]
		default:
			// 0nnn machine call: no native routines exist, so treat it as a
			// program start at nnn with V, I, timers and display cleared.
			c.V = [16]byte{}
			c.I = 0
			c.delay, c.sound = 0, 0
			clear(c.fb)
			c.PC = nnn
		}

	case 0x1000: // 1nnn JP addr
		c.PC = nnn

	case 0x2000: // 2nnn CALL addr
		c.stack = append(c.stack, c.PC)
		c.PC = nnn

	case 0x3000: // 3xkk SE Vx, byte
		c.skipIf(c.V[x] == kk)

	case 0x4000: // 4xkk SNE Vx, byte
		c.skipIf(c.V[x] != kk)

	case 0x5000: // 5xy0 SE Vx, Vy
		if n != 0 {
			return &UnknownOpcodeError{Op: op, PC: c.PC}
		}
		c.skipIf(c.V[x] == c.V[y])

	case 0x6000: // 6xkk LD Vx, byte
		c.V[x] = kk
		c.PC += 2

	case 0x7000: // 7xkk ADD Vx, byte (no flag)
		c.V[x] += kk
		c.PC += 2

	case 0x8000:
		switch op & 0x000F {
		case 0x0: // LD Vx, Vy
			c.V[x] = c.V[y]
		case 0x1: // OR
			c.V[x] |= c.V[y]
		case 0x2: // AND
			c.V[x] &= c.V[y]
		case 0x3: // XOR
			c.V[x] ^= c.V[y]
		case 0x4: // ADD with carry
			sum := uint16(c.V[x]) + uint16(c.V[y])
			c.V[x] = byte(sum)
			c.V[0xF] = flag(sum > 0xFF)
		case 0x5: // SUB Vx - Vy, VF = not borrow
			borrow := c.V[y] > c.V[x]
			c.V[x] -= c.V[y]
			c.V[0xF] = flag(!borrow)
		case 0x6: // SHR, VF = shifted-out bit
			lsb := c.V[x] & 0x01
			c.V[x] >>= 1
			c.V[0xF] = lsb
		case 0x7: // SUBN Vy - Vx, VF = not borrow
			borrow := c.V[x] > c.V[y]
			c.V[x] = c.V[y] - c.V[x]
			c.V[0xF] = flag(!borrow)
		case 0xE: // SHL, VF = shifted-out bit as 0/1
			msb := (c.V[x] >> 7) & 0x01
			c.V[x] <<= 1
			c.V[0xF] = msb
		default:
			return &UnknownOpcodeError{Op: op, PC: c.PC}
		}
		c.PC += 2

	case 0x9000: // 9xy0 SNE Vx, Vy
		if n != 0 {
			return &UnknownOpcodeError{Op: op, PC: c.PC}
		}
		c.skipIf(c.V[x] != c.V[y])

	case 0xA000: // Annn LD I, addr
		c.I = nnn
		c.PC += 2

	case 0xB000: // Bnnn JP V0, addr
		c.PC = nnn + uint16(c.V[0])

	case 0xC000: // Cxkk RND Vx, byte
		c.V[x] = byte(c.rng.Intn(0x100)) & kk
		c.PC += 2

	case 0xD000: // Dxyn DRW Vx, Vy, nibble
		collision, err := c.drawSprite(c.V[x], c.V[y], n)
		if err != nil {
			return err
		}
		c.V[0xF] = flag(collision)
		c.redraw = true
		c.PC += 2

	case 0xE000:
		switch op & 0x00FF {
		case 0x9E: // SKP Vx
			c.skipIf(c.keys[c.V[x]&0x0F])
		case 0xA1: // SKNP Vx
			c.skipIf(!c.keys[c.V[x]&0x0F])
		default:
			return &UnknownOpcodeError{Op: op, PC: c.PC}
		}

	case 0xF000:
		switch op & 0x00FF {
		case 0x07: // LD Vx, DT
			c.V[x] = c.delay
		case 0x0A: // LD Vx, K: open the key-wait latch; blocking is the
			// driver's job, the cycle itself completes.
			c.waiting = true
			c.waitReg = x
			c.lastKey = -1
		case 0x15: // LD DT, Vx
			c.delay = c.V[x]
		case 0x18: // LD ST, Vx
			c.sound = c.V[x]
		case 0x1E: // ADD I, Vx. I may run past memory; that surfaces as a
			// fault on the next dereference, never as a wrap.
			c.I += uint16(c.V[x])
		case 0x29: // LD F, Vx: glyph address for digit Vx
			c.I = uint16(c.V[x]) * glyphSize
		case 0x33: // LD B, Vx: BCD to mem[I..I+2]
			if int(c.I)+2 >= len(c.mem) {
				return &MemoryFaultError{Addr: c.I, Size: len(c.mem)}
			}
			c.mem[c.I] = c.V[x] / 100
			c.mem[c.I+1] = (c.V[x] / 10) % 10
			c.mem[c.I+2] = c.V[x] % 10
		case 0x55: // LD [I], Vx: dump V0..Vx
			if int(c.I)+int(x) >= len(c.mem) {
				return &MemoryFaultError{Addr: c.I, Size: len(c.mem)}
			}
			copy(c.mem[c.I:], c.V[:x+1])
		case 0x65: // LD Vx, [I]: load V0..Vx
			if int(c.I)+int(x) >= len(c.mem) {
				return &MemoryFaultError{Addr: c.I, Size: len(c.mem)}
			}
			copy(c.V[:x+1], c.mem[c.I:])
		default:
			return &UnknownOpcodeError{Op: op, PC: c.PC}
		}
		c.PC += 2

	default:
		return &UnknownOpcodeError{Op: op, PC: c.PC}
	}
	return nil
}

func (c *Interpreter) skipIf(cond bool) {
	if cond {
		c.PC += 4
	} else {
		c.PC += 2
	}
}

func flag(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// drawSprite XORs a sprite of the given height onto the framebuffer at
// (ox, oy). Rows are bytes at I, most significant bit leftmost. Destination
// cells outside the framebuffer are skipped, not wrapped. Returns whether any
// set pixel was cleared.
func (c *Interpreter) drawSprite(ox, oy byte, height int) (bool, error) {
	if int(c.I)+height > len(c.mem) {
		return false, &MemoryFaultError{Addr: c.I, Size: len(c.mem)}
	}
	collision := false
	for row := 0; row < height; row++ {
		bits := c.mem[int(c.I)+row]
		py := int(oy) + row
		if py >= DisplayHeight {
			continue
		}
		for col := 0; col < 8; col++ {
			if bits&(0x80>>col) == 0 {
				continue
			}
			px := int(ox) + col
			if px >= DisplayWidth {
				continue
			}
			cell := py*DisplayWidth + px
			if c.fb[cell] != 0 {
				collision = true
			}
			c.fb[cell] ^= 1
		}
	}
	return collision, nil
}
