package ui

import (
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"time"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/chip8"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/emu"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// keyMap maps the keyboard block 1234/QWER/ASDF/ZXCV onto the 16-key hex
// panel in its conventional layout.
var keyMap = map[ebiten.Key]byte{
	ebiten.KeyDigit1: 0x1, ebiten.KeyDigit2: 0x2, ebiten.KeyDigit3: 0x3, ebiten.KeyDigit4: 0xC,
	ebiten.KeyQ: 0x4, ebiten.KeyW: 0x5, ebiten.KeyE: 0x6, ebiten.KeyR: 0xD,
	ebiten.KeyA: 0x7, ebiten.KeyS: 0x8, ebiten.KeyD: 0x9, ebiten.KeyF: 0xE,
	ebiten.KeyZ: 0xA, ebiten.KeyX: 0x0, ebiten.KeyC: 0xB, ebiten.KeyV: 0xF,
}

type App struct {
	cfg    Config
	m      *emu.Machine
	tex    *ebiten.Image
	beep   *beeper
	paused bool
	fault  error
}

func NewApp(cfg Config, m *emu.Machine) *App {
	cfg.Defaults()
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(chip8.DisplayWidth*cfg.Scale, chip8.DisplayHeight*cfg.Scale)
	a := &App{cfg: cfg, m: m}
	if !cfg.Mute {
		a.beep = newBeeper()
	}
	return a
}

func (a *App) Run() error { return ebiten.RunGame(a) }

func (a *App) Update() error {
	// Keyboard → hex panel
	for k, pad := range keyMap {
		if inpututil.IsKeyJustPressed(k) {
			a.m.KeyDown(pad)
		}
		if inpututil.IsKeyJustReleased(k) {
			a.m.KeyUp(pad)
		}
	}

	// Pause toggle (Space)
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		a.paused = !a.paused
	}

	// Reset (F1): also clears a fault
	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		if err := a.m.Reset(); err != nil {
			log.Printf("reset: %v", err)
		} else {
			a.fault = nil
		}
	}

	// Screenshot (F12)
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		if err := a.saveScreenshot(); err != nil {
			log.Printf("screenshot: %v", err)
		}
	}

	if !a.paused && a.fault == nil {
		if err := a.m.StepFrame(); err != nil {
			// Keep the window alive so the last frame stays visible.
			a.fault = err
			log.Printf("core fault: %v", err)
		}
	}

	if a.beep != nil {
		a.beep.SetActive(a.m.Beeping() && !a.paused && a.fault == nil)
	}
	return nil
}

func (a *App) Draw(screen *ebiten.Image) {
	if a.tex == nil {
		a.tex = ebiten.NewImage(chip8.DisplayWidth, chip8.DisplayHeight)
	}
	a.tex.WritePixels(a.m.Framebuffer())
	screen.DrawImage(a.tex, nil)

	if a.fault != nil {
		ebitenutil.DebugPrintAt(screen, "FAULT: "+a.fault.Error(), 1, 1)
	} else if a.paused {
		ebitenutil.DebugPrintAt(screen, "PAUSED", 1, 1)
	}
}

func (a *App) Layout(outW, outH int) (int, int) {
	return chip8.DisplayWidth, chip8.DisplayHeight
}

func (a *App) saveScreenshot() error {
	fb := a.m.Framebuffer()
	img := &image.RGBA{
		Pix:    make([]byte, len(fb)),
		Stride: 4 * chip8.DisplayWidth,
		Rect:   image.Rect(0, 0, chip8.DisplayWidth, chip8.DisplayHeight),
	}
	copy(img.Pix, fb)
	ts := time.Now().Format("20060102_150405")
	name := fmt.Sprintf("screenshot_%s.png", ts)
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
