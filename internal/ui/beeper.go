package ui

import (
	"encoding/binary"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"
)

const (
	sampleRate = 48000
	beepHz     = 440
	beepVolume = 6000 // int16 amplitude
)

// beeper renders the machine's boolean sound signal as a square wave. The
// core only exposes a level (sound timer > 0); the wave, frequency and
// volume are host choices.
type beeper struct {
	player *audio.Player
	active bool
}

func newBeeper() *beeper {
	b := &beeper{}
	ctx := audio.CurrentContext()
	if ctx == nil {
		ctx = audio.NewContext(sampleRate)
	}
	p, err := ctx.NewPlayer(&beepStream{active: &b.active})
	if err != nil {
		return nil
	}
	p.SetBufferSize(40 * time.Millisecond)
	p.Play()
	b.player = p
	return b
}

// SetActive gates the square wave on or off.
func (b *beeper) SetActive(on bool) { b.active = on }

// beepStream implements io.Reader producing 16-bit little-endian stereo
// frames: a square wave while active, silence otherwise. It never returns
// io.EOF; the player pulls from it for the lifetime of the app.
type beepStream struct {
	active *bool
	phase  int
}

func (s *beepStream) Read(p []byte) (int, error) {
	const period = sampleRate / beepHz
	// If the buffer is smaller than one stereo frame, fill with silence to
	// avoid returning 0 bytes.
	if len(p) < 4 {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}
	n := len(p) &^ 3 // whole stereo frames only
	for i := 0; i < n; i += 4 {
		var v int16
		if s.active != nil && *s.active {
			if s.phase < period/2 {
				v = beepVolume
			} else {
				v = -beepVolume
			}
		}
		s.phase = (s.phase + 1) % period
		binary.LittleEndian.PutUint16(p[i:], uint16(v))
		binary.LittleEndian.PutUint16(p[i+2:], uint16(v))
	}
	return n, nil
}
