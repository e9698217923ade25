package chip8emu

import (
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"chip8emu/sound"

	"github.com/go-audio/audio"
	"github.com/go-audio/generator"
	"github.com/gordonklaus/portaudio"
	"golang.org/x/sync/errgroup"
)

const (
	bufferSize int = 512
	sampleRate int = 44100
)

// Alerter sounds the alert requested by FX18. Alert must not block.
type Alerter interface {
	Alert()
}

// Beep plays a short clip through the default output device. A clip that
// is still playing swallows further alerts.
type Beep struct {
	clip    sound.Sample
	logger  *slog.Logger
	g       errgroup.Group
	beeping atomic.Bool
}

// NewTone synthesizes a sine clip of the given pitch and length.
func NewTone(tone float64, length time.Duration) (sound.Sample, error) {
	buffer := &audio.FloatBuffer{
		Data:   make([]float64, int(length*time.Duration(sampleRate)/time.Second)),
		Format: &audio.Format{NumChannels: 1, SampleRate: sampleRate},
	}

	osc := generator.NewOsc(generator.WaveSine, tone, buffer.Format.SampleRate)
	osc.Amplitude = 1

	if err := osc.Fill(buffer); err != nil {
		return sound.Sample{}, err
	}

	out := make([]float32, len(buffer.Data))
	f64Tof32(out, buffer.Data)

	return sound.Sample{Rate: sampleRate, Data: out}, nil
}

// OpenBeep initializes the audio device. Close releases it.
func OpenBeep(clip sound.Sample, logger *slog.Logger) (*Beep, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	return &Beep{clip: clip, logger: logger}, nil
}

func (b *Beep) Alert() {
	if !b.beeping.CompareAndSwap(false, true) {
		return
	}

	b.g.Go(func() error {
		defer b.beeping.Store(false)

		if err := b.play(); err != nil {
			b.logger.Warn("alert playback failed", "err", err)
			return err
		}
		return nil
	})
}

func (b *Beep) play() error {
	out := make([]float32, bufferSize)

	stream, err := portaudio.OpenDefaultStream(0, 1, float64(b.clip.Rate), len(out), &out)
	if err != nil {
		return err
	}
	defer func() {
		_ = stream.Close()
	}()

	if err := stream.Start(); err != nil {
		return err
	}
	defer func() {
		_ = stream.Stop()
	}()

	for data := b.clip.Data; len(data) > 0; {
		n := copy(out, data)
		clear(out[n:])
		data = data[n:]

		if err := stream.Write(); err != nil {
			return err
		}
	}

	return nil
}

// Close waits for a playing clip and releases the audio device. It
// returns the first playback error, if any.
func (b *Beep) Close() error {
	err := b.g.Wait()
	if terr := portaudio.Terminate(); err == nil {
		err = terr
	}
	return err
}

// Bell rings the terminal bell.
type Bell struct {
	w io.Writer
}

func NewBell(w io.Writer) *Bell {
	return &Bell{w: w}
}

func (b *Bell) Alert() {
	_, _ = io.WriteString(b.w, "\a")
}

type silent struct{}

func (silent) Alert() {}

// Silent ignores alerts.
var Silent Alerter = silent{}

func f64Tof32(dst []float32, src []float64) {
	for i := range src {
		dst[i] = float32(src[i])
	}
}
