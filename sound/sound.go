// Package sound loads the sample played for the alert instruction.
package sound

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
)

var ErrUnsupported = errors.New("unsupported sample format")

// Sample is mono PCM data scaled to [-1, 1].
type Sample struct {
	Rate int
	Data []float32
}

func (s Sample) Duration() time.Duration {
	if s.Rate == 0 {
		return 0
	}
	return time.Duration(len(s.Data)) * time.Second / time.Duration(s.Rate)
}

// Trim shortens the sample to at most d.
func (s Sample) Trim(d time.Duration) Sample {
	n := int(d * time.Duration(s.Rate) / time.Second)
	if n < len(s.Data) {
		s.Data = s.Data[:n]
	}
	return s
}

// Load reads a .wav or .mp3 file. Only the first channel is kept.
func Load(path string) (Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return Sample{}, err
	}
	defer f.Close()

	var s Sample
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		s, err = DecodeWAV(f)
	case ".mp3":
		s, err = DecodeMP3(f)
	default:
		return Sample{}, fmt.Errorf("%s: %w", path, ErrUnsupported)
	}
	if err != nil {
		return Sample{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// LoadClip loads a sample and cuts it to at most length.
func LoadClip(path string, length time.Duration) (Sample, error) {
	s, err := Load(path)
	if err != nil {
		return Sample{}, err
	}
	return s.Trim(length), nil
}

func DecodeWAV(r io.ReadSeeker) (Sample, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return Sample{}, errors.New("wav: not a valid wav file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Sample{}, fmt.Errorf("wav: %w", err)
	}

	chans := max(int(dec.NumChans), 1)
	full := int(1) << (dec.BitDepth - 1)

	// 8 bit PCM is unsigned, centred on 128
	bias := 0
	if dec.BitDepth == 8 {
		bias = full
	}

	s := Sample{
		Rate: int(dec.SampleRate),
		Data: make([]float32, 0, len(buf.Data)/chans),
	}
	for i := 0; i < len(buf.Data); i += chans {
		s.Data = append(s.Data, float32(buf.Data[i]-bias)/float32(full))
	}
	return s, nil
}

// DecodeMP3 keeps the left channel. The decoder always produces 16 bit
// little endian stereo, four bytes per frame.
func DecodeMP3(r io.Reader) (Sample, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return Sample{}, fmt.Errorf("mp3: %w", err)
	}

	s := Sample{Rate: dec.SampleRate()}

	chunk := make([]byte, 4096)
	for {
		n, err := io.ReadFull(dec, chunk)
		s.Data = appendLeft(s.Data, chunk[:n])
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return Sample{}, fmt.Errorf("mp3: %w", err)
		}
	}
	return s, nil
}

// appendLeft appends the left channel of 16 bit little endian stereo
// frames to dst.
func appendLeft(dst []float32, frames []byte) []float32 {
	for i := 0; i+1 < len(frames); i += 4 {
		v := int16(uint16(frames[i]) | uint16(frames[i+1])<<8)
		dst = append(dst, float32(v)/32768)
	}
	return dst
}
