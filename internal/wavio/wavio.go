// Package wavio reads and writes PCM WAV files as planar float64 audio in
// [-1, 1].
package wavio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/tphakala/simd/f64"
)

const (
	bitsPerSample16 = 16
	bitsPerSample24 = 24
	bitsPerSample32 = 32

	maxInt16 = 32767.0
	maxInt24 = 8388607.0
	maxInt32 = 2147483647.0

	wavFormatPCM = 1
)

var (
	// ErrInvalidFile indicates input that is not a readable WAV file.
	ErrInvalidFile = errors.New("wavio: invalid WAV file")
	// ErrUnsupportedBitDepth indicates a bit depth other than 16, 24 or 32.
	ErrUnsupportedBitDepth = errors.New("wavio: unsupported bit depth")
	// ErrChannelMismatch indicates channels of different lengths.
	ErrChannelMismatch = errors.New("wavio: channel length mismatch")
)

// Audio is planar PCM audio.
type Audio struct {
	SampleRate int
	BitDepth   int
	Channels   [][]float64
}

// Frames returns the number of samples per channel.
func (a *Audio) Frames() int {
	if len(a.Channels) == 0 {
		return 0
	}

	return len(a.Channels[0])
}

func fullScale(bitDepth int) (float64, error) {
	switch bitDepth {
	case bitsPerSample16:
		return maxInt16, nil
	case bitsPerSample24:
		return maxInt24, nil
	case bitsPerSample32:
		return maxInt32, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}
}

// Read decodes a complete WAV stream.
func Read(r io.ReadSeeker) (*Audio, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrInvalidFile
	}

	bitDepth := int(dec.BitDepth)

	scale, err := fullScale(bitDepth)
	if err != nil {
		return nil, err
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wavio: decode: %w", err)
	}

	channels := int(dec.NumChans)
	if channels <= 0 {
		return nil, fmt.Errorf("%w: %d channels", ErrInvalidFile, channels)
	}

	frames := len(buf.Data) / channels
	out := &Audio{
		SampleRate: int(dec.SampleRate),
		BitDepth:   bitDepth,
		Channels:   make([][]float64, channels),
	}

	for ch := range out.Channels {
		x := make([]float64, frames)
		for i := range x {
			x[i] = float64(buf.Data[i*channels+ch])
		}

		f64.Scale(x, x, 1/scale)
		out.Channels[ch] = x
	}

	return out, nil
}

// ReadFile decodes the WAV file at path.
func ReadFile(path string) (*Audio, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("wavio: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Read(f)
}

// Interleave returns the frames of channels interleaved and scaled by
// gain. Stereo uses the SIMD interleaver.
func Interleave(channels [][]float64, gain float64) ([]float64, error) {
	if len(channels) == 0 {
		return nil, nil
	}

	frames := len(channels[0])
	for _, x := range channels[1:] {
		if len(x) != frames {
			return nil, ErrChannelMismatch
		}
	}

	n := len(channels)
	out := make([]float64, frames*n)

	switch n {
	case 1:
		copy(out, channels[0])
	case 2:
		f64.Interleave2(out, channels[0], channels[1])
	default:
		for i := range frames {
			for ch, x := range channels {
				out[i*n+ch] = x[i]
			}
		}
	}

	if gain != 1 {
		f64.Scale(out, out, gain)
	}

	return out, nil
}

// Write encodes a as PCM at a.BitDepth (16 if unset). Samples outside
// [-1, 1] are clipped.
func Write(w io.WriteSeeker, a *Audio) error {
	bitDepth := a.BitDepth
	if bitDepth == 0 {
		bitDepth = bitsPerSample16
	}

	scale, err := fullScale(bitDepth)
	if err != nil {
		return err
	}

	if len(a.Channels) == 0 || a.SampleRate <= 0 {
		return fmt.Errorf("%w: %d channels at %d Hz", ErrInvalidFile, len(a.Channels), a.SampleRate)
	}

	inter, err := Interleave(a.Channels, scale)
	if err != nil {
		return err
	}

	data := make([]int, len(inter))
	for i, v := range inter {
		data[i] = int(min(max(v, -scale), scale))
	}

	enc := wav.NewEncoder(w, a.SampleRate, bitDepth, len(a.Channels), wavFormatPCM)

	buf := &audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{NumChannels: len(a.Channels), SampleRate: a.SampleRate},
		SourceBitDepth: bitDepth,
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("wavio: encode: %w", err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("wavio: finalize: %w", err)
	}

	return nil
}

// WriteFile encodes a to a new file at path.
func WriteFile(path string, a *Audio) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("wavio: %w", err)
	}

	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()

	return Write(f, a)
}
