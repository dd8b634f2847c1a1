package plugin

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/tphakala/simd/f32"
)

// Source produces planar float32 audio. Read fills up to len(dst[ch])
// frames per channel and returns the frame count; io.EOF ends the stream.
type Source interface {
	Read(dst [][]float32) (int, error)
}

// StreamReader renders a Source through a Processor into interleaved
// little-endian float32 stereo, the format of ebiten's float32 players.
// A mono processor feeds both output channels.
type StreamReader struct {
	mu sync.Mutex

	source    Source
	processor Processor
	channels  int
	block     int

	planar      [][]float32
	views       [][]float32
	interleaved []float32
	done        bool
}

// NewStreamReader returns a reader pulling at most block frames per
// processing call. channels is the processor's bus width (1 or 2).
func NewStreamReader(source Source, processor Processor, channels, block int) (*StreamReader, error) {
	if channels < 1 || channels > 2 {
		return nil, fmt.Errorf("plugin: stream channels must be 1 or 2: %d", channels)
	}

	if block <= 0 {
		return nil, fmt.Errorf("plugin: stream block size must be positive: %d", block)
	}

	planar := make([][]float32, 2)
	for ch := range planar {
		planar[ch] = make([]float32, block)
	}

	return &StreamReader{
		source:      source,
		processor:   processor,
		channels:    channels,
		block:       block,
		planar:      planar,
		views:       make([][]float32, 2),
		interleaved: make([]float32, 2*block),
	}, nil
}

// Read implements io.Reader.
func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done {
		return 0, io.EOF
	}

	const frameBytes = 8

	written := 0
	for len(p)-written >= frameBytes {
		frames := min((len(p)-written)/frameBytes, r.block)

		n, err := r.fill(frames)
		if n > 0 {
			written += r.encode(p[written:], n)
		}

		if err != nil {
			r.done = true
			if written == 0 {
				return 0, err
			}

			return written, nil
		}

		if n == 0 {
			break
		}
	}

	return written, nil
}

// fill reads and processes up to frames frames into r.planar.
func (r *StreamReader) fill(frames int) (int, error) {
	view := r.views
	view[0] = r.planar[0][:frames]
	view[1] = r.planar[1][:frames]

	n, err := r.source.Read(view[:r.channels])
	if n <= 0 {
		if err == nil {
			err = io.ErrNoProgress
		}

		return 0, err
	}

	for ch := range r.channels {
		view[ch] = view[ch][:n]
	}

	r.processor.ProcessBlock(view[:r.channels])

	if r.channels == 1 {
		copy(r.planar[1][:n], r.planar[0][:n])
	}

	return n, err
}

func (r *StreamReader) encode(p []byte, n int) int {
	out := r.interleaved[:2*n]
	f32.Interleave2(out, r.planar[0][:n], r.planar[1][:n])

	for i, v := range out {
		binary.LittleEndian.PutUint32(p[4*i:], math.Float32bits(v))
	}

	return 8 * n
}

// Close implements io.Closer.
func (r *StreamReader) Close() error { return nil }

var (
	contextOnce  sync.Once
	audioContext *ebitaudio.Context
	contextRate  int
)

// sharedContext returns the process-wide ebiten audio context. ebiten allows
// exactly one context, so every player must use the same sample rate.
func sharedContext(sampleRate int) (*ebitaudio.Context, error) {
	contextOnce.Do(func() {
		contextRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})

	if contextRate != sampleRate {
		return nil, fmt.Errorf("plugin: audio context running at %d Hz, requested %d Hz", contextRate, sampleRate)
	}

	return audioContext, nil
}

// Player streams a Source through a Processor to the default audio device.
type Player struct {
	player *ebitaudio.Player
	reader *StreamReader
}

// NewPlayer prepares the stream at sampleRate. The processor must already
// be prepared for block frames.
func NewPlayer(sampleRate, block int, source Source, processor Processor, channels int) (*Player, error) {
	ctx, err := sharedContext(sampleRate)
	if err != nil {
		return nil, err
	}

	reader, err := NewStreamReader(source, processor, channels, block)
	if err != nil {
		return nil, err
	}

	pl, err := ctx.NewPlayerF32(reader)
	if err != nil {
		return nil, fmt.Errorf("plugin: create player: %w", err)
	}

	pl.SetBufferSize(time.Duration(float64(4*block) / float64(sampleRate) * float64(time.Second)))

	return &Player{player: pl, reader: reader}, nil
}

func (p *Player) Play()           { p.player.Play() }
func (p *Player) Pause()          { p.player.Pause() }
func (p *Player) IsPlaying() bool { return p.player.IsPlaying() }

// Position returns the playback position.
func (p *Player) Position() time.Duration { return p.player.Position() }

// Close stops playback and releases the device stream.
func (p *Player) Close() error {
	p.player.Pause()

	if err := p.player.Close(); err != nil {
		return fmt.Errorf("plugin: close player: %w", err)
	}

	return p.reader.Close()
}

// LoopSource plays a planar buffer repeatedly. Loops <= 0 repeats forever.
type LoopSource struct {
	data  [][]float32
	pos   int
	loops int
	done  int
}

// NewLoopSource returns a source over data, which must have equal-length
// channels.
func NewLoopSource(data [][]float32, loops int) *LoopSource {
	return &LoopSource{data: data, loops: loops}
}

// Read implements Source.
func (s *LoopSource) Read(dst [][]float32) (int, error) {
	if len(s.data) == 0 || len(s.data[0]) == 0 {
		return 0, io.EOF
	}

	length := len(s.data[0])
	want := len(dst[0])
	n := 0

	for n < want {
		if s.loops > 0 && s.done >= s.loops {
			break
		}

		c := min(want-n, length-s.pos)
		for ch := range dst {
			src := s.data[min(ch, len(s.data)-1)]
			copy(dst[ch][n:n+c], src[s.pos:s.pos+c])
		}

		n += c
		s.pos += c

		if s.pos == length {
			s.pos = 0
			s.done++
		}
	}

	if n < want {
		return n, io.EOF
	}

	return n, nil
}
