// Package cue provides short audio cues for engine events.
// Cues are synthesized from a SoundFont using go-meltysynth and played
// through Ebitengine/audio.
package cue

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sinshu/go-meltysynth/meltysynth"
	"github.com/zurustar/computron/pkg/engine"
)

// SampleRate is the audio sample rate used for synthesis.
const SampleRate = 44100

// ErrNoSoundFont is returned when cue synthesis is requested without a SoundFont.
var ErrNoSoundFont = errors.New("SoundFont is required for audio cues")

// Kind identifies a cue.
type Kind int

const (
	Move Kind = iota
	Copy
	Clear
	Jump
	Completed
	Failed
	Stopped
)

func (k Kind) String() string {
	switch k {
	case Move:
		return "move"
	case Copy:
		return "copy"
	case Clear:
		return "clear"
	case Jump:
		return "jump"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// note is the MIDI note a cue plays on channel 0.
type note struct {
	key      int32
	velocity int32
	length   time.Duration
}

var notes = map[Kind]note{
	Move:      {key: 72, velocity: 90, length: 80 * time.Millisecond},
	Copy:      {key: 76, velocity: 80, length: 80 * time.Millisecond},
	Clear:     {key: 60, velocity: 90, length: 120 * time.Millisecond},
	Jump:      {key: 79, velocity: 70, length: 60 * time.Millisecond},
	Completed: {key: 84, velocity: 110, length: 400 * time.Millisecond},
	Failed:    {key: 48, velocity: 110, length: 400 * time.Millisecond},
	Stopped:   {key: 55, velocity: 90, length: 200 * time.Millisecond},
}

// release is rendered after NoteOff so the tail is not cut.
const release = 150 * time.Millisecond

// KindOf maps an engine event to its cue.
func KindOf(ev engine.Event) (Kind, bool) {
	switch ev.Kind {
	case engine.EventValueMoved:
		return Move, true
	case engine.EventValueCopied:
		return Copy, true
	case engine.EventCleared:
		return Clear, true
	case engine.EventJumped:
		return Jump, true
	case engine.EventHalted:
		switch ev.State.Reason {
		case engine.ReasonCompleted:
			return Completed, true
		case engine.ReasonError:
			return Failed, true
		case engine.ReasonStopped:
			return Stopped, true
		}
	}
	return 0, false
}

// LoadSoundFont parses SoundFont (.sf2) data.
func LoadSoundFont(data []byte) (*meltysynth.SoundFont, error) {
	if len(data) == 0 {
		return nil, ErrNoSoundFont
	}
	sf, err := meltysynth.NewSoundFont(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse SoundFont: %w", err)
	}
	return sf, nil
}

// Renderer synthesizes cues into 16-bit stereo PCM.
type Renderer struct {
	synth *meltysynth.Synthesizer
	mu    sync.Mutex
}

// NewRenderer creates a renderer for the SoundFont.
func NewRenderer(sf *meltysynth.SoundFont) (*Renderer, error) {
	if sf == nil {
		return nil, ErrNoSoundFont
	}
	settings := meltysynth.NewSynthesizerSettings(SampleRate)
	synth, err := meltysynth.NewSynthesizer(sf, settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create synthesizer: %w", err)
	}
	return &Renderer{synth: synth}, nil
}

// Render returns the PCM data for the cue.
func (r *Renderer) Render(k Kind) []byte {
	n, ok := notes[k]
	if !ok {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	on := samplesFor(n.length)
	off := samplesFor(release)
	left := make([]float32, on+off)
	right := make([]float32, on+off)

	r.synth.NoteOn(0, n.key, n.velocity)
	r.synth.Render(left[:on], right[:on])
	r.synth.NoteOff(0, n.key)
	r.synth.Render(left[on:], right[on:])
	r.synth.NoteOffAll(true)

	return encodePCM(left, right)
}

func samplesFor(d time.Duration) int {
	return int(d * SampleRate / time.Second)
}

// encodePCM converts float samples to int16 interleaved stereo.
func encodePCM(left, right []float32) []byte {
	out := make([]byte, len(left)*4)
	for i := range left {
		l := int16(clamp(left[i], -1, 1) * 32767)
		r := int16(clamp(right[i], -1, 1) * 32767)
		binary.LittleEndian.PutUint16(out[i*4:], uint16(l))
		binary.LittleEndian.PutUint16(out[i*4+2:], uint16(r))
	}
	return out
}

// clamp restricts a value to the range [lo, hi].
func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
