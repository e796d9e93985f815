package cue

import (
	"log/slog"
	"sync"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/zurustar/computron/pkg/engine"
	"github.com/zurustar/computron/pkg/logger"
)

// Option configures a Player.
type Option func(*Player)

// WithLogger sets a custom logger.
func WithLogger(log *slog.Logger) Option {
	return func(p *Player) {
		p.log = log
	}
}

// WithMuted starts the player muted.
func WithMuted(muted bool) Option {
	return func(p *Player) {
		p.muted = muted
	}
}

// Player plays cues through an Ebitengine audio context.
// It implements engine.Listener so it can be attached to a session directly.
type Player struct {
	audioCtx *audio.Context
	renderer *Renderer
	cache    map[Kind][]byte
	players  []*audio.Player
	muted    bool
	log      *slog.Logger
	mu       sync.Mutex
}

// NewPlayer creates a cue player. audioCtx may be nil, in which case a
// context is created at SampleRate.
func NewPlayer(audioCtx *audio.Context, renderer *Renderer, opts ...Option) *Player {
	if audioCtx == nil {
		audioCtx = audio.CurrentContext()
	}
	if audioCtx == nil {
		audioCtx = audio.NewContext(SampleRate)
	}
	p := &Player{
		audioCtx: audioCtx,
		renderer: renderer,
		cache:    make(map[Kind][]byte),
		log:      logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Applied plays the cue for an engine event.
func (p *Player) Applied(ev engine.Event) {
	if k, ok := KindOf(ev); ok {
		p.Play(k)
	}
}

// Play starts the cue without waiting for it to finish.
func (p *Player) Play(k Kind) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.muted {
		return
	}
	p.cleanupFinishedPlayers()

	pcm, ok := p.cache[k]
	if !ok {
		pcm = p.renderer.Render(k)
		p.cache[k] = pcm
	}
	if len(pcm) == 0 {
		return
	}

	player := p.audioCtx.NewPlayerFromBytes(pcm)
	player.Play()
	p.players = append(p.players, player)
	p.log.Debug("Cue played", "cue", k)
}

// SetMuted mutes or unmutes the player. Muting stops cues already playing.
func (p *Player) SetMuted(muted bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.muted = muted
	if muted {
		for _, player := range p.players {
			player.Pause()
		}
		p.players = nil
	}
}

// IsMuted reports whether the player is muted.
func (p *Player) IsMuted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.muted
}

func (p *Player) cleanupFinishedPlayers() {
	active := p.players[:0]
	for _, player := range p.players {
		if player.IsPlaying() {
			active = append(active, player)
		} else {
			player.Close()
		}
	}
	p.players = active
}
