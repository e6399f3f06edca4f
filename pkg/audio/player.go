package audio

import (
	"math"
	"sync"
	"sync/atomic"
)

// Speed bounds match the playback controls exposed to the user.
const (
	MinSpeed = 0.5
	MaxSpeed = 2.5
)

// chunkFrames is how many frames are emitted per sink write (100ms at 24kHz).
const chunkFrames = 2400

// Sink receives interleaved float32 frames for output.
type Sink interface {
	WriteSamples(samples []float32) error
}

// Player starts playback of decoded buffers. At most one handle is live at
// a time: starting a new playback stops the previous one first.
type Player struct {
	sink Sink

	mu     sync.Mutex
	active *Handle
}

// NewPlayer wires a player to an output sink.
func NewPlayer(sink Sink) *Player {
	return &Player{sink: sink}
}

// Play stops any active playback, then starts streaming buf to the sink at
// the given speed multiplier. The returned handle is already running.
func (p *Player) Play(buf *Buffer, speed float64) *Handle {
	p.mu.Lock()
	prev := p.active
	h := newHandle(speed)
	p.active = h
	p.mu.Unlock()

	if prev != nil {
		prev.Stop()
	}
	go h.run(p.sink, buf)
	return h
}

// Active returns the current handle, or nil when nothing is playing.
func (p *Player) Active() *Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Handle controls one live playback.
type Handle struct {
	speedBits atomic.Uint64
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

func newHandle(speed float64) *Handle {
	h := &Handle{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	h.SetSpeed(speed)
	return h
}

// Stop halts playback. Safe to call more than once, and safe after playback
// has already ended.
func (h *Handle) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

// SetSpeed adjusts the playback rate in place without re-decoding or
// restarting. The multiplier is clamped to the supported range.
func (h *Handle) SetSpeed(speed float64) {
	if speed < MinSpeed {
		speed = MinSpeed
	}
	if speed > MaxSpeed {
		speed = MaxSpeed
	}
	h.speedBits.Store(math.Float64bits(speed))
}

// Speed returns the current playback rate multiplier.
func (h *Handle) Speed() float64 {
	return math.Float64frombits(h.speedBits.Load())
}

// Done is closed when playback finishes or is stopped.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// run streams buf to the sink in chunks. Speed is re-read per chunk, so a
// SetSpeed call takes effect on the next chunk boundary: higher multipliers
// advance the read position faster (frames are skipped), lower multipliers
// repeat frames.
func (h *Handle) run(sink Sink, buf *Buffer) {
	defer close(h.done)
	channels := buf.Channels()
	frames := buf.Frames()
	if channels == 0 || frames == 0 {
		return
	}
	pos := 0.0
	chunk := make([]float32, 0, chunkFrames*channels)
	for pos < float64(frames) {
		select {
		case <-h.stop:
			return
		default:
		}
		speed := h.Speed()
		chunk = chunk[:0]
		for n := 0; n < chunkFrames && pos < float64(frames); n++ {
			frame := int(pos)
			for c := 0; c < channels; c++ {
				chunk = append(chunk, buf.Channel(c)[frame])
			}
			pos += speed
		}
		if err := sink.WriteSamples(chunk); err != nil {
			return
		}
	}
}
