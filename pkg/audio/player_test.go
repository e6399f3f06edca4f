package audio

import (
	"sync"
	"testing"
	"time"
)

type collectSink struct {
	mu      sync.Mutex
	samples []float32
}

func (c *collectSink) WriteSamples(samples []float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.samples = append(c.samples, samples...)
	return nil
}

func (c *collectSink) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.samples)
}

type blockSink struct {
	release chan struct{}
}

func (b *blockSink) WriteSamples([]float32) error {
	<-b.release
	return nil
}

func monoBuffer(frames int) *Buffer {
	raw := make([]byte, frames*2)
	for i := range raw {
		raw[i] = byte(i)
	}
	return DecodePCM16(raw, 1, DefaultSampleRate)
}

func waitDone(t *testing.T, h *Handle) {
	t.Helper()
	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("playback did not finish")
	}
}

func TestPlayWritesAllFramesAtUnitSpeed(t *testing.T) {
	sink := &collectSink{}
	player := NewPlayer(sink)
	h := player.Play(monoBuffer(5000), 1.0)
	waitDone(t, h)
	if got := sink.count(); got != 5000 {
		t.Fatalf("expected 5000 samples written, got %d", got)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	sink := &blockSink{release: make(chan struct{})}
	player := NewPlayer(sink)
	h := player.Play(monoBuffer(chunkFrames*4), 1.0)
	h.Stop()
	h.Stop()
	close(sink.release)
	waitDone(t, h)
	// Stop after natural end must also be safe.
	h.Stop()
}

func TestPlaySupersedesActiveHandle(t *testing.T) {
	sink := &collectSink{}
	player := NewPlayer(sink)
	first := player.Play(monoBuffer(chunkFrames*100), 1.0)
	second := player.Play(monoBuffer(100), 1.0)
	waitDone(t, first)
	waitDone(t, second)
	if player.Active() != second {
		t.Fatalf("expected the newest handle to be active")
	}
	select {
	case <-first.stop:
	default:
		t.Fatalf("expected previous playback to be stopped")
	}
}

func TestSetSpeedClampsToSupportedRange(t *testing.T) {
	h := newHandle(10.0)
	if got := h.Speed(); got != MaxSpeed {
		t.Fatalf("expected clamp to %f, got %f", MaxSpeed, got)
	}
	h.SetSpeed(0.1)
	if got := h.Speed(); got != MinSpeed {
		t.Fatalf("expected clamp to %f, got %f", MinSpeed, got)
	}
	h.SetSpeed(1.5)
	if got := h.Speed(); got != 1.5 {
		t.Fatalf("expected 1.5, got %f", got)
	}
}

func TestFasterSpeedEmitsFewerSamples(t *testing.T) {
	slow := &collectSink{}
	fast := &collectSink{}
	hSlow := NewPlayer(slow).Play(monoBuffer(chunkFrames*2), 1.0)
	hFast := NewPlayer(fast).Play(monoBuffer(chunkFrames*2), 2.0)
	waitDone(t, hSlow)
	waitDone(t, hFast)
	if fast.count() >= slow.count() {
		t.Fatalf("expected 2x speed to emit fewer samples: fast=%d slow=%d", fast.count(), slow.count())
	}
}

func TestEmptyBufferFinishesImmediately(t *testing.T) {
	sink := &collectSink{}
	h := NewPlayer(sink).Play(DecodePCM16(nil, 1, DefaultSampleRate), 1.0)
	waitDone(t, h)
	if sink.count() != 0 {
		t.Fatalf("expected no samples for empty buffer, got %d", sink.count())
	}
}
