package audio

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"time"
)

// DefaultSampleRate is the rate the TTS provider emits.
const DefaultSampleRate = 24000

// Buffer holds decoded audio as per-channel float32 samples in [-1, 1].
type Buffer struct {
	SampleRate int
	channels   [][]float32
}

// Channels returns the channel count.
func (b *Buffer) Channels() int {
	return len(b.channels)
}

// Frames returns the number of frames per channel.
func (b *Buffer) Frames() int {
	if len(b.channels) == 0 {
		return 0
	}
	return len(b.channels[0])
}

// Channel returns the sample data for channel c.
func (b *Buffer) Channel(c int) []float32 {
	return b.channels[c]
}

// Duration returns the playback length at the buffer's sample rate.
func (b *Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.SampleRate)
}

// DecodePCM16Base64 decodes a base64-encoded raw little-endian 16-bit PCM
// stream into a playable buffer.
func DecodePCM16Base64(encoded string, channels, sampleRate int) (*Buffer, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode base64 audio: %w", err)
	}
	return DecodePCM16(raw, channels, sampleRate), nil
}

// DecodePCM16 reinterprets raw bytes as interleaved little-endian int16
// samples, de-interleaves them per channel, and normalizes each sample to
// [-1, 1] by dividing by 32768. A zero-length payload yields a zero-frame
// buffer. An odd trailing byte is ignored.
func DecodePCM16(raw []byte, channels, sampleRate int) *Buffer {
	if channels <= 0 {
		channels = 1
	}
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	samples := len(raw) / 2
	frames := samples / channels
	out := make([][]float32, channels)
	for c := range out {
		out[c] = make([]float32, frames)
	}
	for i := 0; i < frames*channels; i++ {
		v := int16(binary.LittleEndian.Uint16(raw[i*2:]))
		out[i%channels][i/channels] = float32(v) / 32768.0
	}
	return &Buffer{SampleRate: sampleRate, channels: out}
}
