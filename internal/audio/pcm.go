package audio

import (
	"encoding/binary"
	"fmt"
	"time"
)

const (
	// SampleRate of synthesized speech in Hz
	SampleRate = 24000
	// Channels of synthesized speech
	Channels = 1
)

// Buffer holds decoded audio with interleaved samples in [-1, 1]
type Buffer struct {
	SampleRate int
	Channels   int
	Samples    []float32
}

// Frames returns the number of sample frames
func (b *Buffer) Frames() int {
	if b.Channels <= 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// Duration returns the playback length
func (b *Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.SampleRate)
}

// DecodePCM16 converts little-endian signed 16-bit PCM into a buffer
func DecodePCM16(data []byte, sampleRate, channels int) (*Buffer, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("no audio data")
	}
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("truncated PCM data: %d bytes", len(data))
	}
	if sampleRate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("invalid audio format: %d Hz, %d channels", sampleRate, channels)
	}

	samples := make([]float32, len(data)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(data[i*2:]))
		samples[i] = float32(v) / 32768.0
	}

	return &Buffer{SampleRate: sampleRate, Channels: channels, Samples: samples}, nil
}

// DecodeSpeech decodes raw speech bytes in the fixed synthesis format
func DecodeSpeech(data []byte) (*Buffer, error) {
	return DecodePCM16(data, SampleRate, Channels)
}
