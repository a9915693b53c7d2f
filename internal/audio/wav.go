package audio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// WriteWAV writes the buffer as a 16-bit PCM WAV stream
func (b *Buffer) WriteWAV(w io.Writer) error {
	if b.SampleRate <= 0 || b.Channels <= 0 {
		return fmt.Errorf("invalid audio format: %d Hz, %d channels", b.SampleRate, b.Channels)
	}

	const bitsPerSample = 16
	dataSize := uint32(len(b.Samples) * 2)
	blockAlign := uint16(b.Channels * bitsPerSample / 8)
	byteRate := uint32(b.SampleRate) * uint32(blockAlign)

	bw := bufio.NewWriter(w)
	header := []any{
		[4]byte{'R', 'I', 'F', 'F'},
		36 + dataSize,
		[4]byte{'W', 'A', 'V', 'E'},
		[4]byte{'f', 'm', 't', ' '},
		uint32(16),
		uint16(1), // PCM
		uint16(b.Channels),
		uint32(b.SampleRate),
		byteRate,
		blockAlign,
		uint16(bitsPerSample),
		[4]byte{'d', 'a', 't', 'a'},
		dataSize,
	}
	for _, v := range header {
		if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("failed to write WAV header: %w", err)
		}
	}

	var sample [2]byte
	for _, s := range b.Samples {
		binary.LittleEndian.PutUint16(sample[:], uint16(toPCM16(s)))
		if _, err := bw.Write(sample[:]); err != nil {
			return fmt.Errorf("failed to write WAV data: %w", err)
		}
	}

	return bw.Flush()
}

func toPCM16(s float32) int16 {
	v := math.Round(float64(s) * 32768.0)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}
