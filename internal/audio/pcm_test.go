package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pcmBytes(values ...int16) []byte {
	buf := make([]byte, len(values)*2)
	for i, v := range values {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(v))
	}
	return buf
}

func TestDecodePCM16(t *testing.T) {
	tests := []struct {
		name  string
		input []int16
		want  []float32
	}{
		{"silence", []int16{0, 0}, []float32{0, 0}},
		{"full scale negative", []int16{math.MinInt16}, []float32{-1}},
		{"full scale positive", []int16{math.MaxInt16}, []float32{32767.0 / 32768.0}},
		{"half", []int16{16384, -16384}, []float32{0.5, -0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := DecodeSpeech(pcmBytes(tt.input...))
			require.NoError(t, err)
			assert.Equal(t, 24000, buf.SampleRate)
			assert.Equal(t, 1, buf.Channels)
			assert.Equal(t, tt.want, buf.Samples)
			for _, s := range buf.Samples {
				assert.GreaterOrEqual(t, s, float32(-1))
				assert.LessOrEqual(t, s, float32(1))
			}
		})
	}
}

func TestDecodePCM16Errors(t *testing.T) {
	_, err := DecodeSpeech(nil)
	assert.Error(t, err, "empty data")

	_, err = DecodeSpeech([]byte{1, 2, 3})
	assert.Error(t, err, "odd length data")

	_, err = DecodePCM16([]byte{0, 0}, 0, 1)
	assert.Error(t, err, "zero sample rate")
}

func TestBufferDuration(t *testing.T) {
	buf := &Buffer{SampleRate: 24000, Channels: 1, Samples: make([]float32, 12000)}
	assert.Equal(t, 500*time.Millisecond, buf.Duration())
	assert.Equal(t, time.Duration(0), (&Buffer{}).Duration())
}

func TestWriteWAV(t *testing.T) {
	src := pcmBytes(0, 1000, -1000, math.MaxInt16, math.MinInt16)
	buf, err := DecodeSpeech(src)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, buf.WriteWAV(&out))

	data := out.Bytes()
	require.Len(t, data, 44+len(src))
	assert.Equal(t, "RIFF", string(data[0:4]))
	assert.Equal(t, "WAVE", string(data[8:12]))
	assert.Equal(t, "data", string(data[36:40]))
	assert.Equal(t, uint32(24000), binary.LittleEndian.Uint32(data[24:28]))
	assert.Equal(t, src, data[44:], "PCM payload must round-trip through WAV")
}

func TestCache(t *testing.T) {
	c := NewCache(2)
	a := &Buffer{SampleRate: 1, Channels: 1, Samples: []float32{0.1}}
	b := &Buffer{SampleRate: 1, Channels: 1, Samples: []float32{0.2}}

	c.Put("hola", "Charon", a)
	got, ok := c.Get("hola", "Charon")
	require.True(t, ok)
	assert.Same(t, a, got)

	_, ok = c.Get("hola", "Puck")
	assert.False(t, ok, "voice must be part of the key")

	c.Put("adios", "Charon", b)
	c.Put("gracias", "Charon", b)
	assert.Equal(t, 2, c.Len())

	_, ok = c.Get("hola", "Charon")
	assert.False(t, ok, "oldest entry should have been evicted")
}

func TestSharedContextIsSingleton(t *testing.T) {
	first, err := Shared()
	require.NoError(t, err)
	opened := contextsOpened.Load()

	second, err := Shared()
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, opened, contextsOpened.Load(), "second Shared() call created a new context")
}

func TestContextPlay(t *testing.T) {
	pc, err := NewContext(t.TempDir())
	require.NoError(t, err)

	var played []string
	pc.command = func(file string) (*exec.Cmd, error) {
		assert.FileExists(t, file, "WAV file must exist before playback")
		played = append(played, file)
		// Re-run the test binary without tests as a stand-in player
		return exec.Command(os.Args[0], "-test.run=^$"), nil
	}

	buf := &Buffer{SampleRate: SampleRate, Channels: Channels, Samples: []float32{0, 0.5, -0.5}}
	require.NoError(t, pc.Play(t.Context(), buf))
	require.NoError(t, pc.Play(t.Context(), buf))
	require.Len(t, played, 2)
	assert.NotEqual(t, played[0], played[1])

	assert.Error(t, pc.Play(t.Context(), &Buffer{}), "empty buffer")

	pc.Stop()
	assert.NoError(t, pc.Close())
}
