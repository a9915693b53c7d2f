// Package audio decodes synthesized speech and plays it back.
//
// Speech arrives as raw little-endian signed 16-bit PCM, mono, 24 kHz. It is
// decoded into a Buffer of normalized float32 samples. Playback goes through a
// single process-wide Context that is created lazily on first use and renders
// buffers to WAV files for an external player.
package audio
