package audio

import (
	"encoding/binary"
	"fmt"
)

// Synthesis backends return raw signed 16-bit little-endian mono PCM with no
// container. EncodeWAV wraps those bytes in a canonical RIFF/WAVE file so the
// result is playable as-is.

const (
	// DefaultSampleRate matches the PCM stream produced by the built-in
	// speech backend.
	DefaultSampleRate = 24000
	// DefaultChannels is mono.
	DefaultChannels = 1

	bitsPerSample = 16
	headerSize    = 44
	fmtChunkSize  = 16
	pcmFormatTag  = 1
)

// EncodeWAV prepends a 44-byte canonical WAV header to pcm. The PCM bytes are
// copied unmodified; no resampling or padding happens. Output is
// deterministic for a given input.
func EncodeWAV(pcm []byte, sampleRate, channels int) []byte {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if channels <= 0 {
		channels = DefaultChannels
	}

	bytesPerSample := bitsPerSample / 8
	byteRate := sampleRate * channels * bytesPerSample
	blockAlign := channels * bytesPerSample

	out := make([]byte, headerSize+len(pcm))
	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+len(pcm)))
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], fmtChunkSize)
	binary.LittleEndian.PutUint16(out[20:22], pcmFormatTag)
	binary.LittleEndian.PutUint16(out[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:36], bitsPerSample)
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(len(pcm)))
	copy(out[headerSize:], pcm)
	return out
}

// Header holds the fields of a decoded canonical WAV header.
type Header struct {
	RIFFSize      uint32
	Format        uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	DataSize      uint32
}

// DecodeHeader parses the fixed 44-byte header produced by EncodeWAV. It
// rejects anything that is not a canonical PCM WAV file.
func DecodeHeader(data []byte) (Header, error) {
	if len(data) < headerSize {
		return Header{}, fmt.Errorf("wav: %d bytes is shorter than the %d byte header", len(data), headerSize)
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return Header{}, fmt.Errorf("wav: missing RIFF/WAVE magic")
	}
	if string(data[12:16]) != "fmt " {
		return Header{}, fmt.Errorf("wav: missing fmt chunk")
	}
	if string(data[36:40]) != "data" {
		return Header{}, fmt.Errorf("wav: missing data chunk")
	}
	h := Header{
		RIFFSize:      binary.LittleEndian.Uint32(data[4:8]),
		Format:        binary.LittleEndian.Uint16(data[20:22]),
		Channels:      binary.LittleEndian.Uint16(data[22:24]),
		SampleRate:    binary.LittleEndian.Uint32(data[24:28]),
		ByteRate:      binary.LittleEndian.Uint32(data[28:32]),
		BlockAlign:    binary.LittleEndian.Uint16(data[32:34]),
		BitsPerSample: binary.LittleEndian.Uint16(data[34:36]),
		DataSize:      binary.LittleEndian.Uint32(data[40:44]),
	}
	if h.Format != pcmFormatTag {
		return h, fmt.Errorf("wav: format tag %d is not PCM", h.Format)
	}
	return h, nil
}
