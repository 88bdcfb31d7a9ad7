package audio

import (
	"bytes"
	"testing"
)

func TestEncodeHeaderRoundTrip(t *testing.T) {
	lengths := []int{0, 1, 2, 44, 1024, 48001}
	rates := []int{8000, 16000, 22050, 24000, 44100}

	for _, l := range lengths {
		for _, rate := range rates {
			pcm := make([]byte, l)
			for i := range pcm {
				pcm[i] = byte(i)
			}
			wav := EncodeWAV(pcm, rate, 1)
			if len(wav) != 44+l {
				t.Fatalf("len=%d rate=%d: wav size %d, want %d", l, rate, len(wav), 44+l)
			}
			h, err := DecodeHeader(wav)
			if err != nil {
				t.Fatalf("len=%d rate=%d: decode: %v", l, rate, err)
			}
			if h.RIFFSize != uint32(36+l) {
				t.Fatalf("riff size %d, want %d", h.RIFFSize, 36+l)
			}
			if h.DataSize != uint32(l) {
				t.Fatalf("data size %d, want %d", h.DataSize, l)
			}
			if h.SampleRate != uint32(rate) {
				t.Fatalf("sample rate %d, want %d", h.SampleRate, rate)
			}
			if h.Channels != 1 || h.BitsPerSample != 16 {
				t.Fatalf("unexpected format: %+v", h)
			}
			if h.ByteRate != uint32(rate*2) || h.BlockAlign != 2 {
				t.Fatalf("derived fields wrong: %+v", h)
			}
			if !bytes.Equal(wav[44:], pcm) {
				t.Fatalf("pcm bytes were modified")
			}
		}
	}
}

func TestEncodeDeterministic(t *testing.T) {
	pcm := []byte{1, 2, 3, 4, 5, 6}
	a := EncodeWAV(pcm, 24000, 1)
	b := EncodeWAV(pcm, 24000, 1)
	if !bytes.Equal(a, b) {
		t.Fatal("same input produced different wav bytes")
	}
}

func TestEncodeDefaults(t *testing.T) {
	wav := EncodeWAV([]byte{0, 0}, 0, 0)
	h, err := DecodeHeader(wav)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if h.SampleRate != DefaultSampleRate {
		t.Fatalf("sample rate %d, want %d", h.SampleRate, DefaultSampleRate)
	}
	if h.Channels != DefaultChannels {
		t.Fatalf("channels %d, want %d", h.Channels, DefaultChannels)
	}
}

func TestDecodeHeaderRejectsGarbage(t *testing.T) {
	if _, err := DecodeHeader([]byte("too short")); err == nil {
		t.Fatal("expected error for truncated input")
	}
	junk := make([]byte, 44)
	if _, err := DecodeHeader(junk); err == nil {
		t.Fatal("expected error for missing magic")
	}
}
