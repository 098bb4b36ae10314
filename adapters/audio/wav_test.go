package audio

import (
	"bytes"
	"testing"

	"github.com/go-audio/wav"
)

func TestEncodeWAV(t *testing.T) {
	pcm := make([]byte, 3200) // 100ms of 16kHz mono PCM16
	for i := 0; i < len(pcm); i += 2 {
		pcm[i] = byte(i % 251)
	}

	data, err := EncodeWAV(pcm)
	if err != nil {
		t.Fatalf("EncodeWAV() error = %v", err)
	}
	if !bytes.HasPrefix(data, []byte("RIFF")) {
		t.Error("output does not start with RIFF header")
	}

	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		t.Fatal("output is not a valid wav file")
	}
	dec.ReadInfo()
	if dec.SampleRate != 16000 {
		t.Errorf("SampleRate = %d, want 16000", dec.SampleRate)
	}
	if dec.NumChans != 1 {
		t.Errorf("NumChans = %d, want 1", dec.NumChans)
	}
	if dec.BitDepth != 16 {
		t.Errorf("BitDepth = %d, want 16", dec.BitDepth)
	}
}

func TestEncodeWAVOddLength(t *testing.T) {
	if _, err := EncodeWAV(make([]byte, 3)); err == nil {
		t.Error("EncodeWAV() with odd-length input should fail")
	}
}
