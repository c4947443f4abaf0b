package audio

import (
	"encoding/binary"
	"errors"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
)

func TestEncodePCMMonoToStereo(t *testing.T) {
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: SampleRate},
		Data:           []int{0, 16384, -16384, 32767},
		SourceBitDepth: 16,
	}
	data, err := encodePCM(buf, SampleRate)
	if err != nil {
		t.Fatalf("encodePCM() = %v", err)
	}
	if got, want := len(data), 4*ChannelCount*BitDepthInBytes; got != want {
		t.Fatalf("len = %d, want %d", got, want)
	}
	for i, want := range []int16{0, 16383, -16383, 32766} {
		left := int16(binary.LittleEndian.Uint16(data[i*4:]))
		right := int16(binary.LittleEndian.Uint16(data[i*4+2:]))
		if left != right {
			t.Fatalf("frame %d: left %d != right %d", i, left, right)
		}
		if diff := int(left) - int(want); diff < -1 || diff > 1 {
			t.Fatalf("frame %d = %d, want %d", i, left, want)
		}
	}
}

func TestEncodePCMStereo24Bit(t *testing.T) {
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 2, SampleRate: SampleRate},
		Data:           []int{1 << 22, -(1 << 22)},
		SourceBitDepth: 24,
	}
	data, err := encodePCM(buf, SampleRate)
	if err != nil {
		t.Fatalf("encodePCM() = %v", err)
	}
	left := int16(binary.LittleEndian.Uint16(data[0:]))
	right := int16(binary.LittleEndian.Uint16(data[2:]))
	if left < 16382 || right > -16382 {
		t.Fatalf("frame = (%d, %d), want about (16383, -16383)", left, right)
	}
}

func TestEncodePCMResamples(t *testing.T) {
	in := make([]int, 44100)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: 44100},
		Data:           in,
		SourceBitDepth: 16,
	}
	data, err := encodePCM(buf, SampleRate)
	if err != nil {
		t.Fatalf("encodePCM() = %v", err)
	}
	frames := len(data) / (ChannelCount * BitDepthInBytes)
	if frames < 47000 || frames > 49000 {
		t.Fatalf("frames = %d, want about %d", frames, SampleRate)
	}
}

func TestEncodePCMRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		buf  *goaudio.IntBuffer
	}{
		{name: "nil", buf: nil},
		{name: "no format", buf: &goaudio.IntBuffer{Data: []int{1}}},
		{name: "no channels", buf: &goaudio.IntBuffer{Format: &goaudio.Format{SampleRate: 44100}, Data: []int{1}, SourceBitDepth: 16}},
		{name: "no frames", buf: &goaudio.IntBuffer{Format: &goaudio.Format{NumChannels: 1, SampleRate: 44100}, SourceBitDepth: 16}},
		{name: "bad depth", buf: &goaudio.IntBuffer{Format: &goaudio.Format{NumChannels: 1, SampleRate: 44100}, Data: []int{1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := encodePCM(tt.buf, SampleRate); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestDecodeAIFFMissingFile(t *testing.T) {
	_, err := decodeAIFF(filepath.Join(t.TempDir(), "Piano.ff.C4.aiff"), SampleRate)
	if !errors.Is(err, ErrLoad) {
		t.Fatalf("decodeAIFF() error = %v, want ErrLoad", err)
	}
}
