package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/resample"
	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
)

// decodeAIFF reads an AIFF file and renders it as interleaved stereo
// signed 16-bit little endian PCM at outRate.
func decodeAIFF(path string, outRate int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	defer f.Close()

	d := aiff.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("%w: %s is not a valid AIFF file", ErrLoad, path)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode %s: %w", ErrLoad, path, err)
	}
	data, err := encodePCM(buf, outRate)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, path, err)
	}
	return data, nil
}

// encodePCM converts a decoded integer buffer to the output format.
// Mono input is duplicated to both channels; extra channels beyond two
// are dropped.
func encodePCM(buf *goaudio.IntBuffer, outRate int) ([]byte, error) {
	if buf == nil || buf.Format == nil {
		return nil, fmt.Errorf("missing audio format")
	}
	channels := buf.Format.NumChannels
	inRate := buf.Format.SampleRate
	depth := buf.SourceBitDepth
	if channels <= 0 {
		return nil, fmt.Errorf("invalid channel count %d", channels)
	}
	if inRate <= 0 || outRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d -> %d", inRate, outRate)
	}
	if depth <= 0 || depth > 32 {
		return nil, fmt.Errorf("unsupported bit depth %d", depth)
	}
	frames := len(buf.Data) / channels
	if frames == 0 {
		return nil, fmt.Errorf("sample has no audio frames")
	}

	// Deinterleave into normalized float channels.
	scale := float64(int64(1) << (depth - 1))
	planes := make([][]float64, min(channels, ChannelCount))
	for ch := range planes {
		planes[ch] = make([]float64, frames)
		for i := 0; i < frames; i++ {
			planes[ch][i] = float64(buf.Data[i*channels+ch]) / scale
		}
	}

	if inRate != outRate {
		for ch, plane := range planes {
			r, err := resample.NewForRates(float64(inRate), float64(outRate), resample.WithQuality(resample.QualityBalanced))
			if err != nil {
				return nil, fmt.Errorf("failed to create resampler: %w", err)
			}
			planes[ch] = r.Process(plane)
		}
	}

	left := planes[0]
	right := left
	if len(planes) > 1 {
		right = planes[1]
	}
	n := min(len(left), len(right))

	data := make([]int16, n*ChannelCount)
	for i := 0; i < n; i++ {
		data[i*ChannelCount] = int16(core.Clamp(left[i], -1, 1) * 32767)
		data[i*ChannelCount+1] = int16(core.Clamp(right[i], -1, 1) * 32767)
	}

	out := new(bytes.Buffer)
	if err := binary.Write(out, binary.LittleEndian, data); err != nil {
		return nil, fmt.Errorf("failed to write audio data to buffer: %w", err)
	}
	return out.Bytes(), nil
}
