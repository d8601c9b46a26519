package media

import (
	"encoding/binary"
	"fmt"
)

// Frame is a block of interleaved little-endian 16-bit PCM audio.
type Frame struct {
	SampleRate int
	Channels   int
	PCM        []byte
}

// WAV wraps the frame in a RIFF/WAVE container so any desktop player can
// open it. The header is the fixed 44-byte PCM layout.
func (f Frame) WAV() []byte {
	channels := f.Channels
	if channels <= 0 {
		channels = 1
	}
	blockAlign := channels * 2
	out := make([]byte, 44+len(f.PCM))

	copy(out[0:], "RIFF")
	binary.LittleEndian.PutUint32(out[4:], uint32(36+len(f.PCM)))
	copy(out[8:], "WAVE")
	copy(out[12:], "fmt ")
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 1)
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(f.SampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(f.SampleRate*blockAlign))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], 16)
	copy(out[36:], "data")
	binary.LittleEndian.PutUint32(out[40:], uint32(len(f.PCM)))
	copy(out[44:], f.PCM)
	return out
}

// DecodeFrame de-interleaves f into per-channel sample slices normalized to
// [-1, 1). Sample i of channel c is read from interleaved position
// i*channels+c. The codec trusts its input: arbitrary bytes decode into
// garbage samples rather than an error, so callers that accept untrusted
// audio must validate it upstream.
func DecodeFrame(f Frame) ([][]float64, error) {
	if f.Channels <= 0 {
		return nil, fmt.Errorf("invalid channel count %d", f.Channels)
	}
	if len(f.PCM)%2 != 0 {
		return nil, fmt.Errorf("pcm payload has odd length %d", len(f.PCM))
	}

	frames := (len(f.PCM) / 2) / f.Channels
	out := make([][]float64, f.Channels)
	for c := range out {
		out[c] = make([]float64, frames)
	}
	for i := 0; i < frames; i++ {
		for c := 0; c < f.Channels; c++ {
			off := (i*f.Channels + c) * 2
			s := int16(binary.LittleEndian.Uint16(f.PCM[off:]))
			out[c][i] = float64(s) / 32768
		}
	}
	return out, nil
}

// EncodeFrame interleaves per-channel normalized samples back into a PCM16
// frame. All channels must have equal length. Samples outside [-1, 1] are
// clamped to the int16 range instead of wrapping.
func EncodeFrame(channels [][]float64, sampleRate int) (Frame, error) {
	if len(channels) == 0 {
		return Frame{}, fmt.Errorf("no channels to encode")
	}
	frames := len(channels[0])
	for c, ch := range channels {
		if len(ch) != frames {
			return Frame{}, fmt.Errorf("channel %d has %d samples, want %d", c, len(ch), frames)
		}
	}

	pcm := make([]byte, frames*len(channels)*2)
	for i := 0; i < frames; i++ {
		for c := range channels {
			v := channels[c][i] * 32768
			if v > 32767 {
				v = 32767
			} else if v < -32768 {
				v = -32768
			}
			off := (i*len(channels) + c) * 2
			binary.LittleEndian.PutUint16(pcm[off:], uint16(int16(v)))
		}
	}
	return Frame{SampleRate: sampleRate, Channels: len(channels), PCM: pcm}, nil
}
