package media

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeIdentity(t *testing.T) {
	// Values on the int16 grid survive a round trip exactly.
	raw := []int16{0, 1, -1, 1000, -1000, 8192, -8192, 32767, -32768}
	channel := make([]float64, len(raw))
	for i, v := range raw {
		channel[i] = float64(v) / 32768
	}

	frame, err := EncodeFrame([][]float64{channel, channel}, 16000)
	require.NoError(t, err)
	assert.Equal(t, 16000, frame.SampleRate)
	assert.Equal(t, 2, frame.Channels)
	assert.Len(t, frame.PCM, len(raw)*2*2)

	decoded, err := DecodeFrame(frame)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.Equal(t, channel, decoded[0])
	assert.Equal(t, channel, decoded[1])
}

func TestDecodeFrameInterleaving(t *testing.T) {
	// Two channels, two frames: interleaved order is ch0, ch1, ch0, ch1.
	samples := []int16{100, 200, 300, 400}
	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
	}

	decoded, err := DecodeFrame(Frame{SampleRate: 8000, Channels: 2, PCM: pcm})
	require.NoError(t, err)
	assert.Equal(t, []float64{100.0 / 32768, 300.0 / 32768}, decoded[0])
	assert.Equal(t, []float64{200.0 / 32768, 400.0 / 32768}, decoded[1])
}

func TestDecodeFrameValidation(t *testing.T) {
	_, err := DecodeFrame(Frame{Channels: 0, PCM: []byte{0, 0}})
	assert.Error(t, err)

	_, err = DecodeFrame(Frame{Channels: 1, PCM: []byte{0, 0, 0}})
	assert.Error(t, err)
}

func TestDecodeFrameTruncatesPartialFrame(t *testing.T) {
	// Three int16 samples across two channels: the trailing sample that
	// cannot fill a whole frame is dropped.
	pcm := make([]byte, 6)
	decoded, err := DecodeFrame(Frame{SampleRate: 8000, Channels: 2, PCM: pcm})
	require.NoError(t, err)
	assert.Len(t, decoded[0], 1)
	assert.Len(t, decoded[1], 1)
}

func TestEncodeFrameClamps(t *testing.T) {
	frame, err := EncodeFrame([][]float64{{2.0, -2.0}}, 8000)
	require.NoError(t, err)

	decoded, err := DecodeFrame(frame)
	require.NoError(t, err)
	assert.Equal(t, 32767.0/32768, decoded[0][0])
	assert.Equal(t, -1.0, decoded[0][1])
}

func TestEncodeFrameChannelMismatch(t *testing.T) {
	_, err := EncodeFrame([][]float64{{0, 0}, {0}}, 8000)
	assert.Error(t, err)

	_, err = EncodeFrame(nil, 8000)
	assert.Error(t, err)
}

func TestFrameWAV(t *testing.T) {
	frame := Frame{SampleRate: 24000, Channels: 1, PCM: []byte{1, 2, 3, 4}}
	wav := frame.WAV()
	require.Len(t, wav, 48)

	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, uint32(40), binary.LittleEndian.Uint32(wav[4:]))
	assert.Equal(t, "WAVE", string(wav[8:12]))
	assert.Equal(t, "fmt ", string(wav[12:16]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[20:]), "pcm format code")
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[22:]), "channel count")
	assert.Equal(t, uint32(24000), binary.LittleEndian.Uint32(wav[24:]), "sample rate")
	assert.Equal(t, uint32(48000), binary.LittleEndian.Uint32(wav[28:]), "byte rate")
	assert.Equal(t, uint16(2), binary.LittleEndian.Uint16(wav[32:]), "block align")
	assert.Equal(t, uint16(16), binary.LittleEndian.Uint16(wav[34:]), "bits per sample")
	assert.Equal(t, "data", string(wav[36:40]))
	assert.Equal(t, uint32(4), binary.LittleEndian.Uint32(wav[40:]))
	assert.Equal(t, []byte{1, 2, 3, 4}, wav[44:])
}
