package media

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exifJPEG builds a minimal JPEG whose APP1 segment carries a little-endian
// TIFF block: IFD0 with camera model, orientation, and capture time, plus an
// optional GPS sub-IFD. Offsets are computed from the field lengths and
// checked against the buffer as it grows.
func exifJPEG(t *testing.T, withGPS bool) []byte {
	t.Helper()

	const (
		model = "Pixel 9 Pro\x00"
		taken = "2026:05:17 09:30:00\x00"
	)

	entries := 3
	if withGPS {
		entries = 4
	}
	ifd0End := 8 + 2 + 12*entries + 4
	modelOff := ifd0End
	takenOff := modelOff + len(model)
	gpsOff := takenOff + len(taken)
	latOff := gpsOff + 2 + 12*4 + 4
	longOff := latOff + 24

	var tiff bytes.Buffer
	write := func(vs ...any) {
		for _, v := range vs {
			require.NoError(t, binary.Write(&tiff, binary.LittleEndian, v))
		}
	}
	entry := func(tag, typ uint16, count, value uint32) {
		write(tag, typ, count, value)
	}
	rational := func(num, den uint32) {
		write(num, den)
	}

	tiff.WriteString("II")
	write(uint16(0x2A), uint32(8))

	// IFD0: Model, Orientation, DateTime, optionally the GPS pointer.
	// Values wider than four bytes live past the directory, at the offsets
	// computed above.
	write(uint16(entries))
	entry(0x0110, 2, uint32(len(model)), uint32(modelOff))
	entry(0x0112, 3, 1, 6)
	entry(0x0132, 2, uint32(len(taken)), uint32(takenOff))
	if withGPS {
		entry(0x8825, 4, 1, uint32(gpsOff))
	}
	write(uint32(0))

	require.Equal(t, modelOff, tiff.Len())
	tiff.WriteString(model)
	tiff.WriteString(taken)

	if withGPS {
		// GPS sub-IFD: refs inline, coordinates as rational triples of
		// degrees, minutes, seconds.
		require.Equal(t, gpsOff, tiff.Len())
		write(uint16(4))
		entry(0x0001, 2, 2, uint32('N'))
		entry(0x0002, 5, 3, uint32(latOff))
		entry(0x0003, 2, 2, uint32('E'))
		entry(0x0004, 5, 3, uint32(longOff))
		write(uint32(0))

		require.Equal(t, latOff, tiff.Len())
		rational(41, 1)
		rational(1, 1)
		rational(30, 1)
		rational(29, 1)
		rational(0, 1)
		rational(0, 1)
	}

	var jpg bytes.Buffer
	jpg.Write([]byte{0xFF, 0xD8, 0xFF, 0xE1})
	appLen := 2 + 6 + tiff.Len()
	jpg.Write([]byte{byte(appLen >> 8), byte(appLen)})
	jpg.WriteString("Exif\x00\x00")
	jpg.Write(tiff.Bytes())
	jpg.Write([]byte{0xFF, 0xD9})
	return jpg.Bytes()
}

func TestExtractImageMetaReadsTags(t *testing.T) {
	meta, err := ExtractImageMeta(bytes.NewReader(exifJPEG(t, true)))
	require.NoError(t, err)

	assert.Equal(t, "Pixel 9 Pro", meta.Camera)
	assert.Equal(t, 6, meta.Orientation)

	want := time.Date(2026, time.May, 17, 9, 30, 0, 0, time.Local)
	assert.True(t, want.Equal(meta.Taken), "taken = %v", meta.Taken)

	require.True(t, meta.HasGPS)
	assert.InDelta(t, 41.025, meta.Lat, 1e-6)
	assert.InDelta(t, 29.0, meta.Long, 1e-6)
}

func TestExtractImageMetaWithoutGPS(t *testing.T) {
	meta, err := ExtractImageMeta(bytes.NewReader(exifJPEG(t, false)))
	require.NoError(t, err)

	assert.False(t, meta.HasGPS)
	assert.Zero(t, meta.Lat)
	assert.Zero(t, meta.Long)
	assert.Equal(t, "Pixel 9 Pro", meta.Camera)
	assert.Equal(t, 6, meta.Orientation)
}

func TestExtractImageMetaRejectsNonImage(t *testing.T) {
	_, err := ExtractImageMeta(bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
}

func TestExtractImageMetaRejectsJPEGWithoutExif(t *testing.T) {
	// Bare SOI/EOI markers carry no APP1 segment.
	_, err := ExtractImageMeta(bytes.NewReader([]byte{0xFF, 0xD8, 0xFF, 0xD9}))
	assert.Error(t, err)
}

func TestImageMetaSummary(t *testing.T) {
	full := &ImageMeta{
		Taken:  time.Date(2026, time.May, 17, 9, 30, 0, 0, time.Local),
		Camera: "Pixel 9 Pro",
		Lat:    41.025,
		Long:   29.0,
		HasGPS: true,
	}
	assert.Equal(t, "Pixel 9 Pro, 2026-05-17 09:30, GPS 41.0250, 29.0000", full.Summary())

	assert.Equal(t, "", (&ImageMeta{}).Summary())
	assert.Equal(t, "Pixel 9 Pro", (&ImageMeta{Camera: "Pixel 9 Pro"}).Summary())
}
