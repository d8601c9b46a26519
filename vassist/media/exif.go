package media

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// ImageMeta is the subset of EXIF data surfaced when a photo is attached to
// a prompt. Fields are best effort; absent tags leave their zero value.
type ImageMeta struct {
	Taken       time.Time
	Camera      string
	Orientation int
	Lat         float64
	Long        float64
	HasGPS      bool
}

// ExtractImageMeta reads EXIF metadata from a JPEG or TIFF stream. It fails
// only when no EXIF block is present at all; individual missing tags are
// tolerated.
func ExtractImageMeta(r io.Reader) (*ImageMeta, error) {
	x, err := exif.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode exif data: %w", err)
	}

	meta := &ImageMeta{}
	if tm, err := x.DateTime(); err == nil {
		meta.Taken = tm
	}
	if tag, err := x.Get(exif.Model); err == nil {
		if model, err := tag.StringVal(); err == nil {
			meta.Camera = model
		}
	}
	if tag, err := x.Get(exif.Orientation); err == nil {
		if v, err := tag.Int(0); err == nil {
			meta.Orientation = v
		}
	}
	if lat, long, err := x.LatLong(); err == nil {
		meta.Lat = lat
		meta.Long = long
		meta.HasGPS = true
	}
	return meta, nil
}

// Summary renders the extracted fields as one display line, skipping absent
// ones. An empty meta renders as "".
func (m *ImageMeta) Summary() string {
	var parts []string
	if m.Camera != "" {
		parts = append(parts, m.Camera)
	}
	if !m.Taken.IsZero() {
		parts = append(parts, m.Taken.Format("2006-01-02 15:04"))
	}
	if m.HasGPS {
		parts = append(parts, fmt.Sprintf("GPS %.4f, %.4f", m.Lat, m.Long))
	}
	return strings.Join(parts, ", ")
}
