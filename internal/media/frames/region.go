package frames

import (
	"fmt"
	"image"
	"image/draw"
	"math"
	"strconv"
	"strings"

	"hardsub/internal/services"
)

// Region is a horizontal band of the frame given as fractions of its height,
// measured from the top edge. Bottom is the first row ratio and Top the end
// ratio; 0 <= Bottom < Top <= 1.
type Region struct {
	Bottom float64 `toml:"bottom"`
	Top    float64 `toml:"top"`
}

// Validate rejects malformed bounds. Values are never clamped.
func (r Region) Validate() error {
	switch {
	case math.IsNaN(r.Bottom) || math.IsNaN(r.Top):
		return services.Wrap(services.ErrInvalidRegion, "region", "validate", "bounds must be numbers", nil)
	case r.Bottom < 0 || r.Bottom > 1 || r.Top < 0 || r.Top > 1:
		return services.Wrap(services.ErrInvalidRegion, "region", "validate",
			fmt.Sprintf("bounds %s must lie within [0,1]", r), nil)
	case r.Bottom >= r.Top:
		return services.Wrap(services.ErrInvalidRegion, "region", "validate",
			fmt.Sprintf("bottom %g must be below top %g", r.Bottom, r.Top), nil)
	}
	return nil
}

func (r Region) String() string {
	return strconv.FormatFloat(r.Bottom, 'g', -1, 64) + "," + strconv.FormatFloat(r.Top, 'g', -1, 64)
}

// ParseRegion parses "bottom,top", e.g. "0.8,0.95", and validates it.
func ParseRegion(value string) (Region, error) {
	b, t, ok := strings.Cut(strings.TrimSpace(value), ",")
	if !ok {
		return Region{}, services.Wrap(services.ErrInvalidRegion, "region", "parse",
			fmt.Sprintf("expected bottom,top but got %q", value), nil)
	}
	bottom, err := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if err != nil {
		return Region{}, services.Wrap(services.ErrInvalidRegion, "region", "parse", "bottom", err)
	}
	top, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
	if err != nil {
		return Region{}, services.Wrap(services.ErrInvalidRegion, "region", "parse", "top", err)
	}
	r := Region{Bottom: bottom, Top: top}
	if err := r.Validate(); err != nil {
		return Region{}, err
	}
	return r, nil
}

// Rows returns the half-open row range [round(H*Bottom), round(H*Top)) for a
// frame of the given height.
func (r Region) Rows(height int) (int, int) {
	y0 := int(math.Round(float64(height) * r.Bottom))
	y1 := int(math.Round(float64(height) * r.Top))
	return y0, y1
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// Crop returns the band of img covered by r at full width.
func (r Region) Crop(img image.Image) image.Image {
	bounds := img.Bounds()
	y0, y1 := r.Rows(bounds.Dy())
	rect := image.Rect(bounds.Min.X, bounds.Min.Y+y0, bounds.Max.X, bounds.Min.Y+y1)
	if sub, ok := img.(subImager); ok {
		return sub.SubImage(rect)
	}
	out := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(out, out.Bounds(), img, rect.Min, draw.Src)
	return out
}
