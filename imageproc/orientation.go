package imageproc

import (
	"bytes"
	"image"

	"github.com/rwcarlsen/goexif/exif"
)

// orientationOf extracts the EXIF orientation tag, defaulting to 1 (upright)
// whenever EXIF data is missing or unreadable.
func orientationOf(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	value, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return value
}

// correctOrientation rewrites img so that pixels are stored upright,
// according to the EXIF orientation value (1..8).
func correctOrientation(img image.Image, orientation int) image.Image {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	// Each case maps a source pixel (x, y) to its upright destination.
	type mapper func(x, y int) (int, int)
	var m mapper
	swapped := false

	switch orientation {
	case 2: // flip horizontal
		m = func(x, y int) (int, int) { return w - 1 - x, y }
	case 3: // rotate 180
		m = func(x, y int) (int, int) { return w - 1 - x, h - 1 - y }
	case 4: // flip vertical
		m = func(x, y int) (int, int) { return x, h - 1 - y }
	case 5: // transpose
		m = func(x, y int) (int, int) { return y, x }
		swapped = true
	case 6: // rotate 90 clockwise
		m = func(x, y int) (int, int) { return h - 1 - y, x }
		swapped = true
	case 7: // transverse
		m = func(x, y int) (int, int) { return h - 1 - y, w - 1 - x }
		swapped = true
	case 8: // rotate 90 counter-clockwise
		m = func(x, y int) (int, int) { return y, w - 1 - x }
		swapped = true
	default:
		return img
	}

	var dst *image.RGBA
	if swapped {
		dst = image.NewRGBA(image.Rect(0, 0, h, w))
	} else {
		dst = image.NewRGBA(image.Rect(0, 0, w, h))
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := m(x, y)
			dst.Set(dx, dy, img.At(bounds.Min.X+x, bounds.Min.Y+y))
		}
	}
	return dst
}
