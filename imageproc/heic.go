package imageproc

import (
	"bytes"
	"fmt"
	"image"

	"github.com/jdeng/goheif"
)

// decodeHEIC decodes a HEIC/HEIF container into a raster image. Any failure
// here is reported to the caller as-is; there is no lower-fidelity fallback
// for this format.
func decodeHEIC(data []byte) (image.Image, error) {
	img, err := goheif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("heif decode: %w", err)
	}
	return img, nil
}
