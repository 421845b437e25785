package imageproc

import (
	"bytes"
	"image"
	"image/jpeg"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/png"

	"github.com/apex/log"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"meal-analyze-service/datauri"
	"meal-analyze-service/faults"
)

// Options are the normalization tunables. Exact thresholds are deployment
// configuration, not contract; DefaultOptions matches the shipped defaults.
type Options struct {
	MaxEdge         int     // longest output edge in pixels
	ByteBudget      int     // target encoded size in bytes
	QualityStart    float64 // initial JPEG quality, 0..1
	QualityStep     float64 // quality decrement per re-encode
	QualityFloor    float64 // do not encode below this quality
	HighResPixels   int     // pixel count above which the scale cap applies
	HighResScaleCap float64 // maximum scale for very large inputs
	MaxUploadBytes  int64   // reject inputs larger than this before decoding
}

// DefaultOptions returns the shipped normalization defaults.
func DefaultOptions() Options {
	return Options{
		MaxEdge:         1024,
		ByteBudget:      200 * 1024,
		QualityStart:    0.7,
		QualityStep:     0.1,
		QualityFloor:    0.15,
		HighResPixels:   5_000_000,
		HighResScaleCap: 0.4,
		MaxUploadBytes:  100 * 1024 * 1024,
	}
}

// Result is the normalized image plus diagnostics about how it was produced.
type Result struct {
	DataURI string
	Width   int
	Height  int
	Quality int // final JPEG quality, 0..100
	Bytes   int
	AtFloor bool // true when the byte budget was not met at the quality floor
}

// IsHEIC reports whether the payload is declared as HEIC/HEIF, by media type
// or file extension. Detection is deliberately not content-based: the HEIC
// container needs a dedicated decode path before generic decoding is even
// attempted.
func IsHEIC(mediaType, filename string) bool {
	switch strings.ToLower(mediaType) {
	case "image/heic", "image/heif", "image/heic-sequence", "image/heif-sequence":
		return true
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".heic", ".heif":
		return true
	}
	return false
}

// Normalize converts an arbitrary input image into a JPEG data URI whose
// longest edge is within opts.MaxEdge and whose encoded size is within
// opts.ByteBudget, best effort at the quality floor.
func Normalize(data []byte, mediaType, filename string, opts Options) (*Result, error) {
	if len(data) == 0 {
		return nil, faults.New(faults.ImageLoad, "empty image payload")
	}
	if opts.MaxUploadBytes > 0 && int64(len(data)) > opts.MaxUploadBytes {
		return nil, faults.New(faults.ImageLoad, "image payload of %d bytes exceeds the %d byte ceiling", len(data), opts.MaxUploadBytes)
	}

	var img image.Image
	if IsHEIC(mediaType, filename) {
		decoded, err := decodeHEIC(data)
		if err != nil {
			return nil, faults.Wrap(faults.FormatUnsupported, err, "HEIC conversion failed")
		}
		img = decoded
	} else {
		orientation := orientationOf(data)
		decoded, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, faults.Wrap(faults.ImageLoad, err, "failed to decode image")
		}
		if orientation != 1 {
			decoded = correctOrientation(decoded, orientation)
		}
		img = decoded
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return nil, faults.New(faults.ImageLoad, "image has zero dimensions")
	}

	scale := 1.0
	longEdge := width
	if height > longEdge {
		longEdge = height
	}
	if longEdge > opts.MaxEdge {
		scale = float64(opts.MaxEdge) / float64(longEdge)
	}
	// Very large sensors get an extra reduction regardless of aspect ratio,
	// to bound memory and encode time.
	if opts.HighResPixels > 0 && width*height > opts.HighResPixels && scale > opts.HighResScaleCap {
		scale = opts.HighResScaleCap
	}

	if scale < 1.0 {
		newWidth := int(float64(width) * scale)
		newHeight := int(float64(height) * scale)
		if newWidth < 1 {
			newWidth = 1
		}
		if newHeight < 1 {
			newHeight = 1
		}
		scaled := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Over, nil)
		img = scaled
		width, height = newWidth, newHeight
	}

	encoded, quality, atFloor, err := encodeWithinBudget(img, opts)
	if err != nil {
		return nil, faults.Wrap(faults.ImageLoad, err, "failed to encode image")
	}

	log.Infof("Image normalized: %d bytes -> %d bytes (quality: %d, scale: %.2f, output: %dx%d)",
		len(data), len(encoded), quality, scale, width, height)

	return &Result{
		DataURI: datauri.Encode("image/jpeg", encoded),
		Width:   width,
		Height:  height,
		Quality: quality,
		Bytes:   len(encoded),
		AtFloor: atFloor,
	}, nil
}

// encodeWithinBudget encodes img as JPEG, walking quality down in fixed steps
// until the byte budget is met or the floor is reached. Exceeding the budget
// at the floor is not an error.
func encodeWithinBudget(img image.Image, opts Options) (data []byte, quality int, atFloor bool, err error) {
	q := opts.QualityStart
	for {
		var buf bytes.Buffer
		quality = int(q * 100)
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, 0, false, err
		}
		data = buf.Bytes()
		if len(data) <= opts.ByteBudget {
			return data, quality, false, nil
		}
		next := q - opts.QualityStep
		if next < opts.QualityFloor || opts.QualityStep <= 0 {
			if q <= opts.QualityFloor {
				return data, quality, true, nil
			}
			q = opts.QualityFloor
			continue
		}
		q = next
	}
}
