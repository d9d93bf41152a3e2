package compressors

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/jpegli"
	"github.com/nfnt/resize"

	"agreements/internal/domain/entities"
)

// Image optimizer defaults
const (
	DefaultJPEGQuality    = 75
	DefaultImageMinSizeKB = 50
)

// Highest progression level of the encoder
const progressiveLevel = 2

// JPEGOptimizer re-encodes JPEG images as progressive JPEG with optimized
// Huffman tables at a lower quality. Re-encoding drops EXIF, ICC profiles
// and any alpha channel.
type JPEGOptimizer struct {
	Quality   int
	MinSizeKB int
	// Longest side in pixels after downscaling, 0 keeps the original size
	MaxDimension int
}

// NewJPEGOptimizer creates an optimizer with the default quality and size floor
func NewJPEGOptimizer() *JPEGOptimizer {
	return &JPEGOptimizer{
		Quality:   DefaultJPEGQuality,
		MinSizeKB: DefaultImageMinSizeKB,
	}
}

// Optimize returns the re-encoded image when it is strictly smaller than data
func (o *JPEGOptimizer) Optimize(data []byte) entities.OptimizerOutcome {
	if len(data) < o.MinSizeKB*1024 {
		return entities.Unchanged(data, entities.ErrBelowThreshold)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return entities.Unchanged(data, fmt.Errorf("%w: %v", entities.ErrDecode, err))
	}

	rgb := toOpaqueRGB(img)

	var final image.Image = rgb
	if o.MaxDimension > 0 {
		bounds := rgb.Bounds()
		if bounds.Dx() > o.MaxDimension || bounds.Dy() > o.MaxDimension {
			final = resize.Thumbnail(uint(o.MaxDimension), uint(o.MaxDimension), rgb, resize.Lanczos3)
		}
	}

	var buf bytes.Buffer
	if err := jpegli.Encode(&buf, final, &jpegli.EncodingOptions{
		Quality:           o.quality(),
		ChromaSubsampling: image.YCbCrSubsampleRatio420,
		ProgressiveLevel:  progressiveLevel,
		OptimizeCoding:    true,
	}); err != nil {
		return entities.Unchanged(data, fmt.Errorf("%w: encode jpeg: %v", entities.ErrDecode, err))
	}

	return entities.KeepSmaller(data, buf.Bytes())
}

func (o *JPEGOptimizer) quality() int {
	if o.Quality < 1 || o.Quality > 100 {
		return DefaultJPEGQuality
	}
	return o.Quality
}

// toOpaqueRGB copies img into an NRGBA image with every alpha set to 255,
// so the encoder sees plain three channel color.
func toOpaqueRGB(img image.Image) *image.NRGBA {
	bounds := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}
