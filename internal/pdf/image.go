package pdf

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"strings"

	// Register decoders for image.DecodeConfig and imaging.Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

const (
	defaultJPEGQuality = 90
	defaultMaxPixels   = 100 * 1000 * 1000 // 100 megapixels
)

// preparedImage is image data ready to be embedded by fpdf.
type preparedImage struct {
	Data      []byte
	Type      string // fpdf image type: "jpg", "png" or "gif"
	Width     int
	Height    int
	Reencoded bool
}

// imagePreparer turns page image files into data fpdf can embed.
// JPEG, non-interlaced PNG and GIF files within MaxWidth pass through
// untouched; other formats and oversized images are decoded and re-encoded.
type imagePreparer struct {
	MaxWidth    int // 0 disables downsampling
	JPEGQuality int
	MaxPixels   int
}

func newImagePreparer(opts Options) *imagePreparer {
	quality := opts.JPEGQuality
	if quality <= 0 {
		quality = defaultJPEGQuality
	}
	if quality > 100 {
		quality = 100
	}
	maxWidth := opts.MaxImageWidth
	if maxWidth < 0 {
		maxWidth = 0
	}
	return &imagePreparer{
		MaxWidth:    maxWidth,
		JPEGQuality: quality,
		MaxPixels:   defaultMaxPixels,
	}
}

func (p *imagePreparer) Prepare(path string) (preparedImage, error) {
	input, err := os.ReadFile(path)
	if err != nil {
		return preparedImage{}, err
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(input))
	if err != nil {
		return preparedImage{}, fmt.Errorf("image decode failed: %w", err)
	}

	out := preparedImage{Data: input, Width: cfg.Width, Height: cfg.Height}
	embeddable := embeddableType(format)
	if embeddable == "png" && pngInterlaced(input) {
		// fpdf cannot embed Adam7 data.
		embeddable = ""
	}
	needsResize := p.MaxWidth > 0 && cfg.Width > p.MaxWidth
	if embeddable != "" && !needsResize {
		out.Type = embeddable
		return out, nil
	}

	pixels := uint64(cfg.Width) * uint64(cfg.Height)
	if p.MaxPixels > 0 && pixels > uint64(p.MaxPixels) {
		return preparedImage{}, fmt.Errorf("image too large to decode: %dx%d (%d pixels)", cfg.Width, cfg.Height, pixels)
	}

	src, err := imaging.Decode(bytes.NewReader(input))
	if err != nil {
		return preparedImage{}, fmt.Errorf("image decode failed: %w", err)
	}

	processed := src
	if needsResize {
		processed = imaging.Resize(src, p.MaxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if hasAlpha(processed) {
		err = imaging.Encode(&buf, processed, imaging.PNG)
		out.Type = "png"
	} else {
		err = imaging.Encode(&buf, processed, imaging.JPEG, imaging.JPEGQuality(p.JPEGQuality))
		out.Type = "jpg"
	}
	if err != nil {
		return preparedImage{}, fmt.Errorf("%s encode failed: %w", out.Type, err)
	}

	out.Data = buf.Bytes()
	out.Width = processed.Bounds().Dx()
	out.Height = processed.Bounds().Dy()
	out.Reencoded = true
	return out, nil
}

// embeddableType maps an image.DecodeConfig format name to the fpdf image
// type, or "" when fpdf cannot embed the format directly.
func embeddableType(format string) string {
	switch strings.ToLower(format) {
	case "jpeg", "jpg":
		return "jpg"
	case "png":
		return "png"
	case "gif":
		return "gif"
	default:
		return ""
	}
}

// pngInterlaced reports whether the IHDR chunk of a PNG file declares
// Adam7 interlacing. The interlace method is the last IHDR byte, at offset
// 28 from the start of the file.
func pngInterlaced(data []byte) bool {
	const interlaceOffset = 28
	if len(data) <= interlaceOffset || string(data[12:16]) != "IHDR" {
		return false
	}
	return data[interlaceOffset] != 0
}

func hasAlpha(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			_, _, _, a := img.At(x, y).RGBA()
			if a < 0xFFFF {
				return true
			}
		}
	}
	return false
}
