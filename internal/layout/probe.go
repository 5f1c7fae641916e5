package layout

import (
	"fmt"
	"image"
	"os"

	// Decoders for the page formats found in comic archives.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// Dimensions is the intrinsic pixel size of an image.
type Dimensions struct {
	Width  int
	Height int
	Format string
}

// DecodeError reports an image that cannot be used as a page.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("layout: decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Probe reads the image header at path and returns its dimensions.
// Only the header is decoded.
func Probe(path string) (Dimensions, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dimensions{}, &DecodeError{Path: path, Err: err}
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return Dimensions{}, &DecodeError{Path: path, Err: err}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Dimensions{}, &DecodeError{
			Path: path,
			Err:  fmt.Errorf("%w: %dx%d", ErrDegenerateImage, cfg.Width, cfg.Height),
		}
	}
	return Dimensions{Width: cfg.Width, Height: cfg.Height, Format: format}, nil
}
