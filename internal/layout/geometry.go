// Package layout computes where each comic page image is drawn on the fixed
// target page and emits the pages in reading order.
package layout

import "errors"

// ErrDegenerateImage is returned for images with a zero or negative side.
var ErrDegenerateImage = errors.New("degenerate image dimensions")

// PageSize is a target page in PDF points.
type PageSize struct {
	Name   string
	Width  float64
	Height float64
}

// A4 is the only supported output page format (210 x 297 mm).
var A4 = PageSize{Name: "A4", Width: 210 * 72 / 25.4, Height: 297 * 72 / 25.4}

// Ratio returns width / height.
func (p PageSize) Ratio() float64 {
	return p.Width / p.Height
}

// Anchor is the page corner an image is attached to.
type Anchor int

// AnchorBottomLeft attaches the image to the lower-left page corner.
const AnchorBottomLeft Anchor = iota

// Placement is the drawn rectangle of an image on a page. X and Y give the
// anchor corner in PDF user space (origin at the bottom-left of the page).
type Placement struct {
	X, Y          float64
	Width, Height float64
	Anchor        Anchor
}

// Fit scales an imgW x imgH image to fill page on one axis while keeping
// its aspect ratio. Images proportionally wider than the page span its full
// width; all others span its full height. Any blank margin is left on the
// unconstrained axis, away from the bottom-left anchor.
func Fit(page PageSize, imgW, imgH int) (Placement, error) {
	if imgW <= 0 || imgH <= 0 {
		return Placement{}, ErrDegenerateImage
	}
	w, h := float64(imgW), float64(imgH)

	p := Placement{Anchor: AnchorBottomLeft}
	if w/h > page.Ratio() {
		p.Width = page.Width
		p.Height = h * (page.Width / w)
	} else {
		p.Height = page.Height
		p.Width = w * (page.Height / h)
	}
	return p, nil
}
