package pageindex

import (
	"path/filepath"
	"strings"
)

// Convention identifies the internal indexing scheme of an archive.
type Convention int

const (
	// NumericHTML archives keep body pages as html/<n>.html.
	NumericHTML Convention = iota + 1
	// NumericXHTML archives keep body pages as html/<n>.xhtml.
	NumericXHTML
	// ManifestDriven archives list their pages in vol.opf.
	ManifestDriven
)

func (c Convention) String() string {
	switch c {
	case NumericHTML:
		return "numeric-html"
	case NumericXHTML:
		return "numeric-xhtml"
	case ManifestDriven:
		return "manifest"
	default:
		return "unknown"
	}
}

// Role is the position of an image within the reading order.
type Role int

const (
	// RoleBody is a numbered interior page.
	RoleBody Role = iota
	// RoleLead is the cover placed before the body.
	RoleLead
	// RoleTrail is the attribution page placed after the body.
	RoleTrail
)

func (r Role) String() string {
	switch r {
	case RoleLead:
		return "lead"
	case RoleTrail:
		return "trail"
	default:
		return "body"
	}
}

// ImageRef points at one raster image file of a materialized archive.
type ImageRef struct {
	Path   string
	Format string // "jpeg" or "png", derived from the extension
	Role   Role
	Index  int    // body page index for numeric conventions, 0 otherwise
	Source string // page file the reference was read from, empty for lead/trail
}

func newImageRef(path string, role Role) ImageRef {
	return ImageRef{Path: path, Format: formatFromExt(path), Role: role}
}

func formatFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".png":
		return "png"
	default:
		return ""
	}
}

// ReadingOrder is the output page order of one archive: lead images, then
// body pages, then trail images.
type ReadingOrder struct {
	Convention Convention
	Lead       []ImageRef
	Body       []ImageRef
	Trail      []ImageRef
}

// Images returns all images in reading order.
func (o *ReadingOrder) Images() []ImageRef {
	out := make([]ImageRef, 0, o.Len())
	out = append(out, o.Lead...)
	out = append(out, o.Body...)
	out = append(out, o.Trail...)
	return out
}

// Len returns the total number of images.
func (o *ReadingOrder) Len() int {
	return len(o.Lead) + len(o.Body) + len(o.Trail)
}
