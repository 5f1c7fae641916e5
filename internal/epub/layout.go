package epub

import "path/filepath"

// Relative locations inside a materialized archive. Page resolution and
// metadata extraction depend on these names exactly.
const (
	HTMLDir      = "html"
	ImageDir     = "image"
	ManifestFile = "vol.opf"
)

// HTMLPath returns the location of name inside the html directory of root.
func HTMLPath(root, name string) string {
	return filepath.Join(root, HTMLDir, name)
}

// ImagePath returns the location of name inside the image directory of root.
func ImagePath(root, name string) string {
	return filepath.Join(root, ImageDir, name)
}

// ManifestPath returns the location of vol.opf under root.
func ManifestPath(root string) string {
	return filepath.Join(root, ManifestFile)
}
