package pageindex

import (
	"log/slog"
	"os"

	"github.com/yuanying/epub2pdf/internal/epub"
)

// manifestStrategy resolves archives whose page order is the order of
// page-NNNNNN.html occurrences in vol.opf. Lead and trail images are not
// probed for this convention.
type manifestStrategy struct {
	logger *slog.Logger
}

func (s *manifestStrategy) Resolve(root string) (*ReadingOrder, error) {
	opfPath := epub.ManifestPath(root)
	data, err := os.ReadFile(opfPath)
	if err != nil {
		return nil, &ResolutionError{Op: "read manifest", Path: opfPath, Err: err}
	}

	pages := manifestPagePattern.FindAll(data, -1)
	if len(pages) == 0 {
		return nil, &ResolutionError{Op: "scan manifest", Path: opfPath, Err: ErrNoPages}
	}
	s.logger.Debug("pages listed in manifest", "count", len(pages))

	order := &ReadingOrder{Convention: ManifestDriven}
	for _, page := range pages {
		src := epub.HTMLPath(root, string(page))
		name, err := scanFirst(src, manifestImagePattern)
		if err != nil {
			return nil, err
		}
		ref := newImageRef(epub.ImagePath(root, name), RoleBody)
		ref.Source = src
		order.Body = append(order.Body, ref)
	}
	return order, nil
}
