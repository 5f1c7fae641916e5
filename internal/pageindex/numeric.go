package pageindex

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"

	"github.com/yuanying/epub2pdf/internal/epub"
)

// numericStrategy resolves archives whose body pages are html/<n>.<ext>.
type numericStrategy struct {
	convention Convention
	ext        string
	logger     *slog.Logger
}

type bodyPage struct {
	index int
	file  string
}

func (s *numericStrategy) Resolve(root string) (*ReadingOrder, error) {
	pages, err := s.bodyPages(root)
	if err != nil {
		return nil, err
	}

	order := &ReadingOrder{Convention: s.convention}

	if ref, ok := probeFirst(root, leadCandidates, RoleLead); ok {
		order.Lead = append(order.Lead, ref)
	} else {
		s.logger.Warn("no cover image detected", "dir", epub.ImagePath(root, ""))
	}

	for _, p := range pages {
		src := epub.HTMLPath(root, p.file)
		name, err := scanFirst(src, numericImagePattern)
		if err != nil {
			return nil, err
		}
		ref := newImageRef(epub.ImagePath(root, name), RoleBody)
		ref.Index = p.index
		ref.Source = src
		order.Body = append(order.Body, ref)
	}

	if ref, ok := probeFirst(root, trailCandidates, RoleTrail); ok {
		order.Trail = append(order.Trail, ref)
	} else {
		s.logger.Warn("no createby image detected", "dir", epub.ImagePath(root, ""))
	}

	return order, nil
}

// bodyPages lists the numbered page files sorted by index.
func (s *numericStrategy) bodyPages(root string) ([]bodyPage, error) {
	dir := epub.HTMLPath(root, "")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &ResolutionError{Op: "list pages", Path: dir, Err: err}
	}

	seen := make(map[int]string)
	var pages []bodyPage
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		m := numericPagePattern.FindStringSubmatch(e.Name())
		if m == nil || m[2] != s.ext {
			continue
		}
		index, err := strconv.Atoi(m[1])
		if err != nil || index <= 0 {
			return nil, &ResolutionError{Op: "index page", Path: epub.HTMLPath(root, e.Name()), Err: ErrInvalidIndex}
		}
		if prev, ok := seen[index]; ok {
			return nil, &ResolutionError{
				Op:   "index page",
				Path: epub.HTMLPath(root, e.Name()),
				Err:  fmt.Errorf("%w %d (also used by %s)", ErrDuplicateIndex, index, prev),
			}
		}
		seen[index] = e.Name()
		pages = append(pages, bodyPage{index: index, file: e.Name()})
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].index < pages[j].index })
	return pages, nil
}

// probeFirst returns the first candidate that exists in the image directory.
func probeFirst(root string, candidates []string, role Role) (ImageRef, bool) {
	for _, name := range candidates {
		path := epub.ImagePath(root, name)
		if isFile(path) {
			return newImageRef(path, role), true
		}
	}
	return ImageRef{}, false
}
