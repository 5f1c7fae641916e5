// Package pageindex recovers the reading order of page images from a
// materialized comic archive.
//
// Archives follow one of several mutually exclusive layout conventions. The
// convention is detected by probing sentinel files in a fixed priority order,
// then the matching Strategy builds the ReadingOrder.
package pageindex

import (
	"io"
	"log/slog"
	"os"
	"regexp"

	"github.com/yuanying/epub2pdf/internal/epub"
)

// Strategy builds the reading order of a tree laid out in one convention.
type Strategy interface {
	Resolve(root string) (*ReadingOrder, error)
}

// Detect returns the layout convention of the tree at root.
// Sentinels are checked in priority order and the first match wins.
func Detect(root string) (Convention, error) {
	switch {
	case isFile(epub.HTMLPath(root, numericHTMLSentinel)):
		return NumericHTML, nil
	case isFile(epub.HTMLPath(root, numericXHTMLSentinel)):
		return NumericXHTML, nil
	case isFile(epub.ManifestPath(root)):
		return ManifestDriven, nil
	}
	return 0, &ResolutionError{Op: "detect", Path: root, Err: ErrUnrecognizedArchive}
}

// StrategyFor returns the resolution strategy of convention c.
// A nil logger discards notices.
func StrategyFor(c Convention, logger *slog.Logger) Strategy {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	switch c {
	case NumericHTML:
		return &numericStrategy{convention: c, ext: "html", logger: logger}
	case NumericXHTML:
		return &numericStrategy{convention: c, ext: "xhtml", logger: logger}
	case ManifestDriven:
		return &manifestStrategy{logger: logger}
	default:
		return nil
	}
}

// Resolver detects the convention of a tree and resolves its reading order.
type Resolver struct {
	Logger *slog.Logger
}

// NewResolver creates a resolver logging notices to logger.
func NewResolver(logger *slog.Logger) *Resolver {
	return &Resolver{Logger: logger}
}

// Resolve returns the reading order of the tree at root.
func (r *Resolver) Resolve(root string) (*ReadingOrder, error) {
	c, err := Detect(root)
	if err != nil {
		return nil, err
	}
	if r.Logger != nil {
		r.Logger.Debug("detected layout convention", "convention", c.String(), "root", root)
	}
	return StrategyFor(c, r.Logger).Resolve(root)
}

// Resolve is a convenience wrapper for NewResolver(nil).Resolve(root).
func Resolve(root string) (*ReadingOrder, error) {
	return NewResolver(nil).Resolve(root)
}

func isFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

// scanFirst returns the first match of pattern in the file at path.
func scanFirst(path string, pattern *regexp.Regexp) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &ResolutionError{Op: "read page", Path: path, Err: err}
	}
	m := pattern.Find(data)
	if m == nil {
		return "", &ResolutionError{Op: "scan page", Path: path, Err: ErrNoImageReference}
	}
	return string(m), nil
}
