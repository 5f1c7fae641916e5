package epub

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Placeholders used when a metadata field is missing from the manifest.
const (
	UnknownTitle   = "Unknown title"
	UnknownCreator = "Unknown creator"
	UnknownSeries  = "Unknown series"
)

// Metadata holds the descriptive strings of a comic volume.
type Metadata struct {
	Title   string
	Creator string
	Series  string
}

// ReadMetadata reads title, creator and series from vol.opf under root.
// Missing fields, or a missing manifest, fall back to the placeholders and
// are reported as warnings. It never fails.
func ReadMetadata(root string, logger *slog.Logger) Metadata {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	md := Metadata{Title: UnknownTitle, Creator: UnknownCreator, Series: UnknownSeries}

	path := ManifestPath(root)
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("cannot read manifest, using placeholder metadata", "path", path, "error", err)
		return md
	}

	// The manifest is XML, but the HTML parser is lenient enough to pick up
	// the namespaced dc:* elements by name.
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		logger.Warn("cannot parse manifest, using placeholder metadata", "path", path, "error", err)
		return md
	}

	md.Title = elementText(doc, "dc:title", UnknownTitle, logger)
	md.Creator = elementText(doc, "dc:creator", UnknownCreator, logger)
	md.Series = elementText(doc, "dc:series", UnknownSeries, logger)
	return md
}

// elementText returns the trimmed text of the first element named name,
// or fallback when there is none or it is empty.
func elementText(doc *goquery.Document, name, fallback string, logger *slog.Logger) string {
	sel := doc.Find("*").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return goquery.NodeName(s) == name
	}).First()

	text := strings.TrimSpace(sel.Text())
	if text == "" {
		logger.Warn("metadata field missing from manifest", "field", name, "default", fallback)
		return fallback
	}
	return text
}
