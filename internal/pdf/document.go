// Package pdf writes laid out comic pages to a PDF document.
package pdf

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"

	"codeberg.org/go-pdf/fpdf"

	"github.com/yuanying/epub2pdf/internal/layout"
	"github.com/yuanying/epub2pdf/internal/pageindex"
)

const producer = "epub2pdf"

// Options controls how page images are embedded.
type Options struct {
	// MaxImageWidth downsamples wider images before embedding. 0 keeps
	// the original pixels.
	MaxImageWidth int
	// JPEGQuality is used for images that have to be re-encoded.
	JPEGQuality int
	Logger      *slog.Logger
}

// Document is a PDF with one image per page. It implements layout.Document.
type Document struct {
	pdf    *fpdf.Fpdf
	page   layout.PageSize
	images *imagePreparer
	logger *slog.Logger
}

// New creates an empty document whose pages all have the given size.
func New(page layout.PageSize, opts Options) *Document {
	f := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: page.Width, Ht: page.Height},
	})
	f.SetMargins(0, 0, 0)
	f.SetAutoPageBreak(false, 0)
	f.SetCreator(producer, true)
	f.SetProducer(producer, true)

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Document{
		pdf:    f,
		page:   page,
		images: newImagePreparer(opts),
		logger: logger,
	}
}

// SetMetadata sets the document information dictionary.
func (d *Document) SetMetadata(meta layout.Metadata) {
	d.pdf.SetTitle(meta.Title, true)
	d.pdf.SetAuthor(meta.Author, true)
	d.pdf.SetSubject(meta.Subject, true)
}

// AddPage appends a page showing the image of ref at placement p.
func (d *Document) AddPage(ref pageindex.ImageRef, p layout.Placement) error {
	img, err := d.images.Prepare(ref.Path)
	if err != nil {
		return &layout.DecodeError{Path: ref.Path, Err: err}
	}
	if img.Reencoded {
		d.logger.Debug("re-encoded page image", "image", ref.Path, "type", img.Type, "size", fmt.Sprintf("%dx%d", img.Width, img.Height))
	}

	d.pdf.AddPage()
	name := fmt.Sprintf("page-%05d", d.pdf.PageNo())
	opts := fpdf.ImageOptions{ImageType: img.Type, ReadDpi: false}
	d.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.Data))

	// fpdf measures y from the top edge of the page.
	y := d.page.Height - p.Y - p.Height
	d.pdf.ImageOptions(name, p.X, y, p.Width, p.Height, false, opts, 0, "")

	if err := d.pdf.Error(); err != nil {
		return fmt.Errorf("pdf: embed %s: %w", ref.Path, err)
	}
	return nil
}

// PageCount returns the number of pages added so far.
func (d *Document) PageCount() int {
	return d.pdf.PageCount()
}

// Save writes the finished document to w. The document cannot be modified
// afterwards.
func (d *Document) Save(w io.Writer) error {
	if err := d.pdf.Output(w); err != nil {
		return fmt.Errorf("pdf: write document: %w", err)
	}
	return nil
}
