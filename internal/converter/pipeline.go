package converter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/yuanying/epub2pdf/internal/epub"
	"github.com/yuanying/epub2pdf/internal/layout"
	"github.com/yuanying/epub2pdf/internal/pageindex"
	"github.com/yuanying/epub2pdf/internal/pdf"
)

// ConvertOptions holds options for the conversion pipeline.
type ConvertOptions struct {
	InputPath  string
	OutputPath string

	// WorkDir is the scratch directory. Empty uses a fresh temporary
	// directory.
	WorkDir       string
	KeepWorkspace bool

	Concurrency   int
	MaxImageWidth int
	JPEGQuality   int

	// Progress receives the page progress bar. Nil disables it.
	Progress io.Writer
	Logger   *slog.Logger
}

// Result describes a finished conversion.
type Result struct {
	OutputPath string
	Pages      int
	Convention pageindex.Convention
	Metadata   epub.Metadata
	WorkDir    string // set when the scratch directory was kept
}

// Pipeline orchestrates the EPUB to PDF conversion.
type Pipeline struct {
	Options ConvertOptions
	logger  *slog.Logger
}

// NewPipeline creates a new conversion pipeline.
func NewPipeline(opts ConvertOptions) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Pipeline{Options: opts, logger: logger}
}

// Convert executes the conversion pipeline. The scratch directory is removed
// on every exit path unless KeepWorkspace is set.
func (p *Pipeline) Convert(ctx context.Context) (*Result, error) {
	p.logger.Info("extracting archive", "path", p.Options.InputPath)
	ws, err := epub.Extract(p.Options.InputPath, p.Options.WorkDir)
	if err != nil {
		return nil, err
	}
	defer p.finishWorkspace(ws)

	p.logger.Info("indexing images")
	order, err := pageindex.NewResolver(p.logger).Resolve(ws.Root)
	if err != nil {
		return nil, err
	}
	p.logger.Info("indexed images",
		"convention", order.Convention.String(),
		"lead", len(order.Lead),
		"body", len(order.Body),
		"trail", len(order.Trail),
	)

	p.logger.Info("scanning metadata")
	md := epub.ReadMetadata(ws.Root, p.logger)
	p.logger.Info("metadata", "title", md.Title, "creator", md.Creator, "series", md.Series)

	p.logger.Info("generating PDF", "output", p.Options.OutputPath)
	doc := pdf.New(layout.A4, pdf.Options{
		MaxImageWidth: p.Options.MaxImageWidth,
		JPEGQuality:   p.Options.JPEGQuality,
		Logger:        p.logger,
	})
	engine := &layout.Engine{
		Page:        layout.A4,
		Concurrency: p.Options.Concurrency,
		Progress:    p.Options.Progress,
		Logger:      p.logger,
	}
	pages, err := engine.Run(ctx, order.Images(), layout.Metadata{
		Title:   md.Title,
		Author:  md.Creator,
		Subject: md.Series,
	}, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to lay out pages: %w", err)
	}

	p.logger.Info("saving PDF file", "pages", pages)
	if err := writeFileAtomic(p.Options.OutputPath, doc.Save); err != nil {
		return nil, err
	}

	res := &Result{
		OutputPath: p.Options.OutputPath,
		Pages:      pages,
		Convention: order.Convention,
		Metadata:   md,
	}
	if p.Options.KeepWorkspace {
		res.WorkDir = ws.Root
	}
	return res, nil
}

func (p *Pipeline) finishWorkspace(ws *epub.Workspace) {
	if p.Options.KeepWorkspace {
		p.logger.Info("preserving scratch directory", "path", ws.Root)
		return
	}
	p.logger.Debug("cleaning workspace", "path", ws.Root)
	if err := ws.Cleanup(); err != nil {
		p.logger.Warn("failed to remove scratch directory", "path", ws.Root, "error", err)
	}
}

// writeFileAtomic writes through a temporary file in the destination
// directory and renames it into place, so a failed write never leaves a
// truncated file at path.
func writeFileAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move output file into place: %w", err)
	}
	return nil
}
