package layout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/yuanying/epub2pdf/internal/pageindex"
)

// ErrNoPages is returned when there is nothing to lay out.
var ErrNoPages = errors.New("no pages to render")

// Metadata is set once on the output document.
type Metadata struct {
	Title   string
	Author  string
	Subject string
}

// Document receives laid out pages in reading order.
type Document interface {
	SetMetadata(meta Metadata)
	AddPage(ref pageindex.ImageRef, p Placement) error
}

// Engine lays out an ordered list of images, one per page.
type Engine struct {
	Page PageSize

	// Concurrency bounds parallel header probing. Values below 1 use
	// runtime.NumCPU().
	Concurrency int

	// Progress receives a progress bar. Nil disables it.
	Progress io.Writer

	Logger *slog.Logger
}

// NewEngine creates an engine for page with default settings.
func NewEngine(page PageSize) *Engine {
	return &Engine{Page: page}
}

// Run probes every image, then emits one page per image into doc in input
// order. It returns the number of pages emitted. The first failure aborts
// the run.
func (e *Engine) Run(ctx context.Context, images []pageindex.ImageRef, meta Metadata, doc Document) (int, error) {
	if len(images) == 0 {
		return 0, ErrNoPages
	}
	logger := e.logger()

	dims, err := e.probeAll(ctx, images)
	if err != nil {
		return 0, err
	}

	doc.SetMetadata(meta)

	bar := e.newProgressBar(len(images))
	for i, ref := range images {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		placement, err := Fit(e.Page, dims[i].Width, dims[i].Height)
		if err != nil {
			return i, &DecodeError{Path: ref.Path, Err: err}
		}
		if err := doc.AddPage(ref, placement); err != nil {
			return i, fmt.Errorf("page %d (%s): %w", i+1, ref.Path, err)
		}
		logger.Debug("page laid out",
			"page", i+1,
			"image", ref.Path,
			"role", ref.Role.String(),
			"size", fmt.Sprintf("%dx%d", dims[i].Width, dims[i].Height),
			"draw", fmt.Sprintf("%.2fx%.2f", placement.Width, placement.Height),
		)
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	return len(images), nil
}

// probeAll reads the dimensions of every image. Results are stored by
// position, and when several probes fail the error of the earliest image
// in reading order is reported.
func (e *Engine) probeAll(ctx context.Context, images []pageindex.ImageRef) ([]Dimensions, error) {
	dims := make([]Dimensions, len(images))
	errs := make([]error, len(images))

	limit := e.Concurrency
	if limit < 1 {
		limit = runtime.NumCPU()
	}

	var eg errgroup.Group
	eg.SetLimit(limit)
	for i, ref := range images {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			d, err := Probe(ref.Path)
			if err != nil {
				errs[i] = err
				return nil
			}
			dims[i] = d
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return dims, nil
}

func (e *Engine) newProgressBar(n int) *progressbar.ProgressBar {
	w := e.Progress
	if w == nil {
		w = io.Discard
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Rendering pages"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
