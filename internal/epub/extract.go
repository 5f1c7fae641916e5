package epub

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const epubMimetype = "application/epub+zip"

// maxDecompressSize is the maximum allowed decompressed size of a single
// archive entry.
const maxDecompressSize int64 = 256 * 1024 * 1024

// Workspace is the scratch directory holding one materialized archive.
// It belongs to a single conversion run.
type Workspace struct {
	Root string
}

// Cleanup removes the scratch directory and everything in it.
func (w *Workspace) Cleanup() error {
	if w == nil || w.Root == "" {
		return nil
	}
	return os.RemoveAll(w.Root)
}

// Extract unpacks the archive at archivePath into a scratch directory.
// An empty dir creates a fresh temporary directory; otherwise dir is created
// if needed and must be empty. On failure nothing is left behind.
func Extract(archivePath, dir string) (*Workspace, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, &ExtractionError{Path: archivePath, Err: fmt.Errorf("%w: %w", ErrNotZip, err)}
	}
	defer zr.Close()

	if err := validateMimetype(&zr.Reader); err != nil {
		return nil, &ExtractionError{Path: archivePath, Err: err}
	}

	ws, err := newWorkspace(dir)
	if err != nil {
		return nil, &ExtractionError{Path: archivePath, Err: err}
	}

	for _, f := range zr.File {
		if err := extractFile(ws.Root, f, maxDecompressSize); err != nil {
			ws.Cleanup()
			return nil, &ExtractionError{Path: archivePath, Err: err}
		}
	}
	return ws, nil
}

func newWorkspace(dir string) (*Workspace, error) {
	if dir == "" {
		root, err := os.MkdirTemp("", "epub2pdf-")
		if err != nil {
			return nil, fmt.Errorf("failed to create scratch directory: %w", err)
		}
		return &Workspace{Root: root}, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scratch directory: %w", err)
	}
	if len(entries) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrWorkspaceNotEmpty, dir)
	}
	return &Workspace{Root: dir}, nil
}

// validateMimetype checks the mimetype entry when the archive has one.
// Comic archives are not always strict about its position or compression,
// so only the content is checked.
func validateMimetype(zr *zip.Reader) error {
	for _, f := range zr.File {
		if f.Name != "mimetype" {
			continue
		}
		content, err := readEntry(f, int64(len(epubMimetype))+64)
		if err != nil {
			return fmt.Errorf("failed to read mimetype: %w", err)
		}
		if strings.TrimSpace(string(content)) != epubMimetype {
			return ErrInvalidMimetype
		}
		return nil
	}
	return nil
}

// extractFile writes one archive entry below root, refusing entries that
// escape root or exceed limit once decompressed.
func extractFile(root string, f *zip.File, limit int64) error {
	name := filepath.FromSlash(f.Name)
	if !filepath.IsLocal(name) {
		return fmt.Errorf("%w: %s", ErrUnsafePath, f.Name)
	}
	target := filepath.Join(root, name)

	if f.FileInfo().IsDir() {
		return os.MkdirAll(target, 0o755)
	}
	if f.UncompressedSize64 > uint64(limit) {
		return fmt.Errorf("%w: %s: %d bytes (max %d)", ErrEntryTooLarge, f.Name, f.UncompressedSize64, limit)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	// Read up to limit+1 to catch a forged declared size.
	n, err := io.Copy(out, io.LimitReader(rc, limit+1))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to write entry %s: %w", f.Name, err)
	}
	if n > limit {
		return fmt.Errorf("%w: %s decompressed size exceeds %d bytes", ErrEntryTooLarge, f.Name, limit)
	}
	return nil
}

func readEntry(f *zip.File, limit int64) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, limit))
}
