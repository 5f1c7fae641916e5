package converter

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/yuanying/epub2pdf/internal/epub"
	"github.com/yuanying/epub2pdf/internal/layout"
	"github.com/yuanying/epub2pdf/internal/pageindex"
)

const testOPF = `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>Test Volume 01</dc:title>
    <dc:creator>Test Creator</dc:creator>
  </metadata>
  <manifest>
    <item id="p2" href="html/page-000002.html" media-type="application/xhtml+xml"/>
    <item id="p1" href="html/page-000001.html" media-type="application/xhtml+xml"/>
  </manifest>
</package>`

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		t.Fatalf("jpeg.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

// createComicEPUB writes an archive with the given entries plus a mimetype.
func createComicEPUB(t *testing.T, entries map[string][]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Volume 01.epub")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create test epub: %v", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	mw, err := w.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		t.Fatalf("failed to create mimetype: %v", err)
	}
	mw.Write([]byte("application/epub+zip"))

	for name, data := range entries {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
		fw.Write(data)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close epub: %v", err)
	}
	return path
}

func numericEntries(t *testing.T) map[string][]byte {
	return map[string][]byte{
		"vol.opf":              []byte(testOPF),
		"html/1.html":          []byte(`<img src="../image/vol-000001.jpg"/>`),
		"html/2.html":          []byte(`<img src="../image/vol-000002.png"/>`),
		"image/cover.jpg":      encodeJPEG(t, 60, 90),
		"image/vol-000001.jpg": encodeJPEG(t, 40, 80),
		"image/vol-000002.png": encodePNG(t, 120, 60),
		"image/createby.png":   encodePNG(t, 50, 50),
	}
}

func TestPipelineConvert_Numeric(t *testing.T) {
	input := createComicEPUB(t, numericEntries(t))
	output := filepath.Join(t.TempDir(), "out.pdf")
	workDir := filepath.Join(t.TempDir(), "scratch")

	res, err := NewPipeline(ConvertOptions{
		InputPath:  input,
		OutputPath: output,
		WorkDir:    workDir,
	}).Convert(context.Background())
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	if res.Pages != 4 {
		t.Fatalf("Pages = %d, want 4", res.Pages)
	}
	if res.Convention != pageindex.NumericHTML {
		t.Fatalf("Convention = %v, want %v", res.Convention, pageindex.NumericHTML)
	}
	wantMeta := epub.Metadata{Title: "Test Volume 01", Creator: "Test Creator", Series: epub.UnknownSeries}
	if res.Metadata != wantMeta {
		t.Fatalf("Metadata = %+v, want %+v", res.Metadata, wantMeta)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("output is not a PDF: %q", data[:min(len(data), 16)])
	}
	if _, err := os.Stat(workDir); !os.IsNotExist(err) {
		t.Fatalf("scratch directory not removed: %v", err)
	}
	if res.WorkDir != "" {
		t.Fatalf("WorkDir = %q, want empty", res.WorkDir)
	}

	leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(output), ".*.tmp"))
	if len(leftovers) != 0 {
		t.Fatalf("temporary files left behind: %v", leftovers)
	}
}

func TestPipelineConvert_Manifest(t *testing.T) {
	input := createComicEPUB(t, map[string][]byte{
		"vol.opf":               []byte(testOPF),
		"html/page-000001.html": []byte(`<img src="../image/moe-000001.jpg"/>`),
		"html/page-000002.html": []byte(`<img src="../image/moe-000002.jpg"/>`),
		"image/moe-000001.jpg":  encodeJPEG(t, 40, 80),
		"image/moe-000002.jpg":  encodeJPEG(t, 80, 40),
	})
	output := filepath.Join(t.TempDir(), "manifest.pdf")

	res, err := NewPipeline(ConvertOptions{InputPath: input, OutputPath: output, Concurrency: 1}).Convert(context.Background())
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if res.Convention != pageindex.ManifestDriven || res.Pages != 2 {
		t.Fatalf("Result = %+v, want 2 manifest pages", res)
	}
}

func TestPipelineConvert_KeepWorkspace(t *testing.T) {
	input := createComicEPUB(t, numericEntries(t))
	output := filepath.Join(t.TempDir(), "out.pdf")
	workDir := filepath.Join(t.TempDir(), "scratch")

	res, err := NewPipeline(ConvertOptions{
		InputPath:     input,
		OutputPath:    output,
		WorkDir:       workDir,
		KeepWorkspace: true,
	}).Convert(context.Background())
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if res.WorkDir != workDir {
		t.Fatalf("WorkDir = %q, want %q", res.WorkDir, workDir)
	}
	if _, err := os.Stat(epub.HTMLPath(workDir, "1.html")); err != nil {
		t.Fatalf("scratch directory not preserved: %v", err)
	}
}

func TestPipelineConvert_UnrecognizedArchive(t *testing.T) {
	input := createComicEPUB(t, map[string][]byte{
		"html/chapter.html": []byte(`<p>text</p>`),
	})
	output := filepath.Join(t.TempDir(), "out.pdf")
	workDir := filepath.Join(t.TempDir(), "scratch")

	_, err := NewPipeline(ConvertOptions{InputPath: input, OutputPath: output, WorkDir: workDir}).Convert(context.Background())
	if !errors.Is(err, pageindex.ErrUnrecognizedArchive) {
		t.Fatalf("Convert() error = %v, want ErrUnrecognizedArchive", err)
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Fatalf("output written on failure: %v", err)
	}
	if _, err := os.Stat(workDir); !os.IsNotExist(err) {
		t.Fatalf("scratch directory not removed on failure: %v", err)
	}
}

func TestPipelineConvert_BrokenImage(t *testing.T) {
	entries := numericEntries(t)
	entries["image/vol-000002.png"] = []byte("not a png")
	input := createComicEPUB(t, entries)
	output := filepath.Join(t.TempDir(), "out.pdf")

	_, err := NewPipeline(ConvertOptions{InputPath: input, OutputPath: output}).Convert(context.Background())
	var derr *layout.DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("Convert() error = %v, want *layout.DecodeError", err)
	}
	if filepath.Base(derr.Path) != "vol-000002.png" {
		t.Fatalf("DecodeError.Path = %q, want vol-000002.png", derr.Path)
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Fatalf("output written on failure: %v", err)
	}
}

func TestPipelineConvert_NotAnArchive(t *testing.T) {
	input := filepath.Join(t.TempDir(), "book.epub")
	if err := os.WriteFile(input, []byte("plain text"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	_, err := NewPipeline(ConvertOptions{InputPath: input, OutputPath: filepath.Join(t.TempDir(), "o.pdf")}).Convert(context.Background())
	var xerr *epub.ExtractionError
	if !errors.As(err, &xerr) {
		t.Fatalf("Convert() error = %v, want *epub.ExtractionError", err)
	}
}

func TestWriteFileAtomic_FailureKeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.pdf")
	if err := os.WriteFile(path, []byte("previous"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	wantErr := errors.New("boom")
	err := writeFileAtomic(path, func(w io.Writer) error {
		w.Write([]byte("partial"))
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("writeFileAtomic() error = %v, want %v", err, wantErr)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "previous" {
		t.Fatalf("existing file = %q, want %q", data, "previous")
	}
}
