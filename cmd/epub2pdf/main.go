package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/yuanying/epub2pdf/internal/converter"
)

const (
	defaultJPEGQuality   = 90
	defaultMaxImageWidth = 0
	defaultLogLevel      = "info"
	defaultLogFormat     = "text"
)

// cliOptions is the validated result of parsing the command line.
type cliOptions struct {
	converter.ConvertOptions
	NoProgress bool
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "epub2pdf <archive.epub>",
		Short: "Convert comic EPUB archives to A4 PDF",
		Long: `epub2pdf converts comic EPUB archives, as distributed by mox.moe,
into a single A4 PDF with one comic page per PDF page.

Pages are ordered using the archive's own indexing scheme. The cover
is placed first and the attribution page last when they exist.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runConvert,
	}

	f := cmd.Flags()
	f.StringP("output", "o", "", "Output file path (default: input name with .pdf extension in the current directory)")
	f.BoolP("preserve", "p", false, "Preserve the scratch directory instead of removing it")
	f.String("workdir", "", "Scratch directory for the extracted archive (default: a new temporary directory)")
	f.IntP("jobs", "j", runtime.NumCPU(), "Number of images probed in parallel")
	f.Int("max-image-width", defaultMaxImageWidth, "Downsample images wider than this many pixels (0 keeps originals)")
	f.Int("quality", defaultJPEGQuality, "JPEG quality for re-encoded images (1-100)")
	f.Bool("no-progress", false, "Disable the progress bar")
	f.String("log-level", defaultLogLevel, "Log level: debug, info, warn, error")
	f.String("log-format", defaultLogFormat, "Log format: text, json")
	f.BoolP("verbose", "v", false, "Enable debug logging (overrides --log-level)")
	f.String("config", "", "TOML file with default flag values")
	return cmd
}

func runConvert(cmd *cobra.Command, args []string) error {
	if err := applyConfigFile(cmd); err != nil {
		return err
	}
	opts, err := readCLIOptions(cmd, args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	opts.Logger.Info("converting", "input", opts.InputPath, "output", opts.OutputPath)
	res, err := converter.NewPipeline(opts.ConvertOptions).Convert(ctx)
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}
	opts.Logger.Info("all done", "output", res.OutputPath, "pages", res.Pages)
	return nil
}

func readCLIOptions(cmd *cobra.Command, args []string) (cliOptions, error) {
	f := cmd.Flags()
	inputPath := args[0]

	outputPath, _ := f.GetString("output")
	if outputPath == "" {
		outputPath = defaultOutputPath(inputPath)
	}

	jobs, _ := f.GetInt("jobs")
	if jobs < 1 {
		return cliOptions{}, fmt.Errorf("--jobs must be at least 1, got %d", jobs)
	}
	quality, _ := f.GetInt("quality")
	if quality < 1 || quality > 100 {
		return cliOptions{}, fmt.Errorf("--quality must be between 1 and 100, got %d", quality)
	}
	maxWidth, _ := f.GetInt("max-image-width")
	if maxWidth < 0 {
		return cliOptions{}, fmt.Errorf("--max-image-width must not be negative, got %d", maxWidth)
	}

	levelName, _ := f.GetString("log-level")
	level, err := parseLogLevel(levelName)
	if err != nil {
		return cliOptions{}, fmt.Errorf("--log-level: %w", err)
	}
	if verbose, _ := f.GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	format, _ := f.GetString("log-format")
	format = strings.ToLower(format)
	if format != "text" && format != "json" {
		return cliOptions{}, fmt.Errorf("--log-format must be text or json, got %q", format)
	}

	preserve, _ := f.GetBool("preserve")
	workDir, _ := f.GetString("workdir")
	noProgress, _ := f.GetBool("no-progress")

	opts := cliOptions{
		ConvertOptions: converter.ConvertOptions{
			InputPath:     inputPath,
			OutputPath:    outputPath,
			WorkDir:       workDir,
			KeepWorkspace: preserve,
			Concurrency:   jobs,
			MaxImageWidth: maxWidth,
			JPEGQuality:   quality,
			Logger:        newLogger(cmd.ErrOrStderr(), level, format),
		},
		NoProgress: noProgress,
	}
	// The bar would interleave with machine-readable logs.
	if !noProgress && format == "text" {
		opts.Progress = cmd.ErrOrStderr()
	}
	return opts, nil
}

// defaultOutputPath names the PDF after the input file, in the current
// directory.
func defaultOutputPath(inputPath string) string {
	base := filepath.Base(inputPath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".pdf"
}

func parseLogLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown level %q", name)
	}
}

// newLogger writes text records through charmbracelet/log and JSON records
// through the standard JSON handler.
func newLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           log.Level(level),
	}))
}

func main() {
	cmd := newRootCmd()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "epub2pdf: %v\n", err)
		os.Exit(1)
	}
}
