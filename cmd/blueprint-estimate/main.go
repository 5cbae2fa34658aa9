package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ironsheep/blueprint-estimator/internal/bundle"
	"github.com/ironsheep/blueprint-estimator/internal/config"
	"github.com/ironsheep/blueprint-estimator/internal/logging"
	"github.com/ironsheep/blueprint-estimator/internal/ocr"
	"github.com/ironsheep/blueprint-estimator/internal/pipeline"
	"github.com/ironsheep/blueprint-estimator/internal/report"
	"github.com/ironsheep/blueprint-estimator/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// newRecognizer is replaced in tests.
var newRecognizer = func(opts ocr.Options) (ocr.Recognizer, error) {
	engine, err := ocr.Shared(opts)
	if err != nil {
		return nil, err
	}
	return engine, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "blueprint-estimate - per-room material estimates from floor plans")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  blueprint-estimate [options] <blueprint-folder | bundle.zip>")
	fmt.Fprintln(w, "  blueprint-estimate serve [-config file]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "A blueprint folder holds model.svg and a raster whose name contains \"scaled\".")
	fmt.Fprintln(w, "A bundle is a zip of such a folder, or of a previously computed .json result.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprintln(w, "  -config file        YAML configuration file")
	fmt.Fprintln(w, "  -format name        json, markdown, html or pdf (default json)")
	fmt.Fprintln(w, "  -output file        Write the report to file instead of stdout")
	fmt.Fprintln(w, "  -overlay file       Also write a PNG with rooms and labels drawn on the raster")
	fmt.Fprintln(w, "  -label-order mode   detection or spatial")
	fmt.Fprintln(w, "  -alignment mode     off, warn or strict")
	fmt.Fprintln(w, "  -work-dir dir       Where bundles are extracted (default: a temp dir)")
	fmt.Fprintln(w, "  --version, -v       Print version information")
	fmt.Fprintln(w, "  --help, -h          Print this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables (also read from .env):")
	fmt.Fprintln(w, "  BLUEPRINT_LOG_LEVEL=debug       Enable debug logging")
	fmt.Fprintln(w, "  BLUEPRINT_TESSDATA_PREFIX=dir   Tesseract language data")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "serve runs an MCP server over stdin/stdout.")
}

type options struct {
	configPath string
	format     string
	output     string
	overlay    string
	labelOrder string
	alignment  string
	workDir    string
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 {
		switch args[0] {
		case "--version", "-v", "version":
			fmt.Fprintf(stdout, "blueprint-estimate %s\n", Version)
			fmt.Fprintf(stdout, "  Build time: %s\n", BuildTime)
			fmt.Fprintf(stdout, "  Git commit: %s\n", GitCommit)
			return 0
		case "--help", "-h", "help":
			usage(stdout)
			return 0
		case "serve":
			return serve(args[1:], stderr)
		}
	}

	var opts options
	fs := flag.NewFlagSet("blueprint-estimate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&opts.configPath, "config", "", "")
	fs.StringVar(&opts.format, "format", "json", "")
	fs.StringVar(&opts.output, "output", "", "")
	fs.StringVar(&opts.overlay, "overlay", "", "")
	fs.StringVar(&opts.labelOrder, "label-order", "", "")
	fs.StringVar(&opts.alignment, "alignment", "", "")
	fs.StringVar(&opts.workDir, "work-dir", "", "")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n\n", err)
		usage(stderr)
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "Error: expected exactly one blueprint folder or bundle")
		fmt.Fprintln(stderr)
		usage(stderr)
		return 2
	}

	if err := estimateOne(fs.Arg(0), opts, stdout, stderr); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func loadConfig(opts options) (*config.Config, error) {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.labelOrder != "" {
		cfg.Labels.Order = opts.labelOrder
	}
	if opts.alignment != "" {
		cfg.Alignment.Mode = opts.alignment
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func estimateOne(target string, opts options, stdout, stderr io.Writer) error {
	format, err := report.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger := logging.NewLoggerTo(stderr, "blueprint", logging.ParseLevel(cfg.LogLevel))
	logger.Debug("Starting", "version", Version, "commit", GitCommit, "target", target)

	rec, err := newRecognizer(pipeline.OCROptions(cfg.OCR))
	if err != nil {
		return fmt.Errorf("failed to start OCR engine: %w", err)
	}
	p := pipeline.New(cfg, rec, logger.With("pipeline"))

	var out bytes.Buffer
	if strings.EqualFold(filepath.Ext(target), ".zip") {
		if opts.overlay != "" {
			return fmt.Errorf("-overlay needs a blueprint folder, not a bundle")
		}
		opened, err := bundle.Open(target, opts.workDir, p.ProduceReport)
		if err != nil {
			return err
		}
		if err := writeBundle(&out, opened, format); err != nil {
			return err
		}
	} else {
		in, err := pipeline.ResolveInputs(target)
		if err != nil {
			return err
		}
		res, err := p.Run(in)
		if err != nil {
			return err
		}
		if opts.overlay != "" {
			if err := pipeline.SaveOverlay(res, opts.overlay); err != nil {
				return err
			}
			logger.Info("Overlay written", "path", opts.overlay)
		}
		if err := report.Render(&out, res.Report, format); err != nil {
			return err
		}
	}

	if opts.output == "" {
		_, err = stdout.Write(out.Bytes())
		return err
	}
	if err := os.WriteFile(opts.output, out.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	logger.Info("Report written", "path", opts.output, "format", format)
	return nil
}

// writeBundle writes a bundle's result. A passed-through result is copied
// unchanged in JSON format and rendered only if it has the report shape.
func writeBundle(w io.Writer, opened *bundle.Opened, format report.Format) error {
	if format == report.FormatJSON && opened.PassThrough() {
		_, err := w.Write(opened.Raw)
		return err
	}
	if opened.Report == nil {
		return fmt.Errorf("bundle result %s is not an estimate; only json output is possible", opened.ResultPath)
	}
	return report.Render(w, opened.Report, format)
}

func serve(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML configuration file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	// stdout is the MCP stream; logs go to stderr
	logger := logging.NewLoggerTo(stderr, "blueprint-mcp", logging.ParseLevel(cfg.LogLevel))
	logger.Info("MCP server starting", "version", Version, "built", BuildTime, "commit", GitCommit,
		"label_order", cfg.Labels.Order, "min_confidence", cfg.Labels.MinConfidence)

	server.Version = Version
	srv := server.New(cfg, logger.With("server"))
	if err := srv.Run(); err != nil {
		logger.Error("Server error", "error", err)
		return 1
	}
	return 0
}
