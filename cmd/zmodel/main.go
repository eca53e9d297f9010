// Command zmodel converts ONNX models between opsets, inspects TFLite, ONNX
// and ZMF models, and downloads models from the HuggingFace Hub.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/urfave/cli/v2"

	"github.com/zerfoo/zmodel/internal/config"
	"github.com/zerfoo/zmodel/internal/logging"
	"github.com/zerfoo/zmodel/internal/term"
	"github.com/zerfoo/zmodel/pkg/downloader"
	"github.com/zerfoo/zmodel/pkg/inspector"
	"github.com/zerfoo/zmodel/pkg/interpreter"
	"github.com/zerfoo/zmodel/pkg/opsetconv"
)

var errConversionFailed = errors.New("conversion failed")

// env is the state shared by all commands once the app's Before hook ran.
type env struct {
	stdout   io.Writer
	stderr   io.Writer
	glyphs   term.Glyphs
	cfg      *config.Config
	logger   *slog.Logger
	closeLog func() error
}

func newApp(stdout, stderr io.Writer) *cli.App {
	e := &env{stdout: stdout, stderr: stderr, glyphs: term.For(stdout)}

	return &cli.App{
		Name:      "zmodel",
		Usage:     "Convert ONNX opsets and inspect TFLite, ONNX and ZMF models",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "Path to a TOML config file"},
			&cli.StringFlag{Name: "log-file", Usage: "Path of the log file (default zmodel.log)"},
			&cli.BoolFlag{Name: "verbose", Usage: "Also log to stderr"},
		},
		Before: e.setup,
		After:  e.teardown,
		Commands: []*cli.Command{
			e.convertCommand(),
			e.inspectCommand(),
			e.compareCommand(),
			e.downloadCommand(),
		},
	}
}

func (e *env) setup(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if c.IsSet("log-file") {
		cfg.LogFile = c.String("log-file")
	}
	if c.IsSet("verbose") {
		cfg.Verbose = c.Bool("verbose")
	}
	logger, closeLog, err := logging.New(cfg.LogFile, cfg.Verbose, e.stderr)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	e.cfg, e.logger, e.closeLog = cfg, logger, closeLog
	return nil
}

func (e *env) teardown(*cli.Context) error {
	if e.closeLog == nil {
		return nil
	}
	return e.closeLog()
}

func (e *env) convertCommand() *cli.Command {
	return &cli.Command{
		Name:  "convert-opset",
		Usage: "Convert an ONNX model to another opset, validate it and save it",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "Path of the source model"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Path of the converted model"},
			&cli.Int64Flag{Name: "target", Aliases: []string{"t"}, Usage: "Target opset version"},
			&cli.BoolFlag{Name: "strict", Usage: "Exit non-zero when the conversion fails"},
		},
		Action: func(c *cli.Context) error {
			cc := e.cfg.Converter
			if c.IsSet("input") {
				cc.Input = c.String("input")
			}
			if c.IsSet("output") {
				cc.Output = c.String("output")
			}
			if c.IsSet("target") {
				cc.TargetOpset = c.Int64("target")
			}
			if c.IsSet("strict") {
				cc.Strict = c.Bool("strict")
			}

			_, err := opsetconv.Run(c.Context, opsetconv.Options{
				Input:  cc.Input,
				Output: cc.Output,
				Target: cc.TargetOpset,
				Out:    e.stdout,
				Glyphs: e.glyphs,
				Logger: e.logger,
			})
			if err != nil && cc.Strict {
				return fmt.Errorf("%w: %w", errConversionFailed, err)
			}
			return nil
		},
	}
}

func (e *env) inspectorOptions(c *cli.Context) inspector.Options {
	ic := e.cfg.Inspector
	if c.IsSet("backend") {
		ic.Backend = c.String("backend")
	}
	if c.IsSet("seed") {
		ic.Seed = c.Int64("seed")
	}
	return inspector.Options{
		Interpreter: interpreter.Options{
			Backend:    ic.Backend,
			ORTLibrary: ic.ORTLibrary,
			Threads:    ic.TFLiteThreads,
			Logger:     e.logger,
		},
		Layout: inspector.LayoutRules{
			MinPredictions: ic.Layout.MinPredictions,
			BoxCoordinates: ic.Layout.BoxCoordinates,
		},
		Seed:   uint64(ic.Seed),
		Logger: e.logger,
	}
}

func inspectorFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{Name: "json", Usage: "Print JSON instead of the text report"},
		&cli.StringFlag{Name: "backend", Usage: "ONNX runtime: go or ort"},
	}
}

func (e *env) inspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Inspect models and compare the first two",
		ArgsUsage: "[PATH ...]",
		Flags: append([]cli.Flag{
			&cli.Int64Flag{Name: "seed", Usage: "Seed for the synthetic inputs (0 is random)"},
		}, inspectorFlags()...),
		Action: func(c *cli.Context) error {
			paths := c.Args().Slice()
			if len(paths) == 0 {
				paths = []string{e.cfg.Inspector.CurrentModel, e.cfg.Inspector.NewModel}
			}
			_, err := inspector.Run(c.Context, e.stdout, paths, inspector.RunOptions{
				Options: e.inspectorOptions(c),
				JSON:    c.Bool("json"),
				Glyphs:  e.glyphs,
			})
			return err
		},
	}
}

func (e *env) compareCommand() *cli.Command {
	return &cli.Command{
		Name:      "compare",
		Usage:     "Compare the tensors of two models",
		ArgsUsage: "PATH_A PATH_B",
		Flags:     inspectorFlags(),
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return fmt.Errorf("compare needs exactly two model paths, got %d", c.NArg())
			}
			cmp, err := inspector.Compare(c.Context, c.Args().Get(0), c.Args().Get(1), e.inspectorOptions(c))
			if err != nil {
				fmt.Fprintf(e.stdout, "%s Could not compare models: %+v\n", e.glyphs.Warn, err)
				return err
			}
			if c.Bool("json") {
				return inspector.WriteJSON(e.stdout, cmp)
			}
			inspector.WriteComparison(e.stdout, cmp, e.glyphs)
			return nil
		},
	}
}

func (e *env) downloadCommand() *cli.Command {
	return &cli.Command{
		Name:  "download",
		Usage: "Download a model and its sidecar files from the HuggingFace Hub",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "model", Aliases: []string{"m"}, Usage: "HuggingFace model ID", Required: true},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Destination directory", Value: "."},
			&cli.StringFlag{Name: "api-key", Usage: "HuggingFace API key (defaults to HF_API_KEY)"},
		},
		Action: func(c *cli.Context) error {
			dc := e.cfg.Downloader
			if c.IsSet("api-key") {
				dc.APIKey = c.String("api-key")
			}
			source := downloader.NewHuggingFaceSource(
				downloader.WithAPIKey(dc.APIKey),
				downloader.WithAPIURL(dc.APIURL),
				downloader.WithCDNURL(dc.CDNURL),
				downloader.WithRevision(dc.Revision),
				downloader.WithMaxRetries(dc.MaxRetries),
				downloader.WithLogger(e.logger),
			)

			modelID := c.String("model")
			fmt.Fprintf(e.stdout, "Downloading model %s to %s\n", modelID, c.String("output"))
			result, err := downloader.NewDownloader(source).Download(c.Context, modelID, c.String("output"))
			if err != nil {
				return fmt.Errorf("failed to download model: %w", err)
			}
			for _, p := range result.ModelPaths {
				fmt.Fprintf(e.stdout, "%s Model: %s\n", e.glyphs.OK, p)
			}
			for _, p := range result.SidecarPaths {
				fmt.Fprintf(e.stdout, "%s Sidecar: %s\n", e.glyphs.OK, p)
			}
			return nil
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newApp(os.Stdout, os.Stderr).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
