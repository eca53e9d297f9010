// Package opsetconv runs the four-stage ONNX opset conversion pipeline:
// load, convert, validate and save, reporting each stage on the console.
package opsetconv

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/zerfoo/zmodel/internal/onnx"
	"github.com/zerfoo/zmodel/internal/term"
	"github.com/zerfoo/zmodel/pkg/checker"
	"github.com/zerfoo/zmodel/pkg/converter"
	"github.com/zerfoo/zmodel/pkg/importer"
)

const rule = "============================================================"

// Options configures one conversion run.
type Options struct {
	Input  string
	Output string
	Target int64
	// Out receives the console report.
	Out    io.Writer
	Glyphs term.Glyphs
	Logger *slog.Logger
}

// Result summarises a run. Warning holds the validation failure, if any.
type Result struct {
	Success     bool
	SourceOpset int64
	TargetOpset int64
	IRVersion   int64
	OutputBytes int64
	Warning     error
}

// Run executes the pipeline. It returns the stage error that stopped the run;
// the report, including re-export guidance, has already been printed by then.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	r := &reporter{w: opts.Out, g: opts.Glyphs}
	res := &Result{TargetOpset: opts.Target}

	r.banner("ONNX Model Opset Converter")
	err := run(ctx, opts, r, res)
	if err != nil {
		opts.Logger.Error("opset conversion failed", slog.String("input", opts.Input), slog.Any("error", err))
		r.guidance(opts.Target)
		return res, err
	}
	res.Success = true
	r.completion(opts, res.SourceOpset)
	return res, nil
}

func run(ctx context.Context, opts Options, r *reporter, res *Result) error {
	log := opts.Logger

	r.printf("\n[1/4] Loading model from: %s\n", opts.Input)
	model, err := importer.LoadOnnxModel(ctx, opts.Input)
	if err != nil {
		r.printf("%s Error loading model: %v\n", r.g.Fail, err)
		return err
	}
	res.SourceOpset, _ = onnx.DefaultOpsetVersion(model)
	res.IRVersion = model.GetIrVersion()
	r.printf("%s Model loaded successfully\n", r.g.OK)
	r.printf("  Current Opset version: %d\n", res.SourceOpset)
	r.printf("  Model IR version: %d\n", res.IRVersion)
	log.Info("model loaded", slog.String("path", opts.Input),
		slog.Int64("opset", res.SourceOpset), slog.Int64("ir_version", res.IRVersion))

	r.printf("\n[2/4] Converting to Opset %d...\n", opts.Target)
	converted, err := converter.ConvertVersion(model, opts.Target, converter.WithLogger(log))
	if err != nil {
		r.printf("%s Error converting model: %v\n", r.g.Fail, err)
		r.printf("\nNote: If conversion fails, you may need to re-export your model\n")
		r.printf("from the original training framework (PyTorch, TensorFlow, etc.)\n")
		r.printf("with opset_version=%d specified during export.\n", opts.Target)
		return err
	}
	newOpset, _ := onnx.DefaultOpsetVersion(converted)
	r.printf("%s Conversion successful\n", r.g.OK)
	r.printf("  New Opset version: %d\n", newOpset)
	log.Info("model converted", slog.Int64("from", res.SourceOpset), slog.Int64("to", newOpset))

	r.printf("\n[3/4] Validating converted model...\n")
	if err := checker.Check(converted); err != nil {
		res.Warning = err
		r.printf("%s Warning during validation: %v\n", r.g.Warn, err)
		r.printf("The model may still work, continuing...\n")
		log.Warn("validation failed", slog.Any("error", err))
	} else {
		r.printf("%s Model validation passed\n", r.g.OK)
	}

	r.printf("\n[4/4] Saving converted model to: %s\n", opts.Output)
	size, err := importer.SaveOnnxModel(ctx, converted, opts.Output)
	if err != nil {
		r.printf("%s Error saving model: %v\n", r.g.Fail, err)
		return err
	}
	res.OutputBytes = size
	r.printf("%s Model saved successfully (%.2f MB)\n", r.g.OK, float64(size)/(1024*1024))
	log.Info("model saved", slog.String("path", opts.Output), slog.String("size", humanize.IBytes(uint64(size))))
	return nil
}

// BackupName is the name the original model should be renamed to before the
// converted model takes its place.
func BackupName(input string, sourceOpset int64) string {
	ext := filepath.Ext(input)
	stem := strings.TrimSuffix(filepath.Base(input), ext)
	if ext == "" {
		ext = ".onnx"
	}
	return filepath.Join(filepath.Dir(input), fmt.Sprintf("%s_opset%d_backup%s", stem, sourceOpset, ext))
}

type reporter struct {
	w io.Writer
	g term.Glyphs
}

func (r *reporter) printf(format string, args ...any) {
	fmt.Fprintf(r.w, format, args...)
}

func (r *reporter) banner(title string) {
	r.printf("%s\n  %s\n%s\n", rule, title, rule)
}

func (r *reporter) completion(opts Options, sourceOpset int64) {
	r.printf("\n")
	r.banner("CONVERSION COMPLETE!")
	r.printf("\n%s Your converted model is ready at:\n", r.g.OK)
	r.printf("  %s\n", opts.Output)
	r.printf("\nNext steps:\n")
	r.printf("1. Rename the old model (backup):\n")
	r.printf("   mv %s %s\n", opts.Input, BackupName(opts.Input, sourceOpset))
	r.printf("2. Rename the new model:\n")
	r.printf("   mv %s %s\n", opts.Output, opts.Input)
	r.printf("3. Rebuild and run your app\n\n")
}

func (r *reporter) guidance(target int64) {
	r.printf("\n")
	r.banner("ALTERNATIVE: Re-export from source")
	r.printf("\nIf conversion failed, re-export your model from PyTorch/TensorFlow\n")
	r.printf("with the correct opset version:\n")
	r.printf("\nFor PyTorch:\n")
	r.printf("  torch.onnx.export(model, dummy_input, 'my_model.onnx',\n")
	r.printf("                    opset_version=%d,\n", target)
	r.printf("                    input_names=['images'],\n")
	r.printf("                    output_names=['output'])\n")
	r.printf("\nFor TensorFlow (via tf2onnx):\n")
	r.printf("  python -m tf2onnx.convert --saved-model model_path\n")
	r.printf("                            --output my_model.onnx\n")
	r.printf("                            --opset %d\n\n", target)
}
