package inspector

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/zerfoo/zmodel/internal/term"
)

// RunOptions configures Run.
type RunOptions struct {
	Options
	JSON   bool
	Glyphs term.Glyphs
}

// ModelResult is one inspected path in a Run summary.
type ModelResult struct {
	Path   string  `json:"path"`
	Report *Report `json:"report,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// RunResult is everything Run produced.
type RunResult struct {
	Models     []ModelResult `json:"models"`
	Comparison *Comparison   `json:"comparison,omitempty"`
	// CompareError is set when two paths were given but could not be
	// compared.
	CompareError string `json:"compare_error,omitempty"`
}

// Run inspects every path in order and, when exactly two paths were given
// and both loaded, compares them. Reports go to w as text or JSON.
func Run(ctx context.Context, w io.Writer, paths []string, opts RunOptions) (*RunResult, error) {
	opts.Options = opts.withDefaults()
	res := &RunResult{}

	if !opts.JSON {
		fmt.Fprintf(w, "Model Inspector\n%s\n", rule)
	}

	loaded := 0
	for _, path := range paths {
		mr := ModelResult{Path: path}
		r, err := Inspect(ctx, path, opts.Options)
		if err != nil {
			opts.Logger.Error("failed to inspect model", slog.String("path", path), slog.Any("error", err))
			mr.Error = err.Error()
			if !opts.JSON {
				WriteLoadFailure(w, path, err, opts.Glyphs)
			}
		} else {
			loaded++
			mr.Report = r
			if !opts.JSON {
				WriteReport(w, r, opts.Glyphs)
			}
		}
		res.Models = append(res.Models, mr)
	}

	if len(paths) == 2 {
		if loaded == 2 {
			c, err := Compare(ctx, paths[0], paths[1], opts.Options)
			if err != nil {
				res.CompareError = err.Error()
				if !opts.JSON {
					fmt.Fprintf(w, "%s Comparison failed: %v\n", opts.Glyphs.Fail, err)
				}
			} else {
				res.Comparison = c
				if !opts.JSON {
					WriteComparison(w, c, opts.Glyphs)
				}
			}
		} else {
			res.CompareError = "one or both models failed to load"
			if !opts.JSON {
				fmt.Fprintf(w, "\n%s Could not compare models - %s\n", opts.Glyphs.Warn, res.CompareError)
			}
		}
	}

	if opts.JSON {
		if err := WriteJSON(w, res); err != nil {
			return res, fmt.Errorf("failed to encode report: %w", err)
		}
	}
	return res, nil
}
