// Package downloader fetches model artifacts and their sidecar files from a
// model hub.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/dustin/go-humanize"
	jsoniter "github.com/json-iterator/go"

	"github.com/zerfoo/zmodel/internal/fsutil"
)

const (
	DefaultAPIURL   = "https://huggingface.co/api/models/"
	DefaultCDNURL   = "https://huggingface.co/"
	DefaultRevision = "main"
)

// ErrNoModel is returned when a repository holds no model artifact.
var ErrNoModel = errors.New("no model artifact found")

// ModelSource defines the interface for a model source, such as HuggingFace.
type ModelSource interface {
	// DownloadModel downloads the model files of modelID into destination.
	DownloadModel(ctx context.Context, modelID string, destination string) (*DownloadResult, error)
}

// DownloadResult contains the paths of the downloaded files.
type DownloadResult struct {
	ModelPaths   []string
	SidecarPaths []string
}

// Downloader handles the overall download process using a ModelSource.
type Downloader struct {
	source ModelSource
}

// NewDownloader creates a new Downloader with the given ModelSource.
func NewDownloader(source ModelSource) *Downloader {
	return &Downloader{source: source}
}

// Download fetches modelID into destination using the configured source.
func (d *Downloader) Download(ctx context.Context, modelID string, destination string) (*DownloadResult, error) {
	return d.source.DownloadModel(ctx, modelID, destination)
}

// IsModelFile reports whether name is a model artifact zmodel can inspect.
func IsModelFile(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".onnx", ".tflite", ".zmf":
		return true
	}
	return false
}

// IsSidecarFile reports whether name travels with a model: label lists,
// tokenizer files and JSON or text metadata.
func IsSidecarFile(name string) bool {
	base := strings.ToLower(path.Base(name))
	return strings.HasPrefix(base, "labels") ||
		strings.Contains(base, "tokenizer") ||
		strings.HasSuffix(base, ".json") ||
		strings.HasSuffix(base, ".txt")
}

// statusError is a non-OK HTTP response.
type statusError struct {
	url    string
	status string
	code   int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s returned status %s", e.url, e.status)
}

// retryable reports whether err is worth another attempt: transport errors,
// throttling and server errors.
func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// HuggingFaceSource implements ModelSource for the HuggingFace Hub.
type HuggingFaceSource struct {
	client     *http.Client
	apiKey     string
	apiURL     string
	cdnURL     string
	revision   string
	attempts   uint
	retryDelay time.Duration
	logger     *slog.Logger
}

// Option configures a HuggingFaceSource.
type Option func(*HuggingFaceSource)

func WithHTTPClient(c *http.Client) Option { return func(h *HuggingFaceSource) { h.client = c } }
func WithAPIKey(key string) Option { return func(h *HuggingFaceSource) { h.apiKey = key } }
func WithAPIURL(u string) Option { return func(h *HuggingFaceSource) { h.apiURL = u } }
func WithCDNURL(u string) Option { return func(h *HuggingFaceSource) { h.cdnURL = u } }
func WithRevision(rev string) Option { return func(h *HuggingFaceSource) { h.revision = rev } }
func WithLogger(l *slog.Logger) Option { return func(h *HuggingFaceSource) { h.logger = l } }
func WithRetryDelay(d time.Duration) Option { return func(h *HuggingFaceSource) { h.retryDelay = d } }

// WithMaxRetries sets how many times a failed request is retried.
func WithMaxRetries(n uint) Option { return func(h *HuggingFaceSource) { h.attempts = n + 1 } }

// NewHuggingFaceSource creates a new HuggingFaceSource.
func NewHuggingFaceSource(opts ...Option) *HuggingFaceSource {
	h := &HuggingFaceSource{
		client:     &http.Client{},
		apiURL:     DefaultAPIURL,
		cdnURL:     DefaultCDNURL,
		revision:   DefaultRevision,
		attempts:   4,
		retryDelay: 500 * time.Millisecond,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if !strings.HasSuffix(h.apiURL, "/") {
		h.apiURL += "/"
	}
	if !strings.HasSuffix(h.cdnURL, "/") {
		h.cdnURL += "/"
	}
	if h.attempts == 0 {
		h.attempts = 1
	}
	return h
}

// HuggingFaceModelInfo is the part of the Hub API model response we use.
type HuggingFaceModelInfo struct {
	ModelID  string `json:"modelId"`
	Siblings []struct {
		RPath string `json:"rfilename"`
	} `json:"siblings"`
}

// DownloadModel lists modelID's files through the Hub API and downloads its
// model artifacts and sidecar files into destination.
func (h *HuggingFaceSource) DownloadModel(ctx context.Context, modelID string, destination string) (*DownloadResult, error) {
	info, err := h.modelInfo(ctx, modelID)
	if err != nil {
		return nil, err
	}

	var models, sidecars []string
	for _, s := range info.Siblings {
		switch {
		case IsModelFile(s.RPath):
			models = append(models, s.RPath)
		case IsSidecarFile(s.RPath):
			sidecars = append(sidecars, s.RPath)
		}
	}
	if len(models) == 0 {
		return nil, fmt.Errorf("%w for model ID: %s", ErrNoModel, modelID)
	}

	result := &DownloadResult{}
	for _, rPath := range models {
		p, err := h.fetch(ctx, modelID, rPath, destination)
		if err != nil {
			return nil, fmt.Errorf("failed to download model file %s: %w", rPath, err)
		}
		result.ModelPaths = append(result.ModelPaths, p)
	}
	for _, rPath := range sidecars {
		p, err := h.fetch(ctx, modelID, rPath, destination)
		if err != nil {
			return nil, fmt.Errorf("failed to download sidecar file %s: %w", rPath, err)
		}
		result.SidecarPaths = append(result.SidecarPaths, p)
	}
	return result, nil
}

func (h *HuggingFaceSource) modelInfo(ctx context.Context, modelID string) (*HuggingFaceModelInfo, error) {
	apiURL := h.apiURL + modelID
	var info HuggingFaceModelInfo
	err := h.do(ctx, apiURL, func(body io.Reader) error {
		return jsoniter.NewDecoder(body).Decode(&info)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch model info from HuggingFace API: %w", err)
	}
	return &info, nil
}

func (h *HuggingFaceSource) fetch(ctx context.Context, modelID, rPath, destination string) (string, error) {
	target := filepath.Join(destination, filepath.Base(rPath))
	fileURL, err := url.JoinPath(h.cdnURL, modelID, "resolve", h.revision, rPath)
	if err != nil {
		return "", err
	}

	var written int64
	err = h.do(ctx, fileURL, func(body io.Reader) (err error) {
		out, err := fsutil.Create(ctx, target)
		if err != nil {
			return fmt.Errorf("failed to create file %s: %w", target, err)
		}
		defer func() {
			if cerr := out.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("failed to close file %s: %w", target, cerr)
			}
		}()
		written, err = io.Copy(out, body)
		if err != nil {
			return fmt.Errorf("failed to write file %s: %w", target, err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	h.logger.Info("downloaded file",
		slog.String("model", modelID),
		slog.String("file", rPath),
		slog.String("size", humanize.IBytes(uint64(written))))
	return target, nil
}

// do GETs rawURL and hands an OK body to consume, retrying transient
// failures.
func (h *HuggingFaceSource) do(ctx context.Context, rawURL string, consume func(io.Reader) error) error {
	return retry.Do(
		func() (err error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			if h.apiKey != "" {
				req.Header.Set("Authorization", "Bearer "+h.apiKey)
			}
			resp, err := h.client.Do(req)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := resp.Body.Close(); cerr != nil && err == nil {
					err = fmt.Errorf("failed to close response body for %s: %w", rawURL, cerr)
				}
			}()
			if resp.StatusCode != http.StatusOK {
				return &statusError{url: rawURL, status: resp.Status, code: resp.StatusCode}
			}
			return consume(resp.Body)
		},
		retry.Attempts(h.attempts),
		retry.Delay(h.retryDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryable),
		retry.OnRetry(func(n uint, err error) {
			h.logger.Warn("retrying request", slog.String("url", rawURL), slog.Uint64("attempt", uint64(n+1)), slog.Any("error", err))
		}),
	)
}
