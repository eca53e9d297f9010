package downloader

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockModelSource is a mock implementation of the ModelSource interface for testing.
type MockModelSource struct {
	mockDownloadModel func(ctx context.Context, modelID string, destination string) (*DownloadResult, error)
}

func (m *MockModelSource) DownloadModel(ctx context.Context, modelID string, destination string) (*DownloadResult, error) {
	if m.mockDownloadModel != nil {
		return m.mockDownloadModel(ctx, modelID, destination)
	}
	return nil, errors.New("DownloadModel not implemented for mock")
}

func TestDownloader_Download(t *testing.T) {
	tests := []struct {
		name        string
		mockResult  *DownloadResult
		mockError   error
		expectError bool
	}{
		{
			name: "Successful download",
			mockResult: &DownloadResult{
				ModelPaths:   []string{"/tmp/download/model.tflite"},
				SidecarPaths: []string{"/tmp/download/labels.txt"},
			},
		},
		{
			name:        "Download with error",
			mockError:   errors.New("mock download error"),
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDownloader(&MockModelSource{
				mockDownloadModel: func(context.Context, string, string) (*DownloadResult, error) {
					return tt.mockResult, tt.mockError
				},
			})
			result, err := d.Download(context.Background(), "test-model", "/tmp/download")
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.mockResult, result)
		})
	}
}

func TestFileClassification(t *testing.T) {
	for _, name := range []string{"model.onnx", "sub/yolo11n.TFLITE", "m.zmf"} {
		assert.True(t, IsModelFile(name), name)
	}
	for _, name := range []string{"labels.txt", "labels_coco.txt", "config.json", "tokenizer.model", "README.txt"} {
		assert.True(t, IsSidecarFile(name), name)
	}
	assert.False(t, IsModelFile("weights.bin"))
	assert.False(t, IsSidecarFile("weights.bin"))
}

func newSource(t *testing.T, api, cdn http.HandlerFunc, opts ...Option) *HuggingFaceSource {
	t.Helper()
	apiServer := httptest.NewServer(api)
	t.Cleanup(apiServer.Close)
	if cdn == nil {
		cdn = func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) }
	}
	cdnServer := httptest.NewServer(cdn)
	t.Cleanup(cdnServer.Close)

	base := []Option{WithAPIURL(apiServer.URL), WithCDNURL(cdnServer.URL), WithRetryDelay(time.Millisecond)}
	return NewHuggingFaceSource(append(base, opts...)...)
}

func TestHuggingFaceSource_DownloadModel(t *testing.T) {
	tests := []struct {
		name             string
		modelID          string
		apiHandler       http.HandlerFunc
		cdnHandler       http.HandlerFunc
		expectedModels   []string
		expectedSidecars []string
		expectedError    string
	}{
		{
			name:    "Successful download of TFLite model and labels",
			modelID: "test-org/test-model",
			apiHandler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"modelId": "test-org/test-model","siblings": [{"rfilename": "model.tflite"},{"rfilename": "labels.txt"},{"rfilename": "config.json"},{"rfilename": "weights.bin"}]}`)
			},
			cdnHandler: func(w http.ResponseWriter, r *http.Request) {
				if !strings.HasPrefix(r.URL.Path, "/test-org/test-model/resolve/main/") {
					http.NotFound(w, r)
					return
				}
				fmt.Fprintf(w, "content of %s", filepath.Base(r.URL.Path))
			},
			expectedModels:   []string{"model.tflite"},
			expectedSidecars: []string{"labels.txt", "config.json"},
		},
		{
			name:    "Model not found on HuggingFace API",
			modelID: "nonexistent/model",
			apiHandler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "Not Found", http.StatusNotFound)
			},
			expectedError: "returned status 404 Not Found",
		},
		{
			name:    "No model artifact in repository",
			modelID: "test-org/no-model",
			apiHandler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"modelId": "test-org/no-model","siblings": [{"rfilename": "tokenizer.json"}]}`)
			},
			expectedError: "no model artifact found for model ID: test-org/no-model",
		},
		{
			name:    "CDN download failure",
			modelID: "test-org/cdn-fail",
			apiHandler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"modelId": "test-org/cdn-fail","siblings": [{"rfilename": "model.onnx"}]}`)
			},
			cdnHandler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			},
			expectedError: "failed to download model file model.onnx",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			src := newSource(t, tt.apiHandler, tt.cdnHandler, WithMaxRetries(1))
			result, err := src.DownloadModel(context.Background(), tt.modelID, dir)

			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				assert.Nil(t, result)
				return
			}
			require.NoError(t, err)

			var models, sidecars []string
			for _, name := range tt.expectedModels {
				models = append(models, filepath.Join(dir, name))
			}
			for _, name := range tt.expectedSidecars {
				sidecars = append(sidecars, filepath.Join(dir, name))
			}
			assert.Equal(t, models, result.ModelPaths)
			assert.Equal(t, sidecars, result.SidecarPaths)

			content, err := os.ReadFile(result.ModelPaths[0])
			require.NoError(t, err)
			assert.Equal(t, "content of model.tflite", string(content))
		})
	}
}

func TestHuggingFaceSource_NoModelIsSentinel(t *testing.T) {
	src := newSource(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"siblings": []}`)
	}, nil)
	_, err := src.DownloadModel(context.Background(), "org/empty", t.TempDir())
	assert.ErrorIs(t, err, ErrNoModel)
}

func TestHuggingFaceSource_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	src := newSource(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"siblings": [{"rfilename": "m.onnx"}]}`)
	}, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "onnx")
	}, WithMaxRetries(3))

	result, err := src.DownloadModel(context.Background(), "org/flaky", t.TempDir())
	require.NoError(t, err)
	assert.Len(t, result.ModelPaths, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHuggingFaceSource_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	src := newSource(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "forbidden", http.StatusForbidden)
	}, nil, WithMaxRetries(3))

	_, err := src.DownloadModel(context.Background(), "org/private", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestHuggingFaceSource_SendsAPIKey(t *testing.T) {
	var auth atomic.Value
	src := newSource(t, func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"siblings": [{"rfilename": "m.zmf"}]}`)
	}, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "zmf")
	}, WithAPIKey("secret"))

	_, err := src.DownloadModel(context.Background(), "org/m", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", auth.Load())
}
