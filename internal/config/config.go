// Package config loads zmodel settings from struct defaults, an optional TOML
// file and ZMODEL_* environment variables, in increasing priority.
package config

import (
	"context"
	"log/slog"
	"os"
	"reflect"

	"github.com/mcuadros/go-defaults"
	"github.com/naoina/toml"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	LogFile string `toml:"log_file" env:"ZMODEL_LOG_FILE" default:"zmodel.log"`
	Verbose bool   `toml:"verbose" env:"ZMODEL_VERBOSE" default:"false"`

	Converter struct {
		Input       string `toml:"input" env:"ZMODEL_CONVERTER_INPUT" default:"app/src/main/assets/my_model.onnx"`
		Output      string `toml:"output" env:"ZMODEL_CONVERTER_OUTPUT" default:"app/src/main/assets/my_model_opset21.onnx"`
		TargetOpset int64  `toml:"target_opset" env:"ZMODEL_CONVERTER_TARGET_OPSET" default:"21"`
		// Strict makes a failed conversion exit non-zero.
		Strict bool `toml:"strict" env:"ZMODEL_CONVERTER_STRICT" default:"false"`
	} `toml:"converter"`

	Inspector struct {
		CurrentModel string `toml:"current_model" env:"ZMODEL_INSPECTOR_CURRENT_MODEL" default:"/opt/zmodel/models/die_classifier.tflite"`
		NewModel     string `toml:"new_model" env:"ZMODEL_INSPECTOR_NEW_MODEL" default:"/opt/zmodel/models/my_model_float32.tflite"`
		Seed         int64  `toml:"seed" env:"ZMODEL_INSPECTOR_SEED" default:"0"`
		// Backend selects the ONNX runtime: "go" (gonnx) or "ort" (onnxruntime).
		Backend       string `toml:"backend" env:"ZMODEL_INSPECTOR_BACKEND" default:"go"`
		ORTLibrary    string `toml:"ort_library" env:"ZMODEL_ORT_LIBRARY" default:"/usr/local/lib/libonnxruntime.so"`
		TFLiteThreads int    `toml:"tflite_threads" env:"ZMODEL_TFLITE_THREADS" default:"1"`

		Layout struct {
			MinPredictions int64 `toml:"min_predictions" env:"ZMODEL_LAYOUT_MIN_PREDICTIONS" default:"100"`
			BoxCoordinates int64 `toml:"box_coordinates" env:"ZMODEL_LAYOUT_BOX_COORDINATES" default:"4"`
		} `toml:"layout"`
	} `toml:"inspector"`

	Downloader struct {
		APIKey     string `toml:"api_key" env:"HF_API_KEY"`
		APIURL     string `toml:"api_url" env:"HUGGINGFACE_API_URL" default:"https://huggingface.co/api/models/"`
		CDNURL     string `toml:"cdn_url" env:"HUGGINGFACE_CDN_URL" default:"https://huggingface.co/"`
		Revision   string `toml:"revision" env:"ZMODEL_DOWNLOAD_REVISION" default:"main"`
		MaxRetries uint   `toml:"max_retries" env:"ZMODEL_DOWNLOAD_MAX_RETRIES" default:"3"`
	} `toml:"downloader"`
}

// LoadConfig builds a Config. configFile may be empty.
func LoadConfig(configFile string) (*Config, error) {
	defer slog.Debug("end load config")
	slog.Debug("start load config", slog.String("file", configFile))

	cfg := &Config{}
	defaults.SetDefaults(cfg)
	toml.DefaultConfig.MissingField = func(typ reflect.Type, key string) error {
		return nil
	}

	if configFile != "" {
		f, err := os.Open(configFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if err := toml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, err
		}
	}

	// Environment always wins over the file and the defaults.
	err := envconfig.ProcessWith(context.Background(), &envconfig.Config{
		Target:           cfg,
		DefaultOverwrite: true,
	})
	return cfg, err
}
