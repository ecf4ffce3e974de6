/*
Copyright 2024 The Clair authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package logging configures the process-wide structured logger. All
// components log through logr; this package only decides how those
// records are encoded and filtered.
package logging

import (
	"fmt"

	"github.com/go-logr/logr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	ctrlzap "sigs.k8s.io/controller-runtime/pkg/log/zap"
)

// Config selects the log level and output format.
type Config struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" json:"level"`

	// Format is json or console.
	Format string `yaml:"format" json:"format"`
}

// DefaultConfig returns the production logging configuration.
func DefaultConfig() *Config {
	return &Config{Level: "info", Format: "json"}
}

// NewLogger builds a logr.Logger from the configuration. The returned
// logger is meant to be installed once via ctrl.SetLogger.
func NewLogger(config *Config) (logr.Logger, error) {
	if config == nil {
		config = DefaultConfig()
	}

	level, err := parseLevel(config.Level)
	if err != nil {
		return logr.Logger{}, err
	}

	opts := ctrlzap.Options{
		Level:       level,
		Development: config.Level == "debug",
	}
	switch config.Format {
	case "", "json":
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "time"
		encoderConfig.MessageKey = "msg"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
		opts.Encoder = zapcore.NewJSONEncoder(encoderConfig)
	case "console":
		opts.Encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	default:
		return logr.Logger{}, fmt.Errorf("unknown log format %q", config.Format)
	}

	return ctrlzap.New(ctrlzap.UseFlagOptions(&opts)), nil
}

func parseLevel(level string) (zapcore.LevelEnabler, error) {
	switch level {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return nil, fmt.Errorf("unknown log level %q", level)
	}
}
