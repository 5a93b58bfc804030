package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Init builds the process logger and installs it as zap's global. When file
// is set, output goes there only; the terminal client owns stdout.
func Init(env, level, file string) (*zap.Logger, error) {
	var conf zap.Config
	if env == "production" {
		conf = zap.NewProductionConfig()
	} else {
		conf = zap.NewDevelopmentConfig()
		conf.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("zapcore.ParseLevel -> %w", err)
		}
		conf.Level = zap.NewAtomicLevelAt(lvl)
	}

	if file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			return nil, fmt.Errorf("os.MkdirAll -> %w", err)
		}
		conf.OutputPaths = []string{file}
		conf.ErrorOutputPaths = []string{file}
	}

	l, err := conf.Build()
	if err != nil {
		return nil, fmt.Errorf("conf.Build -> %w", err)
	}
	zap.ReplaceGlobals(l)

	return l, nil
}
