package logger

import (
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Log struct {
	LogLevel zapcore.Level `yaml:"level" envconfig:"LOG_LEVEL" default:"info"`
	Sink     string        `yaml:"sink" envconfig:"LOG_SINK"`
}

// NewLogger builds a named zap logger writing JSON to the configured sink
// (a file path) or to stderr when the sink is empty. closeSink releases
// the sink and must be called once the logger is no longer used.
func NewLogger(cfg Log, name string) (log *zap.Logger, closeSink func(), err error) {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	ws := zapcore.Lock(os.Stderr)
	closeSink = func() {}
	if cfg.Sink != "" {
		if ws, closeSink, err = zap.Open(cfg.Sink); err != nil {
			return nil, nil, errors.Wrapf(err, "open log sink %s", cfg.Sink)
		}
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), ws, zap.NewAtomicLevelAt(cfg.LogLevel))
	return zap.New(core, zap.AddCaller()).Named(name), closeSink, nil
}
