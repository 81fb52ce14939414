package logger_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/Astemirdum/bookstore-storefront/pkg/logger"
)

func TestNewLogger(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	tests := []struct {
		name    string
		sink    string
		wantErr bool
	}{
		{name: "stderr"},
		{name: "file", sink: filepath.Join(dir, "app.log")},
		{name: "unwritable", sink: filepath.Join(dir, "missing", "app.log"), wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			log, closeSink, err := logger.NewLogger(logger.Log{LogLevel: zapcore.InfoLevel, Sink: tt.sink}, "test")
			if tt.wantErr {
				require.Error(t, err)
				require.Nil(t, log)
				return
			}
			require.NoError(t, err)
			log.Info("hello")
			_ = log.Sync()
			closeSink()
			if tt.sink != "" {
				raw, err := os.ReadFile(tt.sink)
				require.NoError(t, err)
				require.Contains(t, string(raw), `"msg":"hello"`)
				require.Contains(t, string(raw), `"logger":"test"`)
			}
		})
	}
}
