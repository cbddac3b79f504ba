package logger

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/suteetoe/erp/pkg/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLevelFromString(t *testing.T) {
	require.Equal(t, zapcore.DebugLevel, levelFromString("debug"))
	require.Equal(t, zapcore.WarnLevel, levelFromString("warning"))
	require.Equal(t, zapcore.ErrorLevel, levelFromString("error"))
	require.Equal(t, zapcore.InfoLevel, levelFromString("nonsense"))
}

func TestInitLoggerWritesRotatingFile(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		ServiceName: "erp",
		Server:      config.ServerConfig{Env: "production"},
		Log: config.LogConfig{
			Level:        "info",
			File:         filepath.Join(dir, "logs", "erp.log"),
			MaxAge:       time.Hour,
			RotationTime: time.Hour,
		},
	}

	l, err := InitLogger(cfg)
	require.NoError(t, err)
	l.Info("hello", zap.String("k", "v"))
	_ = l.Sync()

	matches, err := filepath.Glob(filepath.Join(dir, "logs", "erp.log.*"))
	require.NoError(t, err)
	require.NotEmpty(t, matches)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	require.Contains(t, string(data), `"msg":"hello"`)
}

func TestFromContextFallsBackToGlobal(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	require.Same(t, GetLogger(), FromContext(c))

	scoped := zap.NewNop().With(zap.String("request_id", "abc"))
	WithLogger(c, scoped)
	require.Same(t, scoped, FromContext(c))
}
