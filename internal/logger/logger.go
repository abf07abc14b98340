// internal/logger/logger.go
//
// Structured JSON logger (Zap + Lumberjack).
//
// Context
// -------
// NetPulse writes lifecycle and error events to one JSON log per day under
// `<LOG_DIR>/YYYY-MM-DD.log`.  When LOG_CONSOLE is set the same events are
// teed to stdout in console form.  Rotation, compression, and retention are
// handled by Lumberjack; no external log-rotate job is required.
//
// The file logger needs the resolved configuration, so boot runs in two
// steps:
//
//	logger.Bootstrap()                         // console only, before Load.
//	log, err := logger.New(config.LoggingFrom(snap))
//
// Notes
// -----
// • Zap core uses ISO-8601 timestamps and lowercase levels.
// • Errors are written to the same sink via `ErrorOutput`.
// • Oxford commas, two spaces after periods.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/netpulse/devicemngr/internal/config"
)

var encCfg = zapcore.EncoderConfig{
	TimeKey:      "ts",
	LevelKey:     "level",
	MessageKey:   "msg",
	CallerKey:    "caller",
	EncodeTime:   zapcore.ISO8601TimeEncoder,
	EncodeLevel:  zapcore.LowercaseLevelEncoder,
	EncodeCaller: zapcore.ShortCallerEncoder,
}

// Bootstrap installs a stderr console logger at INFO as the process-wide
// default, so configuration errors are visible before New can run.
func Bootstrap() *zap.SugaredLogger {
	z := zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stderr),
		zap.InfoLevel,
	)).Sugar()
	zap.ReplaceGlobals(z.Desugar())
	return z
}

// New returns a *zap.SugaredLogger that writes JSON to cfg.Dir and, when
// cfg.Console is set, tees to stdout.  The logger replaces the global one.
func New(cfg config.Logging) (*zap.SugaredLogger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}

	fileName := time.Now().Format("2006-01-02") + ".log"
	fileSink := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Dir, fileName),
		MaxSize:    50, // MB
		MaxBackups: 7,
		MaxAge:     14, // days
		Compress:   true,
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(fileSink), level),
	}
	if cfg.Console {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.AddSync(os.Stdout),
			level,
		))
	}

	z := zap.New(
		zapcore.NewTee(cores...),
		zap.ErrorOutput(zapcore.AddSync(fileSink)),
	).Sugar()

	zap.ReplaceGlobals(z.Desugar())

	z.Infow("logger online", "dir", cfg.Dir, "level", level.String(), "console", cfg.Console)
	return z, nil
}
