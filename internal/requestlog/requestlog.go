// Package requestlog appends one line per accepted prediction request to a
// text file. The file is opened once and only ever appended to.
package requestlog

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Recorder receives the feature vector of every request that reaches the model.
type Recorder interface {
	Record(features []float64)
}

// Nop discards every record. It is used when the request log is disabled.
type Nop struct{}

func (Nop) Record([]float64) {}

type Options struct {
	Path string
	// Name is the logger name written on every line.
	Name string
	// MaxSizeMB enables size based rotation when positive. Zero keeps a
	// single unbounded file.
	MaxSizeMB int
}

// Logger writes request records through a dedicated zap core.
type Logger struct {
	logger *zap.Logger
	sink   io.Closer
}

func Open(opts Options) (*Logger, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("request log path is empty")
	}

	var ws zapcore.WriteSyncer
	var sink io.Closer
	if opts.MaxSizeMB > 0 {
		lj := &lumberjack.Logger{
			Filename: opts.Path,
			MaxSize:  opts.MaxSizeMB,
		}
		ws, sink = zapcore.AddSync(lj), lj
	} else {
		f, err := os.OpenFile(opts.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open request log: %w", err)
		}
		ws, sink = f, f
	}

	return New(zapcore.Lock(ws), opts.Name, sink), nil
}

// New builds a Logger on top of an arbitrary write syncer. sink may be nil.
func New(ws zapcore.WriteSyncer, name string, sink io.Closer) *Logger {
	encCfg := zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		NameKey:          "logger",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeName:       zapcore.FullNameEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), ws, zapcore.InfoLevel)
	logger := zap.New(core)
	if name != "" {
		logger = logger.Named(name)
	}
	return &Logger{logger: logger, sink: sink}
}

func (l *Logger) Record(features []float64) {
	l.logger.Info("Received: " + Format(features))
}

func (l *Logger) Close() error {
	_ = l.logger.Sync()
	if l.sink == nil {
		return nil
	}
	return l.sink.Close()
}

// Format renders a feature vector as a bracketed, comma separated list.
func Format(features []float64) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range features {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	}
	b.WriteByte(']')
	return b.String()
}
