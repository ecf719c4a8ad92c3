// Package logger настраивает zap: консоль для разработки, JSON для продакшена,
// опционально файл с ротацией.
package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Zap struct {
	*zap.Logger
}

// Options - необязательные параметры файлового вывода.
type Options struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

func New(env, level string) (*Zap, error) {
	return NewWithOptions(env, level, Options{})
}

func NewWithOptions(env, level string, opts Options) (*Zap, error) {
	lvl := zap.NewAtomicLevel()
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		lvl.SetLevel(zap.InfoLevel)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder(env), zapcore.Lock(os.Stdout), lvl),
	}

	if opts.File != "" {
		fileWriter := zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, 20),
			MaxBackups: orDefault(opts.MaxBackups, 3),
			MaxAge:     orDefault(opts.MaxAgeDays, 14),
			Compress:   true,
		})
		cores = append(cores, zapcore.NewCore(encoder("prod"), fileWriter, lvl))
	}

	options := []zap.Option{zap.AddStacktrace(zap.ErrorLevel)}
	if isDev(env) {
		options = append(options, zap.AddCaller(), zap.Development())
	}

	return &Zap{Logger: zap.New(zapcore.NewTee(cores...), options...)}, nil
}

// Nop - логгер для тестов и встраивания.
func Nop() *Zap {
	return &Zap{Logger: zap.NewNop()}
}

func encoder(env string) zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02T15:04:05.000Z07:00")

	if isDev(env) {
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(cfg)
	}

	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(cfg)
}

func isDev(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "development", "local":
		return true
	}
	return false
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
