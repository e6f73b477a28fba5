// Package logger holds the process-wide zap logger.
package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	global *zap.Logger
)

// Init はenvに応じたグローバルロガーを初期化する
// 出力先はstderr（stdio transportではstdoutをJSON-RPCが使うため）
func Init(env string) error {
	var config zap.Config

	if env == "production" {
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	} else {
		config = zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}

	l, err := config.Build()
	if err != nil {
		return err
	}

	Set(l)
	return nil
}

// Set はグローバルロガーを差し替える（テスト用にzaptest等を渡せる）
func Set(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	global = l
}

// Sync はバッファ済みのログを書き出す
func Sync() {
	if l := current(); l != nil {
		_ = l.Sync()
	}
}

// Get はグローバルロガーを返す
// 未初期化の場合はNopロガーを返す
func Get() *zap.Logger {
	if l := current(); l != nil {
		return l
	}
	return zap.NewNop()
}

func current() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}
