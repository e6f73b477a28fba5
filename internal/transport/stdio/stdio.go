// Package stdio implements the line-delimited stdio transport for the builder-profile server.
package stdio

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
)

// MaxBufferSize はScannerの最大バッファサイズ（1MB）
const MaxBufferSize = 1024 * 1024

// Handler はJSON-RPCリクエストを処理するインターフェース
// 通知の場合はnilを返す
type Handler interface {
	Handle(ctx context.Context, requestBytes []byte) []byte
}

// Server はstdio JSON-RPCサーバー
type Server struct {
	handler Handler
	reader  io.Reader
	writer  io.Writer
	logger  *zap.Logger
}

// Option はサーバーオプション
type Option func(*Server)

// WithReader はreaderを設定（テスト用）
func WithReader(r io.Reader) Option {
	return func(s *Server) {
		s.reader = r
	}
}

// WithWriter はwriterを設定（テスト用）
func WithWriter(w io.Writer) Option {
	return func(s *Server) {
		s.writer = w
	}
}

// WithLogger はロガーを設定
// stdoutはプロトコル専用なのでロガーはstderrに向けること
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New は新しいServerを生成
func New(handler Handler, opts ...Option) *Server {
	s := &Server{
		handler: handler,
		reader:  os.Stdin,
		writer:  os.Stdout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run はサーバーを起動し、EOFまたはcontextがキャンセルされるまで実行
func (s *Server) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.reader)
	// バッファサイズを1MBに拡張
	buf := make([]byte, MaxBufferSize)
	scanner.Buffer(buf, MaxBufferSize)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		// 1行読み取り
		if !scanner.Scan() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := scanner.Err(); err != nil {
				s.logger.Error("stdio read failed", zap.Error(err))
				return err
			}
			// EOF: 正常終了
			return nil
		}

		line := scanner.Text()

		// 空行はスキップ
		if strings.TrimSpace(line) == "" {
			continue
		}

		response := s.handler.Handle(ctx, []byte(line))
		// 通知には応答しない
		if response == nil {
			continue
		}

		// レスポンスを書き込み（1行 + 改行）
		if _, err := s.writer.Write(append(response, '\n')); err != nil {
			return err
		}
	}
}
