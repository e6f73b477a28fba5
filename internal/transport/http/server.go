// Package http implements the HTTP transport for the builder-profile server.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const (
	// DefaultAddr はAddr未設定時のlistenアドレス
	DefaultAddr = "127.0.0.1:8765"
	// MaxBodySize はリクエストボディの上限（1MB）
	MaxBodySize = 1024 * 1024
	// ReadHeaderTimeout はヘッダー読み取りのタイムアウト
	ReadHeaderTimeout = 10 * time.Second
)

// Handler はJSON-RPCリクエストを処理する
// 通知の場合はnilを返す
type Handler interface {
	Handle(ctx context.Context, requestBytes []byte) []byte
}

// Config はHTTPサーバー設定
type Config struct {
	Addr        string   // listen address (例: "127.0.0.1:8765")
	CORSOrigins []string // 許可するオリジンリスト、空ならCORS無効
}

// Option はサーバーオプション
type Option func(*Server)

// WithGraphQL は /graphql に割り当てるハンドラーを設定
func WithGraphQL(h http.Handler) Option {
	return func(s *Server) {
		s.graphql = h
	}
}

// WithLogger はロガーを設定
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// Server はHTTPサーバー（JSON-RPC / MCP / GraphQL）
type Server struct {
	handler Handler
	config  Config
	graphql http.Handler
	logger  *zap.Logger
	router  chi.Router
	srv     *http.Server
}

// New は新しいServerを生成
func New(handler Handler, config Config, opts ...Option) *Server {
	if config.Addr == "" {
		config.Addr = DefaultAddr
	}
	s := &Server{
		handler: handler,
		config:  config,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(s.corsMiddleware)

	r.Get("/health", s.handleHealth)
	r.Post("/rpc", s.handleRPC)
	r.Options("/rpc", s.handlePreflight)
	r.Post("/mcp", s.handleMCP)
	r.Options("/mcp", s.handlePreflight)
	if s.graphql != nil {
		r.Handle("/graphql", s.graphql)
	}
	s.router = r

	s.srv = &http.Server{
		Addr:              config.Addr,
		Handler:           r,
		ReadHeaderTimeout: ReadHeaderTimeout,
	}

	return s
}

// Handler はルーターを返す（テスト・組み込み用）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run はサーバーを起動し、contextがキャンセルされるまで実行
func (s *Server) Run(ctx context.Context) error {
	// contextキャンセル時にShutdownを呼ぶ
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("http shutdown failed", zap.Error(err))
		}
	}()

	s.logger.Info("http server listening", zap.String("addr", s.config.Addr))
	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		// Graceful shutdownはエラーではない
		return nil
	}
	return err
}

// handleHealth はヘルスチェック
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handlePreflight はPreflightリクエストに応答
func (s *Server) handlePreflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// handleRPC はプレーンなJSON-RPCリクエストを処理
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	respBytes, ok := s.process(w, r)
	if !ok {
		return
	}
	if respBytes == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(respBytes)
}

// handleMCP はMCP Streamable HTTPリクエストを処理
// クライアントがtext/event-streamを受け付ける場合はSSEで1イベントを返す
func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	respBytes, ok := s.process(w, r)
	if !ok {
		return
	}
	if respBytes == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	if acceptsEventStream(r) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "event: message\ndata: %s\n\n", respBytes)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(respBytes)
}

// process はContent-Type確認・ボディ読み取り・JSON-RPC処理を行う
// エラー応答を書き込んだ場合はfalseを返す
func (s *Server) process(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	// Content-Type確認
	contentType := r.Header.Get("Content-Type")
	if !strings.Contains(contentType, "application/json") {
		http.Error(w, "Unsupported Media Type", http.StatusUnsupportedMediaType)
		return nil, false
	}

	// リクエストボディ読み取り（サイズ上限付き）
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodySize))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "Request Entity Too Large", http.StatusRequestEntityTooLarge)
			return nil, false
		}
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return nil, false
	}

	return s.handler.Handle(r.Context(), body), true
}

func acceptsEventStream(r *http.Request) bool {
	for _, v := range r.Header.Values("Accept") {
		if strings.Contains(v, "text/event-stream") {
			return true
		}
	}
	return false
}

// corsMiddleware は許可オリジンに対してCORSヘッダーを設定
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.handleCORS(w, r)
		next.ServeHTTP(w, r)
	})
}

// handleCORS はCORSヘッダーを設定
func (s *Server) handleCORS(w http.ResponseWriter, r *http.Request) {
	// CORS無効ならスキップ
	if len(s.config.CORSOrigins) == 0 {
		return
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}

	// 許可オリジンをチェック
	if !slices.Contains(s.config.CORSOrigins, origin) {
		return
	}

	// CORSヘッダーを設定
	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Mcp-Session-Id")
	w.Header().Set("Vary", "Origin")
}
