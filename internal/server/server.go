package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus"

	"counterd/internal/api"
	"counterd/internal/assets"
	"counterd/internal/config"
	"counterd/internal/counter"
	"counterd/internal/metrics"
	"counterd/internal/render"
)

// Server はHTTPサーバーを管理する構造体
type Server struct {
	config     *config.Config
	httpServer *http.Server
	engine     *gin.Engine
	handler    *CounterHandler
}

// Option はServerの生成時の設定を変更する
type Option func(*Server)

// WithPageRenderer はページの生成関数を差し替える
func WithPageRenderer(fn PageRenderer) Option {
	return func(s *Server) {
		s.handler.render = fn
	}
}

// New は新しいServerインスタンスを作成する
// store と assets は呼び出し側が生成し、全ハンドラで共有される
func New(cfg *config.Config, store *counter.Store, resolver *assets.Resolver, opts ...Option) (*Server, error) {
	doc, err := api.GetSwagger()
	if err != nil {
		return nil, err
	}

	validator, err := api.NewRequestValidator(doc, "/increment/counter", http.MethodPost)
	if err != nil {
		return nil, fmt.Errorf("リクエストバリデータの作成に失敗: %w", err)
	}

	registry := prometheus.NewRegistry()
	namespace := cfg.Metrics.Namespace
	if namespace == "" {
		namespace = "counterd"
	}

	s := &Server{
		config: cfg,
		handler: &CounterHandler{
			store:       store,
			broadcaster: counter.NewBroadcaster(),
			assets:      resolver,
			render:      render.Page,
			metrics:     metrics.New(registry, metrics.WithNamespace(namespace)),
			validator:   validator,
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.engine = s.setupRoutes()
	s.httpServer = &http.Server{
		Addr:         cfg.ServerAddress(),
		Handler:      handlers.LoggingHandler(os.Stdout, s.engine),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s, nil
}

// Handler はアクセスログを含まないルーターを返す
func (s *Server) Handler() http.Handler {
	return s.engine
}

// setupRoutes はHTTPルートを設定する
func (s *Server) setupRoutes() *gin.Engine {
	engine := gin.New()

	// 完全一致以外でルートを解決しない
	engine.RedirectTrailingSlash = false
	engine.RedirectFixedPath = false
	engine.HandleMethodNotAllowed = true

	engine.Use(gin.Recovery())
	engine.Use(requestIDMiddleware())
	engine.Use(tracingMiddleware(s.config.Tracing.TracerName))
	engine.Use(s.handler.metrics.Middleware())

	// 加算APIとヘルスチェック
	api.RegisterHandlers(engine, s.handler)

	// ページは静的ファイルより優先される
	engine.GET("/", s.handler.Index)

	engine.GET("/ws/counter", s.handler.CounterFeed)
	if s.config.Metrics.Enabled {
		engine.GET("/metrics", gin.WrapH(s.handler.metrics.Handler()))
	}

	// その他の GET は静的ファイルとして扱う
	engine.NoRoute(s.handler.NotFound)
	engine.NoMethod(s.handler.MethodNotAllowed)

	return engine
}

// Start はサーバーを起動する
func (s *Server) Start(ctx context.Context) error {
	// シャットダウン用のチャンネル
	shutdownCh := make(chan error, 1)

	// サーバーを別ゴルーチンで起動
	go func() {
		log.Printf("HTTPサーバーを起動しています: %s", s.config.ServerAddress())
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			shutdownCh <- fmt.Errorf("サーバーの起動に失敗: %w", err)
		}
	}()

	// シグナルハンドリング
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	// コンテキストかシグナルを待つ
	select {
	case <-ctx.Done():
		log.Println("コンテキストがキャンセルされました")
	case sig := <-sigCh:
		log.Printf("シグナルを受信しました: %v", sig)
	case err := <-shutdownCh:
		return err
	}

	// グレースフルシャットダウン
	return s.Shutdown()
}

// Shutdown はサーバーをグレースフルにシャットダウンする
func (s *Server) Shutdown() error {
	log.Println("サーバーをシャットダウンしています...")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("サーバーのシャットダウンに失敗: %w", err)
	}

	log.Println("サーバーが正常にシャットダウンされました")
	return nil
}
