// Package http 提供HTTP服务器功能
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"depositform/ml"

	"go.uber.org/zap"
)

// Server HTTP服务器
type Server struct {
	server *http.Server
	config ServerConfig
	logger *zap.Logger
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port         int
	Timeout      time.Duration
	MaxBodyBytes int64
}

// DefaultServerConfig 默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:         5000,
		Timeout:      30 * time.Second,
		MaxBodyBytes: 64 << 10,
	}
}

// Deps 处理器依赖，History可以为nil
type Deps struct {
	Loader        ml.Loader
	Schema        ml.Schema
	PositiveLabel string
	History       HistoryStore
	Logger        *zap.Logger
}

// NewServer 创建HTTP服务器
func NewServer(config ServerConfig, deps Deps) (*Server, error) {
	if deps.Loader == nil {
		return nil, fmt.Errorf("model loader is required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if len(deps.Schema) == 0 {
		deps.Schema = ml.DefaultSchema()
	}
	if deps.PositiveLabel == "" {
		deps.PositiveLabel = "yes"
	}

	pages, err := loadPages()
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	h := &Handler{deps: deps, pages: pages}
	h.Register(mux)

	// 创建中间件链
	chain := Chain(
		RequestIDMiddleware,                        // 1. 请求ID中间件（最先执行，后续日志都带ID）
		LoggerMiddleware(deps.Logger),              // 2. 日志中间件（记录包括panic在内的最终状态码）
		RecoveryMiddleware(deps.Logger),            // 3. 恢复中间件（捕获panic）
		SecurityHeadersMiddleware,                  // 4. 安全头中间件
		RequestSizeMiddleware(config.MaxBodyBytes), // 5. 请求大小限制中间件
	)

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			Handler:      chain(mux),
			ReadTimeout:  config.Timeout,
			WriteTimeout: config.Timeout,
			IdleTimeout:  120 * time.Second,
		},
		config: config,
		logger: deps.Logger,
	}, nil
}

// Handler 返回包装好中间件的处理器
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start 启动服务器
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop 停止服务器
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
