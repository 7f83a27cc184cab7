package web

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/xdooria-users/pkg/config"
	"github.com/lk2023060901/xdooria-users/pkg/logger"
	"github.com/lk2023060901/xdooria-users/pkg/sentry"
	"github.com/lk2023060901/xdooria-users/pkg/web/middleware"
)

// Server Web 服务，实现 app.Server
type Server struct {
	engine   *gin.Engine
	config   *Config
	logger   logger.Logger
	server   *http.Server
	listener net.Listener
	mu       sync.Mutex
	done     chan struct{}
}

// ServerOption 服务选项
type ServerOption func(*serverOptions)

type serverOptions struct {
	reporter    sentry.Reporter
	middlewares []gin.HandlerFunc
}

// WithReporter 设置 panic 上报
func WithReporter(r sentry.Reporter) ServerOption {
	return func(o *serverOptions) {
		if r != nil {
			o.reporter = r
		}
	}
}

// WithMiddleware 追加中间件，在基础中间件之后执行
func WithMiddleware(m ...gin.HandlerFunc) ServerOption {
	return func(o *serverOptions) {
		o.middlewares = append(o.middlewares, m...)
	}
}

// NewServer 创建 Web 服务
func NewServer(cfg *Config, l logger.Logger, opts ...ServerOption) (*Server, error) {
	newCfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, err
	}
	if err := newCfg.Validate(); err != nil {
		return nil, err
	}
	if l == nil {
		l = logger.Default()
	}

	o := &serverOptions{reporter: sentry.NoopReporter{}}
	for _, opt := range opts {
		opt(o)
	}

	gin.SetMode(newCfg.Mode)

	engine := gin.New()
	engine.Use(middleware.Tracing(newCfg.ServiceName))
	engine.Use(middleware.Logger(l.Named("web.access")))
	engine.Use(middleware.Recovery(l.Named("web.recovery"), o.reporter))
	engine.Use(o.middlewares...)

	return &Server{
		engine: engine,
		config: newCfg,
		logger: l.Named("web.server"),
	}, nil
}

// Router 返回 Gin 引擎，用于注册路由
func (s *Server) Router() *gin.Engine {
	return s.engine
}

// Handler 返回 http.Handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Addr 实际监听地址，未启动时为空
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start 同步监听端口，随后在后台处理请求
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return ErrServerAlreadyStarted
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.listener = ln
	s.done = make(chan struct{})
	s.server = &http.Server{
		Handler:        s.engine,
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	srv, done := s.server, s.done
	go func() {
		defer close(done)
		var err error
		if s.config.EnableTLS {
			s.logger.Info("starting https server", "addr", ln.Addr().String())
			err = srv.ServeTLS(ln, s.config.CertFile, s.config.KeyFile)
		} else {
			s.logger.Info("starting http server", "addr", ln.Addr().String())
			err = srv.Serve(ln)
		}
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server stopped unexpectedly", "error", err)
		}
	}()

	return nil
}

// Stop 立即关闭
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return ErrServerNotStarted
	}
	err := s.server.Close()
	<-s.done
	s.server = nil
	return err
}

// GracefulStop 等待进行中的请求完成，超时后强制关闭
func (s *Server) GracefulStop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return ErrServerNotStarted
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down http server")
	err := s.server.Shutdown(ctx)
	if err != nil {
		_ = s.server.Close()
		err = fmt.Errorf("server forced to shutdown: %w", err)
	}
	<-s.done
	s.server = nil

	s.logger.Info("http server exited")
	return err
}
