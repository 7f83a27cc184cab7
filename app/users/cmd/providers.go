package main

import (
	"github.com/gin-gonic/gin"

	"github.com/lk2023060901/xdooria-users/app/users/internal/auth"
	"github.com/lk2023060901/xdooria-users/app/users/internal/config"
	"github.com/lk2023060901/xdooria-users/app/users/internal/counter"
	"github.com/lk2023060901/xdooria-users/app/users/internal/event"
	"github.com/lk2023060901/xdooria-users/app/users/internal/handler"
	"github.com/lk2023060901/xdooria-users/app/users/internal/job"
	"github.com/lk2023060901/xdooria-users/app/users/internal/manager"
	"github.com/lk2023060901/xdooria-users/app/users/internal/metrics"
	"github.com/lk2023060901/xdooria-users/app/users/internal/store"
	"github.com/lk2023060901/xdooria-users/pkg/app"
	"github.com/lk2023060901/xdooria-users/pkg/database/postgres"
	"github.com/lk2023060901/xdooria-users/pkg/database/redis"
	"github.com/lk2023060901/xdooria-users/pkg/logger"
	"github.com/lk2023060901/xdooria-users/pkg/otel"
	"github.com/lk2023060901/xdooria-users/pkg/prometheus"
	"github.com/lk2023060901/xdooria-users/pkg/sentry"
	"github.com/lk2023060901/xdooria-users/pkg/web"
	webmetrics "github.com/lk2023060901/xdooria-users/pkg/web/metrics"
	"github.com/lk2023060901/xdooria-users/pkg/web/middleware"
	"github.com/lk2023060901/xdooria-users/pkg/web/validator"
)

// stores 按驱动创建的存储
type stores struct {
	Sessions store.SessionStore
	BuyMenus store.BuyMenuStore
}

// eventPublisher 附带关闭函数的事件发布器
type eventPublisher struct {
	event.Publisher
	close func() error
}

func (p *eventPublisher) Close() error {
	return p.close()
}

// providePostgres 仅在存储或认证需要时连接 PostgreSQL，按需执行迁移
func providePostgres(cfg *config.Config, l logger.Logger) (*postgres.Client, error) {
	if !cfg.NeedsPostgres() {
		return nil, nil
	}
	pg, err := postgres.New(&cfg.Postgres)
	if err != nil {
		return nil, err
	}
	if cfg.Store.Migrate {
		version, err := pg.Migrate(store.Migrations, store.MigrationsDir)
		if err != nil {
			pg.Close()
			return nil, err
		}
		l.Info("postgres migrated", "version", version)
	}
	return pg, nil
}

// provideRedis 仅在 redis 存储时连接
func provideRedis(cfg *config.Config) (*redis.Client, error) {
	if !cfg.NeedsRedis() {
		return nil, nil
	}
	return redis.NewClient(&cfg.Redis)
}

func provideStores(cfg *config.Config, pg *postgres.Client, rdb *redis.Client) (*stores, error) {
	sessions, buyMenus, err := store.New(&cfg.Store, pg, rdb)
	if err != nil {
		return nil, err
	}
	return &stores{Sessions: sessions, BuyMenus: buyMenus}, nil
}

func provideAuthenticator(cfg *config.Config, pg *postgres.Client, l logger.Logger) (auth.Authenticator, error) {
	return auth.New(&cfg.Auth, pg, l)
}

// providePrometheusConfig 提供 Prometheus 配置
func providePrometheusConfig(cfg *config.Config) *prometheus.Config {
	return &cfg.Prometheus
}

// provideMetrics 创建会话指标并与 Web 指标一起注册
func provideMetrics(cfg *config.Config, prom *prometheus.Client) (*metrics.SessionMetrics, error) {
	m, err := metrics.New(&cfg.Metrics)
	if err != nil {
		return nil, err
	}
	if err := m.Register(prom.Registerer()); err != nil {
		return nil, err
	}
	if err := webmetrics.Register(prom.Registerer()); err != nil {
		return nil, err
	}
	return m, nil
}

// provideCounter 计数变化同步到在线会话 gauge
func provideCounter(m *metrics.SessionMetrics) *counter.SessionCounter {
	return counter.New(counter.WithObserver(m.SetLive))
}

func providePublisher(cfg *config.Config, l logger.Logger) (*eventPublisher, error) {
	pub, closeFn, err := event.NewPublisher(&cfg.Events, l)
	if err != nil {
		return nil, err
	}
	return &eventPublisher{Publisher: pub, close: closeFn}, nil
}

// provideReporter Sentry 未启用时使用空上报器
func provideReporter(cfg *config.Config) (sentry.Reporter, error) {
	if !cfg.Sentry.Enabled {
		return sentry.NoopReporter{}, nil
	}
	return sentry.New(&cfg.Sentry)
}

func provideTracerProvider(cfg *config.Config) (*otel.TracerProvider, error) {
	return otel.New(&cfg.Otel)
}

func provideManagerOptions(l logger.Logger, r sentry.Reporter, m *metrics.SessionMetrics) []manager.Option {
	return []manager.Option{
		manager.WithLogger(l),
		manager.WithReporter(r),
		manager.WithRecorder(m),
	}
}

func provideSessionManager(s *stores, c *counter.SessionCounter, pub *eventPublisher, opts []manager.Option) *manager.SessionManager {
	return manager.NewSessionManager(s.Sessions, c, pub, opts...)
}

func provideBuyMenuManager(s *stores, opts []manager.Option) *manager.BuyMenuManager {
	return manager.NewBuyMenuManager(s.BuyMenus, opts...)
}

func provideRateLimiter(cfg *config.Config, l logger.Logger) *middleware.RateLimiter {
	return middleware.NewRateLimiter(l, &cfg.RateLimit)
}

func provideSystemHandler(
	sm *manager.SessionManager,
	prom *prometheus.Client,
	pg *postgres.Client,
	rdb *redis.Client,
	l logger.Logger,
) *handler.SystemHandler {
	opts := []handler.SystemOption{handler.WithMetricsHandler(prom.Handler())}
	if pg != nil {
		opts = append(opts, handler.WithHealthCheck("postgres", pg.Ping))
	}
	if rdb != nil {
		opts = append(opts, handler.WithHealthCheck("redis", rdb.Ping))
	}
	return handler.NewSystemHandler(sm.Count, l, opts...)
}

// provideWebServer 创建 HTTP 服务并注册全部路由
func provideWebServer(
	cfg *config.Config,
	l logger.Logger,
	reporter sentry.Reporter,
	rl *middleware.RateLimiter,
	sessions *handler.SessionHandler,
	buyMenus *handler.BuyMenuHandler,
	system *handler.SystemHandler,
) (*web.Server, error) {
	validator.Init()

	var mws []gin.HandlerFunc
	if cfg.CORS.Enabled {
		mws = append(mws, middleware.CORS(cfg.CORS))
	}
	mws = append(mws, middleware.Metrics())
	if cfg.RateLimit.Enabled {
		mws = append(mws, middleware.RateLimit(rl))
	}

	srv, err := web.NewServer(&cfg.Web, l,
		web.WithReporter(reporter),
		web.WithMiddleware(mws...),
	)
	if err != nil {
		return nil, err
	}

	router := srv.Router()
	system.Register(router)
	sessions.Register(router)
	buyMenus.Register(router)
	return srv, nil
}

func provideResyncJob(cfg *config.Config, sm *manager.SessionManager, l logger.Logger) (*job.CounterResync, error) {
	return job.NewCounterResync(&cfg.Counter, sm, l)
}

func provideAppOptions(cfg *config.Config, l logger.Logger) []app.Option {
	return []app.Option{
		app.WithName(app.AppName),
		app.WithLogger(l),
		app.WithNamedLoggers(cfg.Loggers),
		app.WithStopTimeout(cfg.StopTimeout),
	}
}

// provideAppComponents 收集服务与资源，资源按逆序关闭
func provideAppComponents(
	srv *web.Server,
	resync *job.CounterResync,
	pg *postgres.Client,
	rdb *redis.Client,
	pub *eventPublisher,
	rl *middleware.RateLimiter,
	prom *prometheus.Client,
	reporter sentry.Reporter,
	tp *otel.TracerProvider,
) app.AppComponents {
	closers := []app.Closer{app.MapCloser(tp)}
	if c, ok := reporter.(*sentry.Client); ok {
		closers = append(closers, app.MapCloser(c))
	}
	closers = append(closers, app.MapCloser(prom))
	if pg != nil {
		closers = append(closers, app.MapCloserNoErr(pg))
	}
	if rdb != nil {
		closers = append(closers, app.MapCloser(rdb))
	}
	closers = append(closers, app.MapCloser(pub), app.MapCloser(rl))

	return app.AppComponents{
		Servers: []app.Server{srv, resync},
		Closers: closers,
	}
}
