package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ykvlv/coach-bot/internal/adapt"
	"github.com/ykvlv/coach-bot/internal/config"
	"github.com/ykvlv/coach-bot/internal/metrics"
	"github.com/ykvlv/coach-bot/internal/pattern"
	"github.com/ykvlv/coach-bot/internal/scheduler"
	"github.com/ykvlv/coach-bot/internal/store"
	"github.com/ykvlv/coach-bot/internal/telegram"
)

type App struct {
	cfg     config.Config
	log     *zap.Logger
	bot     *tgbotapi.BotAPI
	metrics *metrics.Metrics
	httpSrv *http.Server
	repo    *store.SQLiteRepo
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	a := &App{cfg: cfg, log: log, bot: bot, metrics: metrics.New()}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", a.healthz)
	mux.Handle("/metrics", a.metrics.Handler())
	a.httpSrv = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
	return a, nil
}

func (a *App) healthz(w http.ResponseWriter, r *http.Request) {
	if a.repo == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	if err := a.repo.Ping(r.Context()); err != nil {
		a.log.Warn("health check failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting coach-bot",
		zap.String("bot", a.bot.Self.UserName),
		zap.String("http", a.cfg.HTTPAddr),
		zap.Duration("tick", a.cfg.TickInterval),
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := store.OpenSQLite(ctx, a.cfg.DBPath)
	if err != nil {
		a.log.Error("open sqlite failed", zap.Error(err))
		return err
	}
	a.repo = repo
	defer func() { _ = repo.Close() }()
	a.log.Info("sqlite ready")

	cache, closeCache, err := a.openCache(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = closeCache() }()

	dispatcher := telegram.NewDispatcher(a.bot, a.log.Named("dispatcher"), a.metrics, a.cfg.DispatchQueue)
	patterns := pattern.NewService(cache, repo, a.log.Named("pattern"), a.metrics)
	refresher := pattern.NewRefresher(patterns, repo, a.log.Named("pattern"), a.cfg.PatternRefreshInterval, a.cfg.Workers)
	sched := scheduler.New(repo, repo, patterns, dispatcher, a.log.Named("scheduler"), a.metrics,
		a.cfg.TickInterval, a.cfg.Workers)
	adaptSvc := adapt.NewService(repo, repo, dispatcher, a.log.Named("adapt"), a.metrics)
	adaptJob := adapt.NewJob(adaptSvc, repo, a.log.Named("adapt"), a.cfg.AdaptInterval, a.cfg.Workers)

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	var g errgroup.Group
	g.Go(func() error { dispatcher.Run(ctx); return nil })
	g.Go(func() error { refresher.Run(ctx); return nil })
	g.Go(func() error { sched.Run(ctx); return nil })
	g.Go(func() error { adaptJob.Run(ctx); return nil })

	<-ctx.Done()
	a.log.Info("shutdown signal received")

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := a.httpSrv.Shutdown(shCtx); err != nil {
		a.log.Warn("http server shutdown error", zap.Error(err))
	}
	cancel()

	_ = g.Wait()
	a.log.Info("stopped")
	return nil
}

// openCache returns the Redis pattern cache when REDIS_ADDR is set and an
// in-process cache otherwise.
func (a *App) openCache(ctx context.Context) (pattern.Cache, func() error, error) {
	if a.cfg.RedisAddr == "" {
		a.log.Info("pattern cache: memory")
		return pattern.NewMemoryCache(), func() error { return nil }, nil
	}
	rc, err := pattern.NewRedisCache(ctx, a.cfg.RedisAddr, a.cfg.RedisPrefix, a.log.Named("pattern"))
	if err != nil {
		a.log.Error("redis connect failed", zap.String("addr", a.cfg.RedisAddr), zap.Error(err))
		return nil, nil, err
	}
	a.log.Info("pattern cache: redis", zap.String("addr", a.cfg.RedisAddr))
	return rc, rc.Close, nil
}
