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
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/aLoneMass/historybot/internal/config"
	"github.com/aLoneMass/historybot/internal/media"
	"github.com/aLoneMass/historybot/internal/pipeline"
	"github.com/aLoneMass/historybot/internal/publish"
	"github.com/aLoneMass/historybot/internal/sched"
	"github.com/aLoneMass/historybot/internal/store"
	"github.com/aLoneMass/historybot/internal/telegram"
)

type App struct {
	cfg     config.Config
	log     *zap.Logger
	bot     *tgbotapi.BotAPI
	httpSrv *http.Server
	repo    store.Store
	sched   *sched.Scheduler
	router  *telegram.Router
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	return &App{cfg: cfg, log: log, bot: bot, httpSrv: srv}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting historybot",
		zap.String("tz", a.cfg.ReferenceTZ),
		zap.Duration("warning_lead", a.cfg.WarningLead),
		zap.String("http", a.cfg.HTTPAddr),
	)

	loc, err := time.LoadLocation(a.cfg.ReferenceTZ)
	if err != nil {
		a.log.Error("invalid reference timezone", zap.Error(err))
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.cfg.DBPath != "" {
		repo, err := store.OpenSQLite(ctx, a.cfg.DBPath)
		if err != nil {
			a.log.Error("open sqlite failed", zap.Error(err))
			return err
		}
		a.repo = repo
		a.log.Info("sqlite ready", zap.String("path", a.cfg.DBPath))
	} else {
		a.repo = store.NewMemory()
		a.log.Info("using in-memory schedule store")
	}

	a.sched = sched.New(a.log)

	fetcher := media.NewFetcher(a.bot, afero.NewOsFs(),
		&http.Client{Timeout: a.cfg.PublishTimeout}, a.log)

	var transport publish.Transport
	if a.cfg.UserbotURL != "" {
		transport = publish.NewBridge(a.cfg.UserbotURL,
			&http.Client{Timeout: a.cfg.PublishTimeout}, a.log)
	} else {
		a.log.Warn("no userbot bridge configured; publishing via loopback")
		transport = publish.NewLoopback(a.bot, a.log)
	}

	// The chat side of the pipeline is the router, and the router needs the
	// pipeline for intake completion and cancellations: construct the
	// pipeline with a late-bound chat reference.
	chat := &lateChat{}
	pipe := pipeline.New(ctx, pipeline.Config{
		WarningLead:    a.cfg.WarningLead,
		PublishTimeout: a.cfg.PublishTimeout,
		Location:       loc,
	}, a.repo, a.sched, chat, fetcher, transport, a.log)

	a.router = telegram.NewRouter(a.bot, a.log, pipe, a.repo, loc, a.cfg.WarningLead)
	chat.Chat = a.router

	// Re-arm timers for schedules that survived a restart.
	if err := pipe.Restore(ctx); err != nil {
		a.log.Error("restore schedules failed", zap.Error(err))
		return err
	}

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")

			a.sched.Stop()

			// Create a short-lived shutdown context and cancel it immediately after use.
			shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := a.httpSrv.Shutdown(shCtx)
			cancel()

			if err != nil {
				a.log.Warn("http server shutdown error", zap.Error(err))
			}
			if a.repo != nil {
				_ = a.repo.Close()
			}
			return nil

		case upd := <-updCh:
			a.router.HandleUpdate(ctx, upd)
		}
	}
}

// lateChat breaks the pipeline↔router construction cycle.
type lateChat struct {
	pipeline.Chat
}
