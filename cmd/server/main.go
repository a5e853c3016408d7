package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/cinema-box-office/internal/config"
	"github.com/iliyamo/cinema-box-office/internal/database"
	"github.com/iliyamo/cinema-box-office/internal/handler"
	"github.com/iliyamo/cinema-box-office/internal/logger"
	"github.com/iliyamo/cinema-box-office/internal/queue"
	"github.com/iliyamo/cinema-box-office/internal/repository"
	"github.com/iliyamo/cinema-box-office/internal/router"
	"github.com/iliyamo/cinema-box-office/internal/scheduler"
	"github.com/iliyamo/cinema-box-office/internal/service"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}
	defer db.Close()
	if cfg.DBMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			log.WithError(err).Fatal("schema migration failed")
		}
		log.Info("schema migrated")
	}

	rdb := config.NewRedisClient(log)
	if rdb != nil {
		defer rdb.Close()
	}

	clock := clockwork.NewRealClock()
	deps := service.Deps{
		Tx:         repository.NewTransactor(db),
		Films:      repository.NewFilmRepo(db),
		Screenings: repository.NewScreeningRepo(db),
		Tickets:    repository.NewTicketRepo(db),
		Sales:      repository.NewSalesRepo(db),
		Licenses:   repository.NewLicenseRepo(db),
		Publisher:  queue.NewPublisher(cfg.RabbitURL, log),
		Clock:      clock,
		Location:   cfg.Location,
		Log:        log,
	}
	tickets := service.NewTicketService(deps)
	licenses := service.NewLicenseService(deps)

	e := router.New(router.Deps{
		JWTSecret:  cfg.JWTSecret,
		Clock:      clock,
		Redis:      rdb,
		Cache:      config.LoadCacheConfig(),
		RateLimit:  config.LoadRateLimitConfig(),
		Log:        log,
		DB:         db,
		Auth:       handler.NewAuthHandler(cfg, repository.NewOperatorRepo(db), repository.NewTokenRepo(db), clock),
		Films:      handler.NewFilmHandler(service.NewFilmService(deps)),
		Screenings: handler.NewScreeningHandler(service.NewScreeningService(deps), tickets),
		Tickets:    handler.NewTicketHandler(tickets),
		Reports:    handler.NewReportHandler(service.NewReportService(deps), licenses),
	})

	jobs := scheduler.New(cfg.Location, log)
	watch := &scheduler.LicenseWatch{Licenses: licenses, Days: cfg.LicenseDays, Log: log.WithField("job", "license-watch")}
	if err := jobs.Add("license-watch", cfg.LicenseCron, watch); err != nil {
		log.WithError(err).Fatal("invalid LICENSE_WATCH_CRON")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("addr", ":"+cfg.Port).WithField("env", cfg.Env).Info("listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return queue.NewSalesLogConsumer(cfg.RabbitURL, cfg.SalesLogPath, log).Run(ctx)
	})
	g.Go(func() error {
		return jobs.Run(ctx)
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("server stopped with error")
		return
	}
	log.Info("server stopped")
}
