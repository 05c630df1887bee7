package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aneshas/account-eventstore"
	"github.com/aneshas/account-eventstore/aggregate"
	"github.com/aneshas/account-eventstore/ambar"
	"github.com/aneshas/account-eventstore/ambar/echoambar"
	"github.com/aneshas/account-eventstore/config"
	"github.com/aneshas/account-eventstore/logger"
	"github.com/aneshas/account-eventstore/readmodel"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := logger.New(logger.Config{})
		l.Fatal().Err(err).Msg("load config")
	}

	log := logger.New(cfg.Logger())

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("projector stopped")
	}
}

func run(cfg config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	enc := aggregate.NewEncoder()

	estore, err := eventstore.New(enc, cfg.StoreOptions()...)
	if err != nil {
		return err
	}

	defer estore.Close()

	accounts := readmodel.NewAccounts(
		readmodel.WithLogger(log.With().Str("component", "readmodel").Logger()),
	)

	projector := eventstore.NewProjector(
		estore,
		eventstore.WithLogger(log.With().Str("component", "projector").Logger()),
		eventstore.WithSubscriptionOpts(cfg.SubscriptionOptions()...),
	)

	projector.Add(accounts.Project)

	done := make(chan struct{})

	go func() {
		defer close(done)

		_ = projector.Run(ctx)
	}()

	e := echo.New()

	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())

	ambarHandler := echoambar.Wrap(
		ambar.New(enc),
		echoambar.WithLogger(log.With().Str("component", "ambar").Logger()),
	)

	e.GET("/healthz", healthz)
	e.GET("/accounts/:id", NewGetAccountHandlerFunc(accounts))
	e.POST("/ambar/accounts", ambarHandler(accounts.Project))

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")

		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server")
			stop()
		}
	}()

	<-ctx.Done()

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = e.Shutdown(shutdownCtx)

	<-done

	return err
}
