package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cryptomonth/cryptomonth/internal/payments"
	"github.com/cryptomonth/cryptomonth/internal/server"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard API server",
		Long:  "Serves aggregated coin data, newsletter subscription and preview, and advertiser booking endpoints.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(*configPath)
		},
	}
}

func runServe(configPath string) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.close()

	adv, advCleanup, err := buildAdvertiser(context.Background(), a.cfg)
	if err != nil {
		return err
	}
	if advCleanup != nil {
		defer advCleanup()
	}

	if a.cfg.Secrets.StripeSecretKey == "" {
		log.Warn().Msg("STRIPE_SECRET_KEY not set, advertiser payments disabled")
	}
	pay := payments.New(a.cfg.Secrets.StripeSecretKey)

	srv := server.New(server.Config{
		Host:            a.cfg.Server.Host,
		Port:            a.cfg.Server.Port,
		ReadTimeout:     a.cfg.Server.ReadTimeout(),
		WriteTimeout:    a.cfg.Server.WriteTimeout(),
		IdleTimeout:     a.cfg.Server.IdleTimeout(),
		BaseURL:         a.cfg.Newsletter.BaseURL,
		SubjectPrefix:   a.cfg.Newsletter.SubjectPrefix,
		GainersLimit:    a.cfg.Aggregation.NewsletterGainers,
		LosersLimit:     a.cfg.Aggregation.NewsletterLosers,
		DefaultPageSize: a.cfg.Aggregation.WebLosers,
		MaxPageSize:     a.cfg.Aggregation.WebGainers,
	}, a.runner, adv, pay, a.mailer, log.Logger)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Warm the cache so the first dashboard request does not pay the
	// full fetch latency.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := a.runner.Snapshot(ctx); err != nil {
			log.Warn().Err(err).Msg("initial snapshot warmup failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
