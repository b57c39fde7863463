package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cryptomonth/cryptomonth/internal/scheduler"
)

func newScheduleCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the weekly send on a schedule",
	}

	var once, loop bool
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Wait for the configured send time and fire the weekly send",
		RunE: func(cmd *cobra.Command, args []string) error {
			if once && loop {
				return fmt.Errorf("--once and --loop are mutually exclusive")
			}
			return runSchedule(*configPath, once, loop)
		},
	}
	runCmd.Flags().BoolVar(&once, "once", false, "Fire the send immediately instead of waiting for the send time")
	runCmd.Flags().BoolVar(&loop, "loop", false, "Keep sending every week instead of exiting after one send")

	cmd.AddCommand(runCmd)
	return cmd
}

func runSchedule(configPath string, once, loop bool) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.close()

	// Fail on missing credentials before waiting a week to find out.
	if err := a.cfg.Secrets.RequireConvertKit(); err != nil {
		return err
	}

	job := func(ctx context.Context) error {
		// Expire stale sponsor bookings before the send resolves the
		// current one.
		if adv, cleanup, err := buildAdvertiser(ctx, a.cfg); err == nil {
			if err := adv.ExpireSweep(ctx); err != nil {
				log.Warn().Err(err).Msg("sponsor expiry sweep failed")
			}
			if cleanup != nil {
				cleanup()
			}
		}
		return runSend(configPath, false)
	}

	sched := scheduler.New(job, time.Weekday(a.cfg.Newsletter.SendWeekday),
		a.cfg.Newsletter.SendHour, log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-stop
		log.Info().Str("signal", sig.String()).Msg("stopping scheduler")
		cancel()
	}()

	switch {
	case once:
		err = sched.RunNow(ctx)
	case loop:
		err = sched.RunLoop(ctx)
	default:
		err = sched.RunOnce(ctx)
	}
	if err == context.Canceled {
		return nil
	}
	return err
}
