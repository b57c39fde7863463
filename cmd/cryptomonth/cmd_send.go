package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cryptomonth/cryptomonth/internal/config"
	"github.com/cryptomonth/cryptomonth/internal/metrics"
	"github.com/cryptomonth/cryptomonth/internal/newsletter"
)

func newSendCmd(configPath *string) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Build and send this week's newsletter broadcast",
		Long: `Fetches fresh market data, renders the issue and sends it through
ConvertKit. Creating the draft broadcast and sending it are separate
API calls; --dry-run stops after rendering.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(*configPath, dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Render the issue but do not create or send a broadcast")
	return cmd
}

func runSend(configPath string, dryRun bool) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.close()

	// Credentials are checked before any fetch work happens.
	if !dryRun {
		if err := a.cfg.Secrets.RequireConvertKit(); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	sponsor, err := currentSponsor(ctx, a.cfg)
	if err != nil {
		log.Warn().Err(err).Msg("sponsor lookup failed, sending without sponsor block")
	}

	subject, html, err := a.renderIssue(ctx, sponsor)
	if err != nil {
		return err
	}

	if dryRun {
		log.Info().Str("subject", subject).Int("html_bytes", len(html)).
			Msg("dry run, broadcast not created")
		fmt.Println(html)
		return nil
	}

	id, err := a.mailer.CreateBroadcast(ctx, subject, html)
	if err != nil {
		metrics.BroadcastSends.WithLabelValues("create_failed").Inc()
		return fmt.Errorf("create broadcast: %w", err)
	}
	log.Info().Int64("broadcast_id", id).Str("subject", subject).Msg("broadcast created")

	if err := a.mailer.SendBroadcast(ctx, id); err != nil {
		metrics.BroadcastSends.WithLabelValues("send_failed").Inc()
		return fmt.Errorf("send broadcast %d: %w", id, err)
	}
	metrics.BroadcastSends.WithLabelValues("sent").Inc()
	log.Info().Int64("broadcast_id", id).Msg("broadcast sent")
	return nil
}

// currentSponsor resolves this week's paid sponsor from the
// advertiser store, if one exists.
func currentSponsor(ctx context.Context, cfg config.Config) (*newsletter.Sponsor, error) {
	adv, cleanup, err := buildAdvertiser(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	cur, err := adv.Current(ctx)
	if err != nil || cur == nil {
		return nil, err
	}
	return &newsletter.Sponsor{
		CompanyName: cur.CompanyName,
		Pitch:       cur.Pitch,
		Website:     cur.Website,
		WeekStart:   cur.WeekStart,
		WeekEnd:     cur.WeekEnd,
	}, nil
}
