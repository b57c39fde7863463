package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newPreviewCmd(configPath *string) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render this week's newsletter HTML without sending",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(*configPath, outPath)
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Write HTML to file instead of stdout")
	return cmd
}

func runPreview(configPath, outPath string) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	sponsor, err := currentSponsor(ctx, a.cfg)
	if err != nil {
		log.Warn().Err(err).Msg("sponsor lookup failed, rendering without sponsor block")
	}

	subject, html, err := a.renderIssue(ctx, sponsor)
	if err != nil {
		return err
	}
	log.Info().Str("subject", subject).Msg("rendered issue")

	if outPath != "" {
		if err := os.WriteFile(outPath, []byte(html), 0644); err != nil {
			return fmt.Errorf("write preview: %w", err)
		}
		log.Info().Str("path", outPath).Msg("preview written")
		return nil
	}
	fmt.Println(html)
	return nil
}
