package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"github.com/cryptomonth/cryptomonth/internal/advertiser"
	"github.com/cryptomonth/cryptomonth/internal/aggregate"
	"github.com/cryptomonth/cryptomonth/internal/cache"
	"github.com/cryptomonth/cryptomonth/internal/config"
	"github.com/cryptomonth/cryptomonth/internal/convertkit"
	"github.com/cryptomonth/cryptomonth/internal/narrative"
	"github.com/cryptomonth/cryptomonth/internal/newsletter"
	"github.com/cryptomonth/cryptomonth/internal/pipeline"
	"github.com/cryptomonth/cryptomonth/internal/sources"
)

// app wires the long-lived pieces every subcommand shares.
type app struct {
	cfg     config.Config
	runner  *pipeline.Runner
	mailer  *convertkit.Client
	cleanup func()
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	srcs := buildSources(cfg)
	agg := aggregate.New(cfg.Aggregation.NoiseThreshold)
	gen := narrative.NewGenerator()

	snapshots, cleanup, err := buildCache(cfg)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:     cfg,
		runner:  pipeline.New(srcs, agg, gen, snapshots, cfg.Sources.FetchTimeout()),
		mailer:  convertkit.New(cfg.Secrets.ConvertKitAPIKey, cfg.Secrets.ConvertKitAPISecret, cfg.Secrets.ConvertKitFormID),
		cleanup: cleanup,
	}, nil
}

func (a *app) close() {
	if a.cleanup != nil {
		a.cleanup()
	}
}

func buildSources(cfg config.Config) []sources.Source {
	srcs := []sources.Source{
		sources.NewCoinGecko(sourceConfig(cfg.Sources.CoinGecko)),
		sources.NewDexScreener(sourceConfig(cfg.Sources.DexScreener)),
	}
	if cfg.Secrets.CoinMarketCapAPIKey != "" {
		srcs = append(srcs, sources.NewCoinMarketCap(
			sourceConfig(cfg.Sources.CoinMarketCap), cfg.Secrets.CoinMarketCapAPIKey))
	} else {
		log.Warn().Msg("COINMARKETCAP_API_KEY not set, skipping CoinMarketCap source")
	}
	return srcs
}

func sourceConfig(c config.SourceConfig) sources.Config {
	return sources.Config{
		BaseURL:  c.BaseURL,
		RPS:      c.RPS,
		Burst:    c.Burst,
		Timeout:  c.Timeout(),
		PageSize: c.PageSize,
	}
}

func buildCache(cfg config.Config) (cache.SnapshotCache, func(), error) {
	switch cfg.Cache.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.Cache.RedisAddr, err)
		}
		log.Info().Str("addr", cfg.Cache.RedisAddr).Msg("using redis snapshot cache")
		return cache.NewRedis(client, cfg.Cache.TTL()), func() { client.Close() }, nil
	default:
		return cache.NewMemory(cfg.Cache.TTL()), nil, nil
	}
}

func buildAdvertiser(ctx context.Context, cfg config.Config) (*advertiser.Service, func(), error) {
	switch cfg.Advertiser.Store {
	case "postgres":
		if cfg.Secrets.PostgresDSN == "" {
			return nil, nil, fmt.Errorf("advertiser store postgres requires DATABASE_URL")
		}
		store, err := advertiser.OpenPostgres(ctx, cfg.Secrets.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Msg("using postgres advertiser store")
		return advertiser.NewService(store, cfg.Advertiser.WeeksAhead), func() { store.Close() }, nil
	default:
		log.Warn().Msg("using in-memory advertiser store, bookings reset on restart")
		return advertiser.NewService(advertiser.NewMemory(), cfg.Advertiser.WeeksAhead), nil, nil
	}
}

// renderIssue fetches fresh data and renders one newsletter issue.
func (a *app) renderIssue(ctx context.Context, sponsor *newsletter.Sponsor) (subject, html string, err error) {
	snap, err := a.runner.Run(ctx)
	if err != nil {
		return "", "", err
	}

	displayDate := time.Now().UTC().Format("January 2, 2006")
	html, err = newsletter.Render(newsletter.Input{
		Records:      snap.Records,
		BaseURL:      a.cfg.Newsletter.BaseURL,
		DisplayDate:  displayDate,
		GainersLimit: a.cfg.Aggregation.NewsletterGainers,
		LosersLimit:  a.cfg.Aggregation.NewsletterLosers,
		Sponsor:      sponsor,
	})
	if err != nil {
		return "", "", fmt.Errorf("render newsletter: %w", err)
	}
	return newsletter.Subject(a.cfg.Newsletter.SubjectPrefix, displayDate), html, nil
}
