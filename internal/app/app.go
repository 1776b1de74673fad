package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"yieldwatch/internal/alerting"
	"yieldwatch/internal/bridge"
	"yieldwatch/internal/config"
	"yieldwatch/internal/gas"
	"yieldwatch/internal/pools"
	"yieldwatch/internal/scheduler"
	"yieldwatch/internal/service"
	"yieldwatch/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newPipeline() *pools.Pipeline {
	feed := pools.NewFeed(pools.FeedOptions{
		PoolsURL:    a.Config.Feed.PoolsURL,
		ProtocolURL: a.Config.Feed.ProtocolURL,
		Timeout:     a.Config.Feed.RequestTimeout,
		UserAgent:   a.Config.Feed.UserAgent,
	}, a.Logger)

	return pools.NewPipeline(feed, feed, pools.PipelineOptions{
		CacheTTL: a.Config.Feed.CacheTTL,
		LinkTTL:  a.Config.Feed.LinkCacheTTL,
	}, a.Logger)
}

func (a *App) newAggregator() *bridge.Aggregator {
	lifi := bridge.NewLiFi(bridge.LiFiOptions{
		BaseURL:     a.Config.Bridge.LiFiBaseURL,
		FromAddress: a.Config.Bridge.FromAddress,
		Timeout:     a.Config.Bridge.RequestTimeout,
	}, a.Logger)

	socket := bridge.NewSocket(bridge.SocketOptions{
		BaseURL:     a.Config.Bridge.SocketBaseURL,
		APIKey:      a.Config.Bridge.SocketAPIKey,
		FromAddress: a.Config.Bridge.FromAddress,
		Timeout:     a.Config.Bridge.RequestTimeout,
	}, a.Logger)

	return bridge.NewAggregator([]bridge.Provider{lifi, socket}, a.Config.Bridge.RequestTimeout, a.Logger)
}

func (a *App) newGasService() *gas.Service {
	eth := gas.EthereumSpec()
	if len(a.Config.Gas.EthereumRPCs) > 0 {
		eth.Endpoints = a.Config.Gas.EthereumRPCs
	}
	bsc := gas.BSCSpec()
	if len(a.Config.Gas.BSCRPCs) > 0 {
		bsc.Endpoints = a.Config.Gas.BSCRPCs
	}

	return gas.NewService(gas.ServiceOptions{
		LiveChains: []gas.ChainSpec{eth, bsc},
		CacheTTL:   a.Config.Gas.CacheTTL,
		RPCTimeout: a.Config.Gas.RPCTimeout,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// Run executes the long-running aggregation service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; alert rules and audit disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	poolSched := scheduler.New(scheduler.Options{
		Name:         "pools",
		Interval:     a.Config.Scheduler.PoolInterval,
		AlignToStart: a.Config.Scheduler.AlignToBucket,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Logger)

	gasSched := scheduler.New(scheduler.Options{
		Name:         "gas",
		Interval:     a.Config.Scheduler.GasInterval,
		AlignToStart: a.Config.Scheduler.AlignToBucket,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Logger)

	var rules storage.RuleStore
	var audit storage.AlertEventStore
	if store != nil {
		rules = store
		audit = store
	}

	svc := service.New(service.Options{
		Pipeline:  a.newPipeline(),
		Gas:       a.newGasService(),
		Matcher:   alerting.NewMatcher(a.Config.Alerting.Cooldown, a.Logger),
		Rules:     rules,
		Audit:     audit,
		Notifier:  a.newNotifier(),
		PoolSched: poolSched,
		GasSched:  gasSched,
		AlertsOn:  a.Config.Alerting.Enabled,
	}, a.Logger)

	a.Logger.Info().Msg("starting aggregation service")
	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("aggregation service stopped")
	return nil
}

// ExportOptions hold parameters for exporting the current pool snapshot.
type ExportOptions struct {
	CSVPath string
	PNGPath string
}

// QuoteOptions configure a one-shot bridge quote comparison.
type QuoteOptions struct {
	FromChain string
	ToChain   string
	Token     string
	Amount    string
}
