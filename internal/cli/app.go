package cli

import (
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/dyike/bestfour/config"
	"github.com/dyike/bestfour/internal/analyzer"
	"github.com/dyike/bestfour/internal/codes"
	"github.com/dyike/bestfour/internal/dataflows"
	"github.com/dyike/bestfour/internal/logger"
	"github.com/dyike/bestfour/internal/storage"
	"github.com/dyike/bestfour/internal/storage/sqlite"
)

// RouterFactory builds the fetch router for a configuration.
type RouterFactory func(cfg *config.Config, logger *zap.Logger) dataflows.Router

type options struct {
	out        io.Writer
	errOut     io.Writer
	loadConfig func(path string) (*config.Config, error)
	newRouter  RouterFactory
	logger     *zap.Logger
	now        func() time.Time
}

type Option func(*options)

// WithOutput redirects command output. Logs always go to the logger.
func WithOutput(out, errOut io.Writer) Option {
	return func(o *options) {
		o.out = out
		o.errOut = errOut
	}
}

func WithConfigLoader(load func(path string) (*config.Config, error)) Option {
	return func(o *options) { o.loadConfig = load }
}

func WithRouterFactory(f RouterFactory) Option {
	return func(o *options) { o.newRouter = f }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func defaultOptions() *options {
	return &options{
		loadConfig: config.Load,
		newRouter:  DefaultRouter,
		now:        time.Now,
	}
}

// DefaultRouter routes by market to the exchange fetchers, or everything to
// Yahoo Finance when that source is configured.
func DefaultRouter(cfg *config.Config, logger *zap.Logger) dataflows.Router {
	if cfg.Source == config.SourceYahoo {
		return dataflows.NewYahooRouter(logger)
	}

	clientOpts := func(baseURL string) dataflows.ClientOptions {
		return dataflows.ClientOptions{
			BaseURL:   baseURL,
			UserAgent: cfg.UserAgent,
			Timeout:   cfg.HTTPTimeout,
			Interval:  cfg.RequestInterval,
			Retries:   cfg.FetchRetries,
			Adapter:   dataflows.DefaultRowAdapter(),
			Logger:    logger,
		}
	}
	return dataflows.MarketRouter{
		TWSE: dataflows.NewTWSEFetcher(clientOpts(cfg.TWSEBaseURL)),
		TPEX: dataflows.NewTPEXFetcher(clientOpts(cfg.TPEXBaseURL)),
	}
}

// app holds everything one command invocation needs.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *codes.Registry
	store    *sqlite.Store
	analyzer *analyzer.Analyzer
}

func newApp(cfg *config.Config, o *options) (*app, error) {
	log := o.logger
	if log == nil {
		log = logger.Must(cfg.LogLevel)
	}

	registry, err := codes.Open(cfg.CodesPath())
	if err != nil {
		// Lookups only supply names and markets; the bundled list still serves.
		log.Warn("codes registry unreadable, using bundled seed",
			zap.String("path", cfg.CodesPath()), zap.Error(err))
		if registry, err = codes.Seed(); err != nil {
			return nil, err
		}
	}

	a := &app{cfg: cfg, logger: log, registry: registry}

	analyzerOpts := []analyzer.Option{
		analyzer.WithRegistry(registry),
		analyzer.WithClock(o.now),
		analyzer.WithLogger(log),
	}
	if cfg.CacheEnabled {
		store, err := storage.OpenMonthStore(cfg)
		if err != nil {
			// The cache is an optimisation; analysis proceeds without it.
			log.Warn("month cache unavailable", zap.Error(err))
		} else {
			a.store = store
			analyzerOpts = append(analyzerOpts, analyzer.WithStore(store))
		}
	}

	a.analyzer = analyzer.New(o.newRouter(cfg, log), analyzerOpts...)
	return a, nil
}

func (a *app) Close() error {
	_ = a.logger.Sync()
	return a.store.Close()
}
