package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	httpclient "github.com/vncsmyrnk/pollctl/internal/adapters/client/http"
	"github.com/vncsmyrnk/pollctl/internal/adapters/realtime/websocket"
	"github.com/vncsmyrnk/pollctl/internal/adapters/repository"
	"github.com/vncsmyrnk/pollctl/internal/config"
	"github.com/vncsmyrnk/pollctl/internal/core/ports"
	"github.com/vncsmyrnk/pollctl/internal/core/services"
	"github.com/vncsmyrnk/pollctl/internal/logger"
)

// Deps is everything a command needs. Built once per invocation.
type Deps struct {
	Config  *config.Config
	Logger  *zap.Logger
	Auth    ports.AuthService
	Polls   ports.PollService
	Votes   ports.VoteService
	Results ports.ResultsFetcher
	Dialer  ports.ChannelDialer
	Ledger  *services.VoteLedger

	close func() error
}

func (d *Deps) Close() error {
	if d == nil || d.close == nil {
		return nil
	}
	return d.close()
}

// Build wires the adapters and services described by cfg.
func Build(ctx context.Context, cfg *config.Config) (*Deps, error) {
	log, err := logger.New(cfg.LogLevel, cfg.DevelopmentLogging)
	if err != nil {
		return nil, err
	}

	dsn, err := cfg.SessionDataSource()
	if err != nil {
		return nil, err
	}
	db, sessions, err := repository.OpenSessions(ctx, cfg.SessionDriver, dsn)
	if err != nil {
		return nil, err
	}

	api, err := httpclient.NewClient(cfg.APIBase,
		httpclient.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		httpclient.WithLogger(log.Named("api")),
	)
	if err != nil {
		db.Close()
		return nil, err
	}

	cache := services.NewQueryCache(cfg.CacheTTL)
	ledger := services.NewVoteLedger()
	auth := services.NewAuthService(api, sessions, cfg.SessionProfile(), cache, ledger, log.Named("auth"))
	api.SetTokenProvider(auth)

	dialer, err := websocket.NewDialer(cfg.WSBase, cfg.WSPath,
		websocket.WithTokenProvider(auth),
		websocket.WithLogger(log.Named("ws")),
	)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Deps{
		Config:  cfg,
		Logger:  log,
		Auth:    auth,
		Polls:   services.NewPollService(api, cache, ledger, log.Named("polls")),
		Votes:   services.NewVoteService(api, cache, ledger, log.Named("votes")),
		Results: api,
		Dialer:  dialer,
		Ledger:  ledger,
		close: func() error {
			_ = log.Sync()
			if err := db.Close(); err != nil {
				return fmt.Errorf("failed to close session store: %w", err)
			}
			return nil
		},
	}, nil
}

// BuildFunc lets tests swap the wiring.
type BuildFunc func(ctx context.Context, cfg *config.Config) (*Deps, error)

// App carries state shared by the command tree.
type App struct {
	loadConfig func() (*config.Config, error)
	build      BuildFunc
	deps       *Deps
}

func NewApp(loadConfig func() (*config.Config, error), build BuildFunc) *App {
	if loadConfig == nil {
		loadConfig = func() (*config.Config, error) { return config.Load() }
	}
	if build == nil {
		build = Build
	}
	return &App{loadConfig: loadConfig, build: build}
}

func (a *App) Deps() (*Deps, error) {
	if a.deps == nil {
		return nil, errors.New("commands used before initialization")
	}
	return a.deps, nil
}

func (a *App) Close() error {
	err := a.deps.Close()
	a.deps = nil
	return err
}
