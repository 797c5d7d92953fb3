// Package app wires configuration, storage, services and the bot together.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/shopbot/core/bootstrap"
	coreconfig "github.com/m3rciful/shopbot/core/config"
	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/core/paramstore"
	tg "github.com/m3rciful/shopbot/core/telegram"
	"github.com/m3rciful/shopbot/core/telegram/middleware"
	"github.com/m3rciful/shopbot/core/telegram/navigation"
	"github.com/m3rciful/shopbot/core/telegram/router"
	"github.com/m3rciful/shopbot/core/telegram/state"
	"github.com/m3rciful/shopbot/core/telegram/state/dynamostore"
	"github.com/m3rciful/shopbot/core/telegram/ui"
	"github.com/m3rciful/shopbot/internal/bot"
	"github.com/m3rciful/shopbot/internal/repository"
	"github.com/m3rciful/shopbot/internal/seed"
	"github.com/m3rciful/shopbot/internal/service"
)

// Options overrides infrastructure, mostly for tests.
type Options struct {
	LoggerInit func(*coreconfig.Config) error
	// Params resolves telegram.token_param; defaults to SSM.
	Params paramstore.Getter
	// Dynamo backs the dynamodb session store; defaults to the AWS client.
	Dynamo dynamostore.API
}

// App is a fully wired shop bot.
type App struct {
	cfg      *Config
	db       *sqlx.DB
	store    state.Store
	users    *service.Users
	handlers *bot.Handlers
	registry *tg.Registry
	fsm      *state.Machine
	notifier *lazyNotifier

	awsCfg *aws.Config
}

// Build bootstraps the database and wires every component.
func Build(ctx context.Context, cfg *Config, opts Options) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	var seeders []bootstrap.Seeder
	if cfg.Shop.SeedDemo {
		seeders = append(seeders, seed.Demo{})
	}
	res, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:     &cfg.Config,
		Database:   cfg.Database,
		LoggerInit: opts.LoggerInit,
		Seeders:    seeders,
	})
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, db: res.DB, notifier: &lazyNotifier{}}
	if err := a.wire(ctx, opts); err != nil {
		_ = a.db.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) wire(ctx context.Context, opts Options) error {
	if err := a.resolveToken(ctx, opts.Params); err != nil {
		return err
	}
	store, err := a.sessionStore(ctx, opts.Dynamo)
	if err != nil {
		return err
	}
	a.store = store

	repos := repository.New(a.db)
	users, err := service.NewUsers(repos.Users, repos.Admins)
	if err != nil {
		return err
	}
	catalog, err := service.NewCatalog(repos.Listings, repos.Catalog, a.cfg.Shop.PageSize)
	if err != nil {
		return err
	}
	bids, err := service.NewBids(service.BidsOptions{
		Repo:       repos.Bids,
		Notifier:   a.notifier,
		Recipients: users,
		OwnerID:    a.cfg.Telegram.AdminID,
	})
	if err != nil {
		return err
	}
	orders, err := service.NewOrders(repos.Orders, users)
	if err != nil {
		return err
	}
	h, err := bot.New(bot.Deps{Users: users, Catalog: catalog, Bids: bids, Orders: orders})
	if err != nil {
		return err
	}

	a.users = users
	a.handlers = h
	a.registry = tg.NewRegistry()
	a.fsm = state.NewMachine()
	if err := h.Register(a.registry, a.fsm); err != nil {
		return fmt.Errorf("app: register handlers: %w", err)
	}
	logger.Info(ctx, "app", "wired",
		slog.String("sessions", a.cfg.Sessions.Backend),
		slog.String("db", a.cfg.Database.Driver),
	)
	return nil
}

func (a *App) resolveToken(ctx context.Context, params paramstore.Getter) error {
	if a.cfg.Telegram.Token != "" {
		return nil
	}
	if params == nil {
		awsCfg, err := a.aws(ctx)
		if err != nil {
			return err
		}
		client, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
		if err != nil {
			return err
		}
		params = client
	}
	return paramstore.ResolveToken(ctx, params, &a.cfg.Config)
}

func (a *App) sessionStore(ctx context.Context, api dynamostore.API) (state.Store, error) {
	switch a.cfg.Sessions.Backend {
	case coreconfig.SessionsSQL:
		return state.NewSQLStore(a.db), nil
	case coreconfig.SessionsDynamoDB:
		if api == nil {
			awsCfg, err := a.aws(ctx)
			if err != nil {
				return nil, err
			}
			api = awsdynamodb.NewFromConfig(awsCfg)
		}
		ttl := time.Duration(a.cfg.Sessions.TTLHours) * time.Hour
		return dynamostore.New(api, a.cfg.Sessions.Table, ttl)
	default:
		return state.NewMemoryStore(), nil
	}
}

func (a *App) aws(ctx context.Context) (aws.Config, error) {
	if a.awsCfg != nil {
		return *a.awsCfg, nil
	}
	var optFns []func(*awsconfig.LoadOptions) error
	if a.cfg.AWS.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(a.cfg.AWS.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("app: load aws config: %w", err)
	}
	a.awsCfg = &cfg
	return cfg, nil
}

// TelegramRunOptions implements cmd.TelegramApp.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	if a.handlers == nil {
		return tg.RunOptions{}, errors.New("app: not built")
	}
	core := &a.cfg.Config
	h := a.handlers
	return tg.RunOptions{
		Config:   core,
		Registry: a.registry,
		Middlewares: tg.DefaultMiddlewares(core, tg.MiddlewareOptions{
			OnLimited: h.Limited,
			Access: &middleware.AccessOptions{
				Checker:  a.users,
				OwnerID:  core.Telegram.AdminID,
				OnReject: h.Rejected,
			},
			Navigation: &navigation.Options{Store: a.store, Root: h.Root},
		}),
		Routes: a.routes(h),
		OnStart: func(_ context.Context, rt tg.Runtime) error {
			a.notifier.bind(rt.Dispatcher)
			return nil
		},
		OnStop: func(context.Context, tg.Runtime) error {
			a.notifier.bind(nil)
			return a.Close()
		},
	}, nil
}

func (a *App) routes(fb ui.FallbackProvider) []tg.Route {
	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		Admins:        a.users,
		OwnerID:       a.cfg.Telegram.AdminID,
		OnAdminReject: a.handlers.AdminRejected,
	})
	routes = append(routes, router.CallbackRoute(a.registry, router.CallbackOptions{NotFound: fb.UnknownCallback()}))
	routes = append(routes, router.TextRoutes(a.fsm, a.registry, router.TextOptions{
		UnknownText:     fb.UnknownText(),
		UnknownDocument: fb.UnknownDocument(),
	})...)
	return append(routes, a.handlers.InlineRoute())
}

// Store returns the session store in use.
func (a *App) Store() state.Store {
	return a.store
}

// DB returns the database handle.
func (a *App) DB() *sqlx.DB {
	return a.db
}

// Close releases the database.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
