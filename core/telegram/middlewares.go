package telegram

import (
	"strings"
	"time"

	coreconfig "github.com/m3rciful/shopbot/core/config"
	"github.com/m3rciful/shopbot/core/telegram/format"
	"github.com/m3rciful/shopbot/core/telegram/middleware"
	"github.com/m3rciful/shopbot/core/telegram/navigation"
	"github.com/m3rciful/shopbot/core/telegram/state"

	tele "gopkg.in/telebot.v4"
)

// MiddlewareOptions carries the collaborators of the shared chain.
type MiddlewareOptions struct {
	OnLimited  tele.HandlerFunc
	Access     *middleware.AccessOptions
	Navigation *navigation.Options
}

// DefaultMiddlewares builds the shared middleware chain: recover, rate limit,
// logger, metrics, access and navigation, outermost first.
func DefaultMiddlewares(cfg *coreconfig.Config, opts MiddlewareOptions) []Middleware {
	mws := []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
	}

	if cfg != nil {
		interval := time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond
		if interval > 0 {
			ex := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
			for _, t := range cfg.RateLimit.ExcludeUpdates {
				ex[strings.ToLower(t)] = struct{}{}
			}
			mws = append(mws, Middleware{
				Name: "rate_limit",
				Use: middleware.RateLimitMiddleware(middleware.RateLimitOptions{
					Interval:  interval,
					Exclude:   ex,
					OnLimited: opts.OnLimited,
				}),
			})
		}
	}

	mws = append(mws,
		Middleware{Name: "logger", Use: middleware.LoggerMiddleware},
		Middleware{Name: "metrics", Use: middleware.MessageMetricsMiddleware},
	)
	if opts.Access != nil {
		mws = append(mws, Middleware{Name: "access", Use: middleware.AllowList(*opts.Access)})
	}
	if opts.Navigation != nil {
		mws = append(mws, Middleware{Name: "navigation", Use: navigation.Middleware(navigationOptions(cfg, *opts.Navigation))})
	}
	return mws
}

// navigationOptions fills unset navigation options from the config.
func navigationOptions(cfg *coreconfig.Config, nav navigation.Options) navigation.Options {
	if cfg == nil {
		return nav
	}
	if nav.MaxDepth == 0 {
		nav.MaxDepth = cfg.Navigation.MaxDepth
	}
	if nav.EmptyNotice == "" {
		nav.EmptyNotice = cfg.Navigation.EmptyNotice
	}
	if nav.AlreadyHereNotice == "" {
		nav.AlreadyHereNotice = cfg.Navigation.AlreadyHereNotice
	}
	if nav.Root == nil && strings.TrimSpace(cfg.Navigation.RootText) != "" {
		root := state.Screen{Text: format.EscapeHTML(cfg.Navigation.RootText)}
		nav.Root = func(tele.Context) state.Screen { return root }
	}
	return nav
}
