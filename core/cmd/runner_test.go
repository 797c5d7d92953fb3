package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/shopbot/core/config"
	coretelegram "github.com/m3rciful/shopbot/core/telegram"
	tgsender "github.com/m3rciful/shopbot/core/telegram/sender"
)

type carrier struct{ cfg *coreconfig.Config }

func (c carrier) CoreConfig() *coreconfig.Config { return c.cfg }

type app struct{ started, stopped *bool }

func (a app) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{
		OnStart: func(context.Context, coretelegram.Runtime) error { *a.started = true; return nil },
		OnStop:  func(context.Context, coretelegram.Runtime) error { *a.stopped = true; return nil },
	}, nil
}

type nopBot struct{}

func (nopBot) Send(tele.Recipient, interface{}, ...interface{}) (*tele.Message, error) {
	return &tele.Message{}, nil
}

func TestRunUsesExplicitConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "from-env.yaml")
	var loaded string
	var started, stopped bool

	err := Run(Options{
		ConfigPath: "explicit.yaml",
		LoadConfig: func(path string) (ConfigCarrier, error) {
			loaded = path
			return carrier{cfg: &coreconfig.Config{}}, nil
		},
		Bootstrap:      func(ConfigCarrier) (TelegramApp, error) { return app{&started, &stopped}, nil },
		ShutdownLogger: func() error { return nil },
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			d := tgsender.NewDispatcher(nopBot{}, tgsender.Options{})
			defer d.Close()
			rt := coretelegram.Runtime{Registry: coretelegram.NewRegistry(), Dispatcher: d}
			if err := opts.OnStart(ctx, rt); err != nil {
				return err
			}
			return opts.OnStop(ctx, rt)
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "explicit.yaml", loaded)
	assert.True(t, started)
	assert.True(t, stopped)
}

func TestRunFallsBackToEnv(t *testing.T) {
	t.Setenv("SHOP_CONFIG", "env.yaml")
	var loaded string
	err := Run(Options{
		ConfigEnvVar: "SHOP_CONFIG",
		LoadConfig: func(path string) (ConfigCarrier, error) {
			loaded = path
			return nil, errors.New("stop here")
		},
		Bootstrap: func(ConfigCarrier) (TelegramApp, error) { return nil, nil },
	})
	require.ErrorContains(t, err, "stop here")
	assert.Equal(t, "env.yaml", loaded)
}

func TestRunRequiresPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	err := Run(Options{
		LoadConfig: func(string) (ConfigCarrier, error) { return nil, nil },
		Bootstrap:  func(ConfigCarrier) (TelegramApp, error) { return nil, nil },
	})
	require.Error(t, err)
}
