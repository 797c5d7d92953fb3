package bot

import (
	"errors"

	tg "github.com/m3rciful/shopbot/core/telegram"
	"github.com/m3rciful/shopbot/core/telegram/commands"
	"github.com/m3rciful/shopbot/core/telegram/middleware"
	"github.com/m3rciful/shopbot/core/telegram/state"

	tele "gopkg.in/telebot.v4"
)

// AdminMinLevel is the highest admin level still allowed to use /admin.
const AdminMinLevel = 1

// Register installs commands, callbacks, typed-input states and fallbacks.
func (h *Handlers) Register(reg *tg.Registry, fsm *state.Machine) error {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     h.Start,
		Description: "Open the main menu",
		Aliases:     []string{"menu"},
	})
	reg.RegisterCommand("/admin", commands.Command{
		Handler:     h.Admin,
		Description: "Admin mode",
		AdminOnly:   true,
		MinLevel:    AdminMinLevel,
		Hidden:      true,
	})

	var errs []error
	for key, handler := range map[string]tele.HandlerFunc{
		CbProfile: h.Profile,
		CbOrders:  h.Orders,
		CbPCList:  h.PCList,
		CbListing: h.Listing,
		CbBid:     h.BidStart,
		CbSearch:  h.SearchStart,
	} {
		errs = append(errs, reg.RegisterCallback(key, handler))
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	fsm.Register(StateWaitingForPrice, h.BidPrice)
	fsm.Register(StateWaitingForQuery, h.SearchQuery)

	reg.SetCallbackNotFound(h.UnknownCallback())
	reg.SetTextFallback(h.UnknownText())
	return nil
}

// InlineRoute serves inline listing search.
func (h *Handlers) InlineRoute() tg.Route {
	return tg.Route{
		Endpoint: tele.OnQuery,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(h.InlineSearch)),
	}
}
