// Package webhook serves Telegram webhook calls delivered through API Gateway to Lambda.
package webhook

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/m3rciful/shopbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// SecretHeader carries the secret token Telegram echoes on every webhook call.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// Processor handles a decoded update synchronously.
type Processor interface {
	ProcessUpdate(u tele.Update)
}

// Flusher waits for background sends started by an update.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Handler turns API Gateway proxy requests into bot updates.
type Handler struct {
	bot    Processor
	secret string
	flush  Flusher
}

// New builds a Handler. An empty secret disables the header check; flush may be nil.
func New(bot Processor, secret string, flush Flusher) (*Handler, error) {
	if bot == nil {
		return nil, errors.New("webhook: processor is required")
	}
	return &Handler{bot: bot, secret: secret, flush: flush}, nil
}

// Handle implements the Lambda entrypoint.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if req.HTTPMethod != "" && req.HTTPMethod != http.MethodPost {
		return respond(http.StatusMethodNotAllowed), nil
	}
	if h.secret != "" && header(req.Headers, SecretHeader) != h.secret {
		logger.Warn(ctx, "webhook", "request.rejected", slog.String("reason", "secret_mismatch"))
		return respond(http.StatusUnauthorized), nil
	}

	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			logger.Warn(ctx, "webhook", "request.rejected", slog.String("reason", "bad_base64"))
			return respond(http.StatusBadRequest), nil
		}
		body = decoded
	}

	var upd tele.Update
	if err := json.Unmarshal(body, &upd); err != nil {
		logger.Warn(ctx, "webhook", "request.rejected",
			slog.String("reason", "bad_json"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return respond(http.StatusBadRequest), nil
	}

	h.bot.ProcessUpdate(upd)
	if h.flush != nil {
		if err := h.flush.Flush(ctx); err != nil {
			logger.Warn(ctx, "webhook", "flush.incomplete",
				slog.Int("update_id", upd.ID),
				slog.String("err", err.Error()),
			)
		}
	}
	if err := logger.Sync(); err != nil {
		log.Printf("webhook: log sync: %v", err)
	}
	return respond(http.StatusOK), nil
}

func header(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func respond(code int) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: code,
		Headers:    map[string]string{"Content-Type": "text/plain"},
		Body:       http.StatusText(code),
	}
}
