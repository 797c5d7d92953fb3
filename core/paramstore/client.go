// Package paramstore reads secrets such as the bot token from AWS SSM Parameter Store.
package paramstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/ssm"

	coreconfig "github.com/m3rciful/shopbot/core/config"
)

// API is the part of *ssm.Client used here.
type API interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Getter returns decrypted parameter values.
type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// Client wraps an SSM API for parameter retrieval.
type Client struct {
	api API
}

// New creates a Client with the given SSM API implementation.
func New(api API) (*Client, error) {
	if api == nil {
		return nil, errors.New("paramstore: api must not be nil")
	}
	return &Client{api: api}, nil
}

// GetParameter fetches name with decryption enabled.
func (c *Client) GetParameter(ctx context.Context, name string) (string, error) {
	if c == nil || c.api == nil {
		return "", errors.New("paramstore: client not initialized")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("paramstore: name is required")
	}

	withDecryption := true
	out, err := c.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &name,
		WithDecryption: &withDecryption,
	})
	if err != nil {
		return "", fmt.Errorf("paramstore: get parameter %q: %w", name, err)
	}
	if out == nil || out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("paramstore: parameter %q missing value", name)
	}
	return *out.Parameter.Value, nil
}

// ResolveToken fills the bot token from telegram.token_param when no token
// was configured directly.
func ResolveToken(ctx context.Context, g Getter, cfg *coreconfig.Config) error {
	if cfg == nil || strings.TrimSpace(cfg.Telegram.Token) != "" {
		return nil
	}
	param := strings.TrimSpace(cfg.Telegram.TokenParam)
	if param == "" {
		return errors.New("paramstore: neither token nor token_param configured")
	}
	if g == nil {
		return errors.New("paramstore: token_param set but no parameter store available")
	}
	token, err := g.GetParameter(ctx, param)
	if err != nil {
		return err
	}
	cfg.Telegram.Token = strings.TrimSpace(token)
	return nil
}
