package alerting

import (
	"context"
	"errors"
	"fmt"

	logger "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.Logger"
)

const (
	AbnormalityYes = "yes"
	AbnormalityNo  = "no"
)

var ErrInvalidAbnormality = errors.New("abnormality must be \"yes\" or \"no\"")

// Relay delivers one alert request to the push relay
type Relay interface {
	Send(ctx context.Context, req AlertRequest) (*RelayResponse, error)
}

// TokenSource supplies the current push tokens
type TokenSource interface {
	Tokens() []string
}

// DispatchResult describes what a single dispatch did
type DispatchResult struct {
	Abnormality   string         `json:"abnormality"`
	Sent          bool           `json:"sent"`
	Skipped       bool           `json:"skipped"`
	TokenCount    int            `json:"token_count"`
	RelayResponse *RelayResponse `json:"relay_response,omitempty"`
}

// Dispatcher forwards abnormality alerts with every registered token to the relay
type Dispatcher struct {
	tokens TokenSource
	relay  Relay
	logger *logger.Logger
}

func NewDispatcher(tokens TokenSource, relay Relay, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		tokens: tokens,
		relay:  relay,
		logger: log.WithComponent("alert_dispatcher"),
	}
}

// Dispatch sends one relay request carrying the abnormality flag and a snapshot of the tokens.
// With no tokens registered nothing is sent. Relay failures are logged and returned.
func (d *Dispatcher) Dispatch(ctx context.Context, abnormality string) (*DispatchResult, error) {
	if abnormality != AbnormalityYes && abnormality != AbnormalityNo {
		return nil, ErrInvalidAbnormality
	}

	tokens := d.tokens.Tokens()
	result := &DispatchResult{Abnormality: abnormality, TokenCount: len(tokens)}

	if len(tokens) == 0 {
		d.logger.Logger.Info().Str("abnormality", abnormality).Msg("No push tokens saved, skipping notification")
		result.Skipped = true
		return result, nil
	}

	d.logger.Logger.Debug().Strs("tokens", tokens).Msg("Dispatching alert to push relay")

	resp, err := d.relay.Send(ctx, AlertRequest{Abnormality: abnormality, Tokens: tokens})
	if err != nil {
		d.logger.Logger.Error().Err(err).Int("token_count", len(tokens)).Msg("Failed to send notification")
		return nil, fmt.Errorf("dispatch %q alert: %w", abnormality, err)
	}

	d.logger.Logger.Info().
		Str("abnormality", abnormality).
		Int("token_count", len(tokens)).
		Int("relay_status", resp.StatusCode).
		Msg("Alert delivered to push relay")

	result.Sent = true
	result.RelayResponse = resp
	return result, nil
}
