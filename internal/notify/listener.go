package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/stylelend/rentbond/internal/domain"
)

// busEvent is the envelope the bond and risk services publish on the signal
// bus. Fields not set by a given event type are left at their zero values.
type busEvent struct {
	Event      string  `json:"event"`
	BondID     string  `json:"bond_id"`
	User       string  `json:"user"`
	UserID     string  `json:"user_id"`
	TokenID    string  `json:"token_id"`
	EventType  string  `json:"event_type"`
	Bundle     int     `json:"bundle"`
	BundleLeft int     `json:"bundle_left"`
	UserScore  float64 `json:"user_score"`
}

// Listener consumes signal bus channels and turns bond and risk events into
// operator notifications.
type Listener struct {
	bus      domain.SignalBus
	notifier *Notifier
	logger   *slog.Logger
}

// NewListener creates a Listener forwarding events from bus to notifier.
func NewListener(bus domain.SignalBus, notifier *Notifier, logger *slog.Logger) *Listener {
	return &Listener{
		bus:      bus,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "notify_listener")),
	}
}

// Run subscribes to the bond and risk channels and dispatches notifications
// until ctx is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	bondCh, err := l.bus.Subscribe(ctx, "bond")
	if err != nil {
		return fmt.Errorf("notify: subscribe bond: %w", err)
	}
	riskCh, err := l.bus.Subscribe(ctx, "risk")
	if err != nil {
		return fmt.Errorf("notify: subscribe risk: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case payload, ok := <-bondCh:
			if !ok {
				return nil
			}
			l.handle(ctx, payload)
		case payload, ok := <-riskCh:
			if !ok {
				return nil
			}
			l.handle(ctx, payload)
		}
	}
}

func (l *Listener) handle(ctx context.Context, payload []byte) {
	var ev busEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		l.logger.DebugContext(ctx, "unparseable bus payload",
			slog.String("error", err.Error()),
		)
		return
	}

	title, message := l.render(ev)
	if title == "" {
		return
	}
	if err := l.notifier.Notify(ctx, ev.Event, title, message); err != nil {
		l.logger.ErrorContext(ctx, "notification failed",
			slog.String("event", ev.Event),
			slog.String("error", err.Error()),
		)
	}
}

// render maps a bus event to a notification title and body. Unknown event
// types return an empty title and are skipped.
func (l *Listener) render(ev busEvent) (string, string) {
	switch ev.Event {
	case "bond_purchased":
		return "Bond purchased",
			fmt.Sprintf("%s bought %s (%d rentals)", ev.User, ev.BondID, ev.Bundle)
	case "bond_redeemed":
		if ev.BundleLeft == 0 {
			return "Bond exhausted",
				fmt.Sprintf("%s used the last rental of %s (item %s)", ev.User, ev.BondID, ev.TokenID)
		}
		return "Bond redeemed",
			fmt.Sprintf("%s redeemed %s against %s, %d left", ev.User, ev.TokenID, ev.BondID, ev.BundleLeft)
	case "user_event":
		return "User reliability event",
			fmt.Sprintf("%s: %s, score now %.1f", ev.UserID, ev.EventType, ev.UserScore)
	default:
		// item_event and anything unrecognised stay out of operator channels.
		return "", ""
	}
}
