package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// ErrUnknownChannel is returned when the configured channel has no
// registered implementation.
var ErrUnknownChannel = errors.New("unknown notify channel")

const defaultReadyProbeInterval = 5 * time.Second

// Dispatcher routes messages to the configured delivery channel.
type Dispatcher struct {
	channels      map[string]Channel
	active        string
	probeInterval time.Duration
	clock         clockwork.Clock
}

// NewDispatcher creates a dispatcher delivering on the named channel.
func NewDispatcher(active string, channels ...Channel) (*Dispatcher, error) {
	m := make(map[string]Channel)
	for _, ch := range channels {
		m[ch.Name()] = ch
	}
	if _, ok := m[active]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownChannel, active)
	}
	return &Dispatcher{
		channels:      m,
		active:        active,
		probeInterval: defaultReadyProbeInterval,
		clock:         clockwork.NewRealClock(),
	}, nil
}

// Active returns the name of the configured delivery channel.
func (d *Dispatcher) Active() string {
	return d.active
}

// WaitReady blocks until the active channel reports ready or the
// context is cancelled.
func (d *Dispatcher) WaitReady(ctx context.Context) error {
	ch := d.channels[d.active]
	for {
		err := ch.Ready(ctx)
		if err == nil {
			return nil
		}
		slog.Warn("notify channel not ready", "channel", d.active, "error", err)

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s channel: %w", d.active, ctx.Err())
		case <-d.clock.After(d.probeInterval):
		}
	}
}

// Deliver sends a message on the active channel. A panicking channel
// surfaces as an error rather than unwinding into the caller.
func (d *Dispatcher) Deliver(ctx context.Context, userID int64, msg Message) (err error) {
	ch := d.channels[d.active]
	start := time.Now()

	defer func() {
		recordDeliveryDuration(d.active, time.Since(start))
		if r := recover(); r != nil {
			err = fmt.Errorf("channel %s panicked: %v", d.active, r)
		}
		if err != nil {
			recordDelivery(d.active, "error")
			return
		}
		recordDelivery(d.active, "success")
	}()

	if err = ch.Send(ctx, userID, msg); err != nil {
		return fmt.Errorf("send via %s: %w", d.active, err)
	}
	return nil
}
