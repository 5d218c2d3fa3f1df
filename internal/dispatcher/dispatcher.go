package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bzplugins/airshot/pkg/bzapi"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/bzplugins/airshot/internal/dispatcher"

// ErrNoHandler is returned by Dispatch when nothing is subscribed to the event type.
var ErrNoHandler = errors.New("no handler registered")

// HandlerFunc processes an event. Handlers may mutate the payload.
type HandlerFunc func(bzapi.Event)

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures handler registration.
type Option func(*config)

type config struct {
	logged bool
}

// Logged adds debug logging to the handler.
func Logged() Option {
	return func(c *config) {
		c.logged = true
	}
}

type subscription struct {
	owner   string
	handler HandlerFunc
}

// Dispatcher delivers events to subscribed handlers in registration order.
// Delivery is synchronous: Dispatch returns after every handler has run.
type Dispatcher struct {
	handlers map[bzapi.EventType][]subscription
	logger   Logger

	// OTEL metrics
	processed metric.Int64Counter
	unhandled metric.Int64Counter
}

// New creates a new Dispatcher with the given logger.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(logger Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		handlers: make(map[bzapi.EventType][]subscription),
		logger:   logger,
	}

	m := otel.Meter(instrumentationName)

	var err error

	d.processed, err = m.Int64Counter(
		"dispatcher.events.processed",
		metric.WithDescription("Total events delivered to handlers"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}

	d.unhandled, err = m.Int64Counter(
		"dispatcher.events.unhandled",
		metric.WithDescription("Total events with no subscribed handler"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating unhandled counter: %w", err)
	}

	return d, nil
}

// Register subscribes owner's handler to events of type t. Registering the
// same owner twice for a type replaces the earlier handler.
func (d *Dispatcher) Register(t bzapi.EventType, owner string, h HandlerFunc, opts ...Option) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	handler := h
	if cfg.logged {
		handler = d.withLogging(t, owner, handler)
	}

	subs := d.handlers[t]
	for i, s := range subs {
		if s.owner == owner {
			subs[i].handler = handler
			return
		}
	}
	d.handlers[t] = append(subs, subscription{owner: owner, handler: handler})
}

// Remove unsubscribes owner from events of type t.
func (d *Dispatcher) Remove(t bzapi.EventType, owner string) {
	subs := d.handlers[t]
	for i, s := range subs {
		if s.owner == owner {
			d.handlers[t] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(d.handlers[t]) == 0 {
		delete(d.handlers, t)
	}
}

// RemoveOwner unsubscribes owner from every event type.
func (d *Dispatcher) RemoveOwner(owner string) {
	for t := range d.handlers {
		d.Remove(t, owner)
	}
}

// Dispatch delivers e to every handler subscribed to its type.
func (d *Dispatcher) Dispatch(e bzapi.Event) error {
	subs, ok := d.handlers[e.Type()]
	typeAttr := metric.WithAttributes(attribute.String("event", e.Type().String()))
	if !ok {
		d.unhandled.Add(context.Background(), 1, typeAttr)
		return fmt.Errorf("%s: %w", e.Type(), ErrNoHandler)
	}
	for _, s := range subs {
		s.handler(e)
		d.processed.Add(context.Background(), 1, typeAttr)
	}
	return nil
}

// HasHandler returns true if any handler is subscribed to t.
func (d *Dispatcher) HasHandler(t bzapi.EventType) bool {
	return len(d.handlers[t]) > 0
}

func (d *Dispatcher) withLogging(t bzapi.EventType, owner string, h HandlerFunc) HandlerFunc {
	return func(e bzapi.Event) {
		start := time.Now()
		d.logger.Debug("handling event", "event", t.String(), "owner", owner)

		h(e)

		d.logger.Debug("event complete", "event", t.String(), "owner", owner, "duration", time.Since(start))
	}
}
