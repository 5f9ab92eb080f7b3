package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"roofing_backend/platform/logger"

	"github.com/nats-io/nats.go"
)

// NATSForwarder republishes bus events as JSON on NATS, using the event name
// as the subject.
type NATSForwarder struct {
	conn *nats.Conn
	log  *logger.Logger
}

// NewNATSForwarder connects to url with automatic reconnection.
func NewNATSForwarder(url string, log *logger.Logger, opts ...nats.Option) (*NATSForwarder, error) {
	defaults := []nats.Option{
		nats.Name("roofing-pipeline"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	}
	nc, err := nats.Connect(url, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return &NATSForwarder{conn: nc, log: log}, nil
}

// Publish encodes event and publishes it on its name.
func (f *NATSForwarder) Publish(_ context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", event.EventName(), err)
	}
	return f.conn.Publish(event.EventName(), data)
}

// Forward subscribes the forwarder to each named event on bus.
func (f *NATSForwarder) Forward(bus Bus, names ...string) {
	for _, name := range names {
		bus.Subscribe(name, HandlerFunc(func(ctx context.Context, event Event) error {
			if err := f.Publish(ctx, event); err != nil {
				f.log.Warn("nats forward failed", "subject", event.EventName(), "error", err)
				return err
			}
			return nil
		}))
	}
}

// Close flushes pending messages and closes the connection.
func (f *NATSForwarder) Close() error {
	if err := f.conn.Drain(); err != nil {
		f.conn.Close()
		return err
	}
	return nil
}
