package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"roofing_backend/platform/logger"

	"github.com/google/uuid"
	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

func startTestNATS(t *testing.T) string {
	t.Helper()
	opts := &natsserver.Options{Host: "127.0.0.1", Port: -1}
	srv, err := natsserver.NewServer(opts)
	if err != nil {
		t.Fatalf("starting embedded NATS: %v", err)
	}
	srv.Start()
	t.Cleanup(srv.Shutdown)
	if !srv.ReadyForConnections(5 * time.Second) {
		t.Fatal("embedded NATS not ready")
	}
	return srv.ClientURL()
}

func TestForwarderPublishesStatusChanges(t *testing.T) {
	url := startTestNATS(t)

	fwd, err := NewNATSForwarder(url, logger.Discard())
	if err != nil {
		t.Fatalf("creating forwarder: %v", err)
	}
	t.Cleanup(func() { _ = fwd.Close() })

	nc, err := nats.Connect(url)
	if err != nil {
		t.Fatalf("connecting subscriber: %v", err)
	}
	defer nc.Close()

	ch := make(chan *nats.Msg, 1)
	sub, err := nc.ChanSubscribe(NameLeadStatusChanged, ch)
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}
	defer sub.Unsubscribe() //nolint:errcheck
	if err := nc.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	bus := NewInMemoryBus(nil)
	fwd.Forward(bus, NameLeadStatusChanged, NameJobStatusChanged)

	leadID := uuid.New()
	err = bus.PublishSync(context.Background(), LeadStatusChanged{
		BaseEvent: NewBaseEvent(),
		LeadID:    leadID,
		From:      "quote_sent",
		To:        "won",
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case msg := <-ch:
		var got LeadStatusChanged
		if err := json.Unmarshal(msg.Data, &got); err != nil {
			t.Fatalf("decoding: %v", err)
		}
		if got.LeadID != leadID || got.From != "quote_sent" || got.To != "won" {
			t.Fatalf("unexpected payload: %+v", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for forwarded event")
	}
}
