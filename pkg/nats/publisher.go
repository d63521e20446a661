package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"signaware-be/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Publisher pushes lifecycle events onto a JetStream work queue so external
// consumers (notification fan-out, audit trails) can pick them up without
// coupling to this service's database.
type Publisher struct {
	nc            *nats.Conn
	js            jetstream.JetStream
	stream        string
	subjectPrefix string
}

// NewPublisher connects to NATS and ensures the event stream exists. The
// stream captures every subject under subjectPrefix.
func NewPublisher(url, stream, subjectPrefix string) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      stream,
		Subjects:  []string{subjectPrefix + ".>"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.WorkQueuePolicy,
	})
	if err != nil {
		// NATS may not be ready yet; publishing will still surface errors.
		log.Printf("Warn: Failed to ensure stream %q: %v", stream, err)
	}

	return &Publisher{nc: nc, js: js, stream: stream, subjectPrefix: subjectPrefix}, nil
}

// subject maps an event type to its stream subject, e.g. USER_LOGIN ->
// signaware.events.USER_LOGIN.
func (p *Publisher) subject(eventType string) string {
	return p.subjectPrefix + "." + eventType
}

// Publish sends an event to the stream under its derived subject.
func (p *Publisher) Publish(ctx context.Context, event events.Event) error {
	data, err := json.Marshal(event.Payload())
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	subject := p.subject(event.EventType())
	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish event to subject %s: %w", subject, err)
	}

	return nil
}

// Close closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}
