package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/samirrijal/lunchpick/internal/core/domain"
)

// SubjectPrefix is the root of every recommendation subject:
// recommend.done, recommend.empty, recommend.failed.
const SubjectPrefix = "recommend"

// SubjectAll matches every recommendation event.
const SubjectAll = SubjectPrefix + ".>"

// Publisher implements ports.EventPublisher on core NATS. Events are
// fire-and-forget; nothing downstream depends on their delivery.
type Publisher struct {
	conn *nats.Conn
}

// Connect dials NATS with unlimited reconnects.
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("lunchpick"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return conn, nil
}

// NewPublisher connects to url and returns a Publisher owning the connection.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := Connect(url)
	if err != nil {
		return nil, err
	}
	return &Publisher{conn: conn}, nil
}

func SubjectFor(state domain.State) string {
	return SubjectPrefix + "." + strings.ToLower(string(state))
}

func (p *Publisher) PublishRecommendation(ctx context.Context, event *domain.RecommendationEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.conn.Publish(SubjectFor(event.State), data)
}

// Conn exposes the connection for readiness checks.
func (p *Publisher) Conn() *nats.Conn { return p.conn }

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}
