package natsadapter

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/samirrijal/lunchpick/internal/core/domain"
)

// Subscriber tails recommendation events. lunchctl uses it to watch a
// running server.
type Subscriber struct {
	conn *nats.Conn
	subs []*nats.Subscription
}

func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := Connect(url)
	if err != nil {
		return nil, err
	}
	return &Subscriber{conn: conn}, nil
}

// SubscribeRecommendations calls handler for every event on subject
// (SubjectAll when empty). Undecodable messages are logged and skipped.
func (s *Subscriber) SubscribeRecommendations(ctx context.Context, subject string, handler func(ctx context.Context, e *domain.RecommendationEvent) error) error {
	if subject == "" {
		subject = SubjectAll
	}
	sub, err := s.conn.Subscribe(subject, func(msg *nats.Msg) {
		var e domain.RecommendationEvent
		if err := json.Unmarshal(msg.Data, &e); err != nil {
			slog.Warn("skip malformed recommendation event", "subject", msg.Subject, "error", err)
			return
		}
		if err := handler(ctx, &e); err != nil {
			slog.Warn("recommendation event handler failed", "id", e.ID, "error", err)
		}
	})
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes everything and drains the connection.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
