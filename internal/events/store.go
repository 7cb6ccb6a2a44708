package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore appends emitted events to the domain_events table.
type PostgresStore struct {
	Pool *pgxpool.Pool
	Now  func() time.Time
}

func (s *PostgresStore) InsertEvent(ctx context.Context, topic string, aggregateID uuid.UUID, payload []byte) (Event, error) {
	if s == nil || s.Pool == nil {
		return Event{}, errors.New("event store not configured")
	}
	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}
	evt := Event{
		ID:          uuid.New(),
		Topic:       topic,
		AggregateID: aggregateID,
		Payload:     payload,
		OccurredAt:  now,
	}
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO domain_events (id, topic, aggregate_id, payload, occurred_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		evt.ID, evt.Topic, evt.AggregateID, evt.Payload, evt.OccurredAt)
	if err != nil {
		return Event{}, fmt.Errorf("insert event: %w", err)
	}
	return evt, nil
}
