package store

import "context"

// InsertDomainEvent persists an event row.
func (q *Queries) InsertDomainEvent(ctx context.Context, arg NewDomainEvent) (DomainEvent, error) {
	ev := DomainEvent{ID: arg.ID, Topic: arg.Topic, AggregateID: arg.AggregateID, Payload: arg.Payload}
	err := q.db.QueryRow(ctx, `
INSERT INTO domain_events (id, topic, aggregate_id, payload)
VALUES ($1, $2, $3, $4)
RETURNING occurred_at`, arg.ID, arg.Topic, arg.AggregateID, arg.Payload).Scan(&ev.OccurredAt)
	return ev, err
}
