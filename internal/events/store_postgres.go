package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	id "partyreg/pkg/domain"
)

// PostgresStore archives events durably. Driven by database/sql so it works
// with any registered postgres driver; main registers lib/pq.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the archive table. Idempotent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS registry_events (
			id         TEXT PRIMARY KEY,
			kind       TEXT NOT NULL,
			party_id   BIGINT NOT NULL DEFAULT 0,
			subject    TEXT NOT NULL DEFAULT '',
			actor      TEXT NOT NULL DEFAULT '',
			occurred   TIMESTAMPTZ NOT NULL,
			detail     JSONB
		);
		CREATE INDEX IF NOT EXISTS registry_events_party_idx ON registry_events (party_id, occurred);
	`)
	if err != nil {
		return fmt.Errorf("migrate registry_events: %w", err)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	var detail []byte
	if len(event.Detail) > 0 {
		var err error
		detail, err = json.Marshal(event.Detail)
		if err != nil {
			return fmt.Errorf("marshal event detail: %w", err)
		}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO registry_events (id, kind, party_id, subject, actor, occurred, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`,
		event.ID, string(event.Kind), uint64(event.PartyID),
		event.Subject.String(), event.Actor.String(), event.Timestamp, detail,
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByParty(ctx context.Context, partyID id.PartyID) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, party_id, subject, actor, occurred, detail
		FROM registry_events WHERE party_id = $1 ORDER BY occurred`,
		uint64(partyID),
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			event   Event
			kind    string
			idRaw   uint64
			subject string
			actor   string
			detail  []byte
		)
		if err := rows.Scan(&event.ID, &kind, &idRaw, &subject, &actor, &event.Timestamp, &detail); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		event.Kind = Kind(kind)
		event.PartyID = id.PartyID(idRaw)
		event.Subject = id.Identity(subject)
		event.Actor = id.Identity(actor)
		if len(detail) > 0 {
			if err := json.Unmarshal(detail, &event.Detail); err != nil {
				return nil, fmt.Errorf("unmarshal event detail: %w", err)
			}
		}
		out = append(out, event)
	}
	return out, rows.Err()
}
