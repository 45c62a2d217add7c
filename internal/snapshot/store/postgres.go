package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"partyreg/internal/snapshot/models"
	id "partyreg/pkg/domain"
)

// PostgresArchive mirrors every captured snapshot into postgres for
// reporting. It is write-through only; the in-memory ledger stays the
// authoritative read path and retention never prunes the archive.
type PostgresArchive struct {
	pool *pgxpool.Pool
}

func NewPostgresArchive(pool *pgxpool.Pool) *PostgresArchive {
	return &PostgresArchive{pool: pool}
}

// Migrate creates the archive table.
func (a *PostgresArchive) Migrate(ctx context.Context) error {
	_, err := a.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS party_snapshots (
			party_id        BIGINT      NOT NULL,
			sequence        BIGINT      NOT NULL,
			captured_at     TIMESTAMPTZ NOT NULL,
			member_count    INT         NOT NULL,
			verified_count  INT         NOT NULL,
			document_count  INT         NOT NULL,
			PRIMARY KEY (party_id, sequence)
		)`)
	if err != nil {
		return fmt.Errorf("migrate party_snapshots: %w", err)
	}
	return nil
}

// Append inserts one snapshot. Replayed (party, sequence) pairs are ignored
// so a retried batch never duplicates rows.
func (a *PostgresArchive) Append(ctx context.Context, snap models.Snapshot) error {
	_, err := a.pool.Exec(ctx, `
		INSERT INTO party_snapshots
			(party_id, sequence, captured_at, member_count, verified_count, document_count)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (party_id, sequence) DO NOTHING`,
		int64(snap.PartyID), int64(snap.Sequence), snap.Timestamp,
		snap.MemberCount, snap.VerifiedMemberCount, snap.DocumentVerifiedMemberCount,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// History reads a party's archived series in capture order.
func (a *PostgresArchive) History(ctx context.Context, partyID id.PartyID, limit int) ([]models.Snapshot, error) {
	rows, err := a.pool.Query(ctx, `
		SELECT party_id, sequence, captured_at, member_count, verified_count, document_count
		FROM party_snapshots
		WHERE party_id = $1
		ORDER BY sequence ASC
		LIMIT $2`,
		int64(partyID), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []models.Snapshot
	for rows.Next() {
		var snap models.Snapshot
		var pid, seq int64
		if err := rows.Scan(&pid, &seq, &snap.Timestamp,
			&snap.MemberCount, &snap.VerifiedMemberCount, &snap.DocumentVerifiedMemberCount); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.PartyID = id.PartyID(pid)
		snap.Sequence = uint64(seq)
		out = append(out, snap)
	}
	return out, rows.Err()
}
