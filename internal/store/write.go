package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/recordkit/internal/record"
)

// Save stores records as the next snapshot of name and returns it.
//
// If the latest snapshot of name already has the same content hash, nothing
// is written and that snapshot is returned with inserted=false.
func (s *Store) Save(ctx context.Context, name string, records []record.Record) (snap Snapshot, inserted bool, err error) {
	if name == "" {
		return Snapshot{}, false, fmt.Errorf("save snapshot: empty name")
	}

	hash, err := record.ListHash(records)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("save snapshot %q: %w", name, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("save snapshot %q: begin tx: %w", name, err)
	}
	defer tx.Rollback() // No-op if committed

	latest, err := scanSnapshot(tx.QueryRowContext(ctx, `
		SELECT id, name, seq, hash, count
		FROM snapshots
		WHERE name = ?
		ORDER BY seq DESC
		LIMIT 1
	`, name))
	switch {
	case err == nil:
		if latest.Hash == hash {
			return latest, false, nil
		}
	case errors.Is(err, sql.ErrNoRows):
	default:
		return Snapshot{}, false, fmt.Errorf("save snapshot %q: read latest: %w", name, err)
	}

	snap = Snapshot{
		ID:    s.idGen.Generate(),
		Name:  name,
		Seq:   latest.Seq + 1,
		Hash:  hash,
		Count: len(records),
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots (id, name, seq, hash, count)
		VALUES (?, ?, ?, ?, ?)
	`, snap.ID, snap.Name, snap.Seq, snap.Hash, snap.Count)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("save snapshot %q: insert: %w", name, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO snapshot_records (snapshot_id, position, data)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("save snapshot %q: prepare: %w", name, err)
	}
	defer stmt.Close()

	for i, r := range records {
		data, err := marshalRecord(r)
		if err != nil {
			return Snapshot{}, false, fmt.Errorf("save snapshot %q: record %d: %w", name, i, err)
		}
		if _, err := stmt.ExecContext(ctx, snap.ID, i, data); err != nil {
			return Snapshot{}, false, fmt.Errorf("save snapshot %q: record %d: %w", name, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Snapshot{}, false, fmt.Errorf("save snapshot %q: commit: %w", name, err)
	}
	return snap, true, nil
}

// Delete removes every snapshot of name and returns how many were removed.
// Deleting an unknown name is not an error.
func (s *Store) Delete(ctx context.Context, name string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE name = ?`, name)
	if err != nil {
		return 0, fmt.Errorf("delete snapshot %q: %w", name, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete snapshot %q: rows affected: %w", name, err)
	}
	return n, nil
}

// marshalRecord converts a record to canonical JSON TEXT for storage.
func marshalRecord(r record.Record) (string, error) {
	data, err := record.MarshalCanonical(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
