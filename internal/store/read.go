package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/recordkit/internal/record"
)

// ErrNotFound is returned when no snapshot exists for a name or seq.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot describes one saved list.
type Snapshot struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Seq   int64  `json:"seq"`
	Hash  string `json:"hash"`
	Count int    `json:"count"`
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (Snapshot, error) {
	var snap Snapshot
	err := row.Scan(&snap.ID, &snap.Name, &snap.Seq, &snap.Hash, &snap.Count)
	return snap, err
}

// Latest returns the newest snapshot of name.
func (s *Store) Latest(ctx context.Context, name string) (Snapshot, error) {
	snap, err := scanSnapshot(s.db.QueryRowContext(ctx, `
		SELECT id, name, seq, hash, count
		FROM snapshots
		WHERE name = ?
		ORDER BY seq DESC
		LIMIT 1
	`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("latest snapshot %q: %w", name, err)
	}
	return snap, nil
}

// Load returns the records of the newest snapshot of name.
func (s *Store) Load(ctx context.Context, name string) ([]record.Record, Snapshot, error) {
	snap, err := s.Latest(ctx, name)
	if err != nil {
		return nil, Snapshot{}, err
	}
	records, err := s.readRecords(ctx, snap.ID)
	if err != nil {
		return nil, Snapshot{}, fmt.Errorf("load snapshot %q: %w", name, err)
	}
	return records, snap, nil
}

// LoadSeq returns the records of one specific snapshot of name.
func (s *Store) LoadSeq(ctx context.Context, name string, seq int64) ([]record.Record, Snapshot, error) {
	snap, err := scanSnapshot(s.db.QueryRowContext(ctx, `
		SELECT id, name, seq, hash, count
		FROM snapshots
		WHERE name = ? AND seq = ?
	`, name, seq))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, Snapshot{}, fmt.Errorf("%w: %q seq %d", ErrNotFound, name, seq)
	}
	if err != nil {
		return nil, Snapshot{}, fmt.Errorf("load snapshot %q seq %d: %w", name, seq, err)
	}
	records, err := s.readRecords(ctx, snap.ID)
	if err != nil {
		return nil, Snapshot{}, fmt.Errorf("load snapshot %q seq %d: %w", name, seq, err)
	}
	return records, snap, nil
}

// History returns every snapshot of name, oldest first.
// Returns an empty slice (not nil) for an unknown name.
func (s *Store) History(ctx context.Context, name string) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, seq, hash, count
		FROM snapshots
		WHERE name = ?
		ORDER BY seq ASC
	`, name)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	snaps := []Snapshot{}
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return snaps, nil
}

// List returns the newest snapshot of every name, ordered by name.
func (s *Store) List(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.name, s.seq, s.hash, s.count
		FROM snapshots s
		WHERE s.seq = (SELECT MAX(seq) FROM snapshots WHERE name = s.name)
		ORDER BY s.name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	snaps := []Snapshot{}
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return snaps, nil
}

// Find returns the records of the newest snapshot of name that match
// query, in list order. Matching follows record.Record.Matches: every
// query key must be present and equal, with Int and Float comparing
// numerically. An empty query returns every record.
func (s *Store) Find(ctx context.Context, name string, query record.Record) ([]record.Record, error) {
	snap, err := s.Latest(ctx, name)
	if err != nil {
		return nil, err
	}

	where, args, err := compileQuery(query)
	if err != nil {
		return nil, fmt.Errorf("find in %q: %w", name, err)
	}

	sqlText := `
		SELECT data
		FROM snapshot_records
		WHERE snapshot_id = ?` + where + `
		ORDER BY position ASC`
	rows, err := s.db.QueryContext(ctx, sqlText, append([]any{snap.ID}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("find in %q: %w", name, err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func (s *Store) readRecords(ctx context.Context, snapshotID string) ([]record.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT data
		FROM snapshot_records
		WHERE snapshot_id = ?
		ORDER BY position ASC
	`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]record.Record, error) {
	records := []record.Record{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		var r record.Record
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// compileQuery turns a query record into AND-ed JSON1 predicates.
// Keys and values are always bound as parameters. Keys are sorted for
// deterministic SQL.
func compileQuery(query record.Record) (string, []any, error) {
	var (
		b    strings.Builder
		args []any
	)
	for _, k := range query.SortedKeys() {
		path, err := jsonPath(k)
		if err != nil {
			return "", nil, err
		}
		switch v := query[k].(type) {
		case nil, record.Null:
			b.WriteString(" AND json_type(data, ?) = 'null'")
			args = append(args, path)
		case record.Bool:
			// json_extract yields 1/0 for true/false
			b.WriteString(" AND json_type(data, ?) IN ('true', 'false') AND json_extract(data, ?) = ?")
			args = append(args, path, path, bool(v))
		case record.Int, record.Float:
			b.WriteString(" AND json_type(data, ?) IN ('integer', 'real') AND json_extract(data, ?) = ?")
			args = append(args, path, path, record.ToAny(v))
		default:
			b.WriteString(" AND json_type(data, ?) = 'text' AND json_extract(data, ?) = ?")
			args = append(args, path, path, v.String())
		}
	}
	return b.String(), args, nil
}

// jsonPath quotes key as a single JSON path member.
func jsonPath(key string) (string, error) {
	if strings.ContainsAny(key, `"\`) {
		return "", fmt.Errorf("key %q: quotes and backslashes are not supported in queries", key)
	}
	return `$."` + key + `"`, nil
}
