package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

func (s *Store) GetSettings(ctx context.Context) (string, error) {
	q := s.sql.Select("value_json").From("settings").Where(sq.Eq{"key": SettingsKey})
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return "", fmt.Errorf("build get settings query: %w", err)
	}
	var raw string
	if err := s.db.QueryRowContext(ctx, sqlStr, args...).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get settings: %w", err)
	}
	return raw, nil
}

func (s *Store) PutSettings(ctx context.Context, raw string) error {
	q := s.sql.Insert("settings").
		Columns("key", "value_json", "updated_at").
		Values(SettingsKey, raw, nowExpr(s.driver)).
		Suffix("ON CONFLICT(key) DO UPDATE SET value_json=excluded.value_json, updated_at=excluded.updated_at")

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build put settings query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("put settings: %w", err)
	}
	return nil
}

func (s *Store) UpsertRecord(ctx context.Context, rec Record) error {
	if rec.PayloadJSON == "" {
		rec.PayloadJSON = "{}"
	}
	q := s.sql.Insert("analysis_records").
		Columns("id", "case_id", "filename", "kind", "payload_json", "processed_at").
		Values(rec.ID, rec.CaseID, rec.Filename, rec.Kind, rec.PayloadJSON, rec.ProcessedAt).
		Suffix("ON CONFLICT(case_id, filename, kind) DO UPDATE SET id=excluded.id, payload_json=excluded.payload_json, processed_at=excluded.processed_at")

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build record upsert query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}
	return nil
}

func (s *Store) GetRecord(ctx context.Context, caseID, filename, kind string) (Record, error) {
	q := s.sql.Select("id", "case_id", "filename", "kind", "payload_json", "processed_at").
		From("analysis_records").
		Where(sq.Eq{"case_id": caseID, "filename": filename, "kind": kind})
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return Record{}, fmt.Errorf("build get record query: %w", err)
	}

	var rec Record
	if err := s.db.QueryRowContext(ctx, sqlStr, args...).Scan(
		&rec.ID,
		&rec.CaseID,
		&rec.Filename,
		&rec.Kind,
		&rec.PayloadJSON,
		&rec.ProcessedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

func (s *Store) ListRecords(ctx context.Context, caseID string) ([]Record, error) {
	q := s.sql.Select("id", "case_id", "filename", "kind", "payload_json", "processed_at").
		From("analysis_records").
		Where(sq.Eq{"case_id": caseID}).
		OrderBy("processed_at ASC", "filename ASC")
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list records query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID,
			&rec.CaseID,
			&rec.Filename,
			&rec.Kind,
			&rec.PayloadJSON,
			&rec.ProcessedAt,
		); err != nil {
			return nil, fmt.Errorf("scan record row: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate record rows: %w", err)
	}
	return out, nil
}

func (s *Store) DeleteCaseRecords(ctx context.Context, caseID string) (int64, error) {
	q := s.sql.Delete("analysis_records").Where(sq.Eq{"case_id": caseID})
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete case records query: %w", err)
	}
	res, err := s.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, fmt.Errorf("delete case records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted records: %w", err)
	}
	return n, nil
}

func (s *Store) Clear(ctx context.Context) error {
	for _, table := range []string{"analysis_records", "settings"} {
		q := s.sql.Delete(table)
		sqlStr, args, err := q.ToSql()
		if err != nil {
			return fmt.Errorf("build clear %s query: %w", table, err)
		}
		if _, err := s.db.ExecContext(ctx, sqlStr, args...); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

func nowExpr(driver string) any {
	if driver == "postgres" {
		return sq.Expr("NOW()")
	}
	return sq.Expr("CURRENT_TIMESTAMP")
}
