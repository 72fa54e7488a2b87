package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stillwater-massage/practice/libs/apperr"
	"github.com/stillwater-massage/practice/libs/db"
	"github.com/stillwater-massage/practice/services/practice-service/internal/model"
	"github.com/stillwater-massage/practice/services/practice-service/internal/settings"
)

func (s *Store) ListBusinessHours(ctx context.Context) ([]model.BusinessHours, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT day_of_week, is_open, open_minute, close_minute
		FROM business_hours
		ORDER BY day_of_week
	`)
	if err != nil {
		return nil, fmt.Errorf("list business hours: %w", err)
	}
	defer rows.Close()

	var out []model.BusinessHours
	for rows.Next() {
		var h model.BusinessHours
		var day int16
		if err := rows.Scan(&day, &h.IsOpen, &h.OpenMinute, &h.CloseMinute); err != nil {
			return nil, fmt.Errorf("list business hours: %w", err)
		}
		h.DayOfWeek = time.Weekday(day)
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) UpsertBusinessHours(ctx context.Context, h model.BusinessHours) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO business_hours (day_of_week, is_open, open_minute, close_minute)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (day_of_week) DO UPDATE
		SET is_open = EXCLUDED.is_open,
			open_minute = EXCLUDED.open_minute,
			close_minute = EXCLUDED.close_minute,
			updated_at = now()
	`, int16(h.DayOfWeek), h.IsOpen, h.OpenMinute, h.CloseMinute)
	if err != nil {
		return fmt.Errorf("upsert business hours: %w", err)
	}
	return nil
}

func (s *Store) GetValue(ctx context.Context, key string) (json.RawMessage, error) {
	var raw string
	err := s.pool.QueryRow(ctx, `SELECT value::text FROM settings WHERE key = $1`, key).Scan(&raw)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, apperr.NotFound("setting " + key)
		}
		return nil, fmt.Errorf("get setting %s: %w", key, err)
	}
	return json.RawMessage(raw), nil
}

func (s *Store) SetValue(ctx context.Context, key string, value json.RawMessage) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO settings (key, value)
		VALUES ($1, $2::jsonb)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
			updated_at = now()
	`, key, string(value))
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

func (s *Store) ListValues(ctx context.Context) (map[string]json.RawMessage, error) {
	rows, err := s.pool.Query(ctx, `SELECT key, value::text FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	out := map[string]json.RawMessage{}
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, fmt.Errorf("list settings: %w", err)
		}
		out[key] = json.RawMessage(raw)
	}
	return out, rows.Err()
}

const blockedColumns = `id::text, blocked_on, reason, created_by, created_at`

func scanBlocked(row scanner) (model.BlockedDate, error) {
	var b model.BlockedDate
	err := row.Scan(&b.ID, &b.Date, &b.Reason, &b.CreatedBy, &b.CreatedAt)
	return b, err
}

func (s *Store) CreateBlockedDate(ctx context.Context, b model.BlockedDate) (model.BlockedDate, error) {
	created, err := scanBlocked(s.pool.QueryRow(ctx, `
		INSERT INTO blocked_dates (blocked_on, reason, created_by)
		VALUES ($1, $2, $3)
		RETURNING `+blockedColumns,
		model.DateOf(b.Date), b.Reason, b.CreatedBy,
	))
	if err != nil {
		if db.ErrorCode(err) == db.CodeUniqueViolation {
			return model.BlockedDate{}, settings.ErrDateAlreadyBlocked
		}
		return model.BlockedDate{}, fmt.Errorf("create blocked date: %w", err)
	}
	return created, nil
}

func (s *Store) DeleteBlockedDate(ctx context.Context, id string) error {
	if !validID(id) {
		return apperr.NotFound("blocked date")
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM blocked_dates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete blocked date: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("blocked date")
	}
	return nil
}

func (s *Store) ListBlockedDates(ctx context.Context, from time.Time) ([]model.BlockedDate, error) {
	var fromArg any
	if !from.IsZero() {
		fromArg = model.DateOf(from)
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+blockedColumns+`
		FROM blocked_dates
		WHERE $1::date IS NULL OR blocked_on >= $1::date
		ORDER BY blocked_on ASC
	`, fromArg)
	if err != nil {
		return nil, fmt.Errorf("list blocked dates: %w", err)
	}
	defer rows.Close()

	var out []model.BlockedDate
	for rows.Next() {
		b, err := scanBlocked(rows)
		if err != nil {
			return nil, fmt.Errorf("list blocked dates: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
