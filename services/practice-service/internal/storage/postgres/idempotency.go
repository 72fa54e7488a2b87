package postgres

import (
	"context"
	"fmt"

	"github.com/stillwater-massage/practice/libs/db"
)

func (s *Store) LookupIdempotency(ctx context.Context, key string) (int, []byte, bool, error) {
	var status int
	var payload string
	err := s.pool.QueryRow(ctx, `
		SELECT status_code, response_payload::text
		FROM booking_idempotency_keys
		WHERE idempotency_key = $1
	`, key).Scan(&status, &payload)
	if err != nil {
		if db.IsNoRows(err) {
			return 0, nil, false, nil
		}
		return 0, nil, false, fmt.Errorf("lookup idempotency key: %w", err)
	}
	return status, []byte(payload), true, nil
}

// SaveIdempotency keeps the first response stored for a key.
func (s *Store) SaveIdempotency(ctx context.Context, key string, status int, payload []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO booking_idempotency_keys (idempotency_key, status_code, response_payload)
		VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (idempotency_key) DO NOTHING
	`, key, status, string(payload))
	if err != nil {
		return fmt.Errorf("save idempotency key: %w", err)
	}
	return nil
}
