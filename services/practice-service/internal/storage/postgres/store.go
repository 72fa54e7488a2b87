// Package postgres implements the practice stores on pgx. Appointment writes
// run in SERIALIZABLE transactions and the appointments table carries an
// exclusion constraint, so overlapping bookings cannot both commit.
package postgres

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stillwater-massage/practice/libs/apperr"
	"github.com/stillwater-massage/practice/libs/db"
	"github.com/stillwater-massage/practice/services/practice-service/internal/outbox"
)

type Store struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func New(pool *db.Pool) *Store {
	return &Store{pool: pool, outbox: outbox.NewRepository()}
}

type scanner interface {
	Scan(dest ...any) error
}

// validID reports whether id can be a row key; anything else cannot exist.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// mapWriteErr turns the SQLSTATEs of a lost booking race into a slot conflict.
func mapWriteErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	switch db.ErrorCode(err) {
	case db.CodeExclusionViolation, db.CodeSerializationFailure, db.CodeDeadlockDetected:
		return apperr.Conflict("time slot already booked", err)
	case db.CodeForeignKeyViolation:
		return apperr.Invalid("customer_id", "customer does not exist")
	}
	return fmt.Errorf("%s: %w", op, err)
}
