package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stillwater-massage/practice/libs/apperr"
	"github.com/stillwater-massage/practice/libs/db"
	"github.com/stillwater-massage/practice/services/practice-service/internal/model"
	"github.com/stillwater-massage/practice/services/practice-service/internal/outbox"
)

const appointmentColumns = `
	id::text, COALESCE(customer_id::text, ''), customer_name, customer_email, customer_phone,
	service_id, service_name, service_price::float8, addon_ids, addons_total::float8,
	starts_at, duration_minutes, status, notes, created_by, created_at, updated_at`

func scanAppointment(row scanner) (model.Appointment, error) {
	var a model.Appointment
	var status, createdBy string
	err := row.Scan(
		&a.ID,
		&a.CustomerID,
		&a.CustomerName,
		&a.CustomerEmail,
		&a.CustomerPhone,
		&a.ServiceID,
		&a.ServiceName,
		&a.ServicePrice,
		&a.AddonIDs,
		&a.AddonsTotal,
		&a.StartsAt,
		&a.DurationMinutes,
		&status,
		&a.Notes,
		&createdBy,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return model.Appointment{}, err
	}
	a.Status = model.AppointmentStatus(status)
	a.CreatedBy = model.Actor(createdBy)
	return a, nil
}

func nullableID(id string) any {
	if id == "" {
		return nil
	}
	return id
}

func overlapExists(ctx context.Context, tx pgx.Tx, a model.Appointment) (bool, error) {
	if !a.Blocks() {
		return false, nil
	}
	var exists bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE status <> 'cancelled'
				AND starts_at < $2
				AND ends_at > $1
				AND ($3::uuid IS NULL OR id <> $3::uuid)
		)
	`, a.StartsAt, a.EndsAt(), nullableID(a.ID)).Scan(&exists)
	return exists, err
}

func (s *Store) CreateAppointment(ctx context.Context, a model.Appointment) (model.Appointment, error) {
	var created model.Appointment
	err := s.pool.InTx(ctx, pgx.Serializable, func(tx pgx.Tx) error {
		a.ID = ""
		taken, err := overlapExists(ctx, tx, a)
		if err != nil {
			return err
		}
		if taken {
			return apperr.ErrSlotConflict
		}

		addons := a.AddonIDs
		if addons == nil {
			addons = []string{}
		}
		created, err = scanAppointment(tx.QueryRow(ctx, `
			INSERT INTO appointments
				(customer_id, customer_name, customer_email, customer_phone, service_id, service_name,
				 service_price, addon_ids, addons_total, starts_at, ends_at, duration_minutes, status, notes, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			RETURNING `+appointmentColumns,
			nullableID(a.CustomerID), a.CustomerName, a.CustomerEmail, a.CustomerPhone, a.ServiceID, a.ServiceName,
			a.ServicePrice, addons, a.AddonsTotal, a.StartsAt, a.EndsAt(), a.DurationMinutes, string(a.Status), a.Notes, string(a.CreatedBy),
		))
		if err != nil {
			return err
		}
		return s.writeEvent(ctx, tx, outbox.AppointmentBooked, created)
	})
	if err != nil {
		return model.Appointment{}, mapWriteErr("create appointment", err)
	}
	return created, nil
}

func (s *Store) UpdateAppointment(ctx context.Context, id string, mutate func(*model.Appointment) error) (model.Appointment, error) {
	if !validID(id) {
		return model.Appointment{}, apperr.NotFound("appointment")
	}
	var updated model.Appointment
	err := s.pool.InTx(ctx, pgx.Serializable, func(tx pgx.Tx) error {
		before, err := scanAppointment(tx.QueryRow(ctx, `
			SELECT `+appointmentColumns+`
			FROM appointments
			WHERE id = $1
			FOR UPDATE
		`, id))
		if err != nil {
			if db.IsNoRows(err) {
				return apperr.NotFound("appointment")
			}
			return err
		}

		after := before
		after.AddonIDs = append([]string(nil), before.AddonIDs...)
		if err := mutate(&after); err != nil {
			return err
		}
		after.ID = before.ID

		taken, err := overlapExists(ctx, tx, after)
		if err != nil {
			return err
		}
		if taken {
			return apperr.ErrSlotConflict
		}

		updated, err = scanAppointment(tx.QueryRow(ctx, `
			UPDATE appointments
			SET customer_name = $2,
				customer_email = $3,
				customer_phone = $4,
				starts_at = $5,
				ends_at = $6,
				duration_minutes = $7,
				status = $8,
				notes = $9,
				updated_at = now()
			WHERE id = $1
			RETURNING `+appointmentColumns,
			id, after.CustomerName, after.CustomerEmail, after.CustomerPhone,
			after.StartsAt, after.EndsAt(), after.DurationMinutes, string(after.Status), after.Notes,
		))
		if err != nil {
			return err
		}
		return s.writeEvent(ctx, tx, outbox.UpdateEventType(before, updated), updated)
	})
	if err != nil {
		return model.Appointment{}, mapWriteErr("update appointment", err)
	}
	return updated, nil
}

func (s *Store) DeleteAppointment(ctx context.Context, id string) error {
	if !validID(id) {
		return apperr.NotFound("appointment")
	}
	err := s.pool.InTx(ctx, pgx.ReadCommitted, func(tx pgx.Tx) error {
		deleted, err := scanAppointment(tx.QueryRow(ctx, `
			DELETE FROM appointments
			WHERE id = $1
			RETURNING `+appointmentColumns, id))
		if err != nil {
			if db.IsNoRows(err) {
				return apperr.NotFound("appointment")
			}
			return err
		}
		return s.writeEvent(ctx, tx, outbox.AppointmentDeleted, deleted)
	})
	return mapWriteErr("delete appointment", err)
}

func (s *Store) writeEvent(ctx context.Context, tx pgx.Tx, eventType string, a model.Appointment) error {
	evt, err := outbox.NewAppointmentEvent(eventType, a, time.Now())
	if err != nil {
		return err
	}
	return s.outbox.Insert(ctx, tx, evt)
}

func (s *Store) GetAppointment(ctx context.Context, id string) (model.Appointment, error) {
	if !validID(id) {
		return model.Appointment{}, apperr.NotFound("appointment")
	}
	a, err := scanAppointment(s.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id))
	if err != nil {
		if db.IsNoRows(err) {
			return model.Appointment{}, apperr.NotFound("appointment")
		}
		return model.Appointment{}, fmt.Errorf("get appointment: %w", err)
	}
	return a, nil
}

func (s *Store) ListAppointments(ctx context.Context, f model.AppointmentFilter) ([]model.Appointment, error) {
	var where []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.CustomerID != "" {
		if !validID(f.CustomerID) {
			return nil, nil
		}
		where = append(where, "customer_id = "+arg(f.CustomerID))
	}
	if !f.Date.IsZero() {
		day := model.DateOf(f.Date)
		where = append(where, "starts_at >= "+arg(day), "starts_at < "+arg(day.AddDate(0, 0, 1)))
	}
	if !f.From.IsZero() {
		where = append(where, "starts_at >= "+arg(model.DateOf(f.From)))
	}
	if !f.To.IsZero() {
		where = append(where, "starts_at < "+arg(model.DateOf(f.To).AddDate(0, 0, 1)))
	}
	if f.Status != "" {
		where = append(where, "status = "+arg(string(f.Status)))
	}

	query := "SELECT " + appointmentColumns + " FROM appointments"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY starts_at DESC, created_at DESC"
	if f.Limit > 0 {
		query += " LIMIT " + arg(f.Limit)
	}
	return s.queryAppointments(ctx, "list appointments", query, args...)
}

func (s *Store) ListBlocking(ctx context.Context, from, to time.Time) ([]model.Appointment, error) {
	return s.queryAppointments(ctx, "list blocking appointments", `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status <> 'cancelled'
			AND starts_at < $2
			AND ends_at > $1
		ORDER BY starts_at ASC
	`, from, to)
}

func (s *Store) queryAppointments(ctx context.Context, op, query string, args ...any) ([]model.Appointment, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		appts = append(appts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return appts, nil
}
