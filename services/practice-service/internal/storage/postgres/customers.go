package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/stillwater-massage/practice/libs/apperr"
	"github.com/stillwater-massage/practice/libs/db"
	"github.com/stillwater-massage/practice/services/practice-service/internal/customers"
	"github.com/stillwater-massage/practice/services/practice-service/internal/model"
)

const customerColumns = `id::text, name, email, phone, notes, created_at, updated_at`

func scanCustomer(row scanner) (model.Customer, error) {
	var c model.Customer
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (s *Store) ListCustomers(ctx context.Context, query string, limit int) ([]model.Customer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE $1 = ''
			OR name ILIKE '%' || $1 || '%'
			OR email ILIKE '%' || $1 || '%'
			OR phone LIKE '%' || $1 || '%'
		ORDER BY name ASC, id ASC
		LIMIT $2
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var out []model.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("list customers: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetCustomer(ctx context.Context, id string) (model.Customer, error) {
	if !validID(id) {
		return model.Customer{}, apperr.NotFound("customer")
	}
	return s.oneCustomer(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
}

func (s *Store) FindCustomerByEmail(ctx context.Context, email string) (model.Customer, error) {
	return s.oneCustomer(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE email <> '' AND lower(email) = lower($1)
	`, email)
}

func (s *Store) oneCustomer(ctx context.Context, query string, args ...any) (model.Customer, error) {
	c, err := scanCustomer(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if db.IsNoRows(err) {
			return model.Customer{}, apperr.NotFound("customer")
		}
		return model.Customer{}, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

func (s *Store) CreateCustomer(ctx context.Context, c model.Customer) (model.Customer, error) {
	created, err := scanCustomer(s.pool.QueryRow(ctx, `
		INSERT INTO customers (name, email, phone, notes)
		VALUES ($1, $2, $3, $4)
		RETURNING `+customerColumns,
		c.Name, c.Email, c.Phone, c.Notes,
	))
	if err != nil {
		if db.ErrorCode(err) == db.CodeUniqueViolation {
			return model.Customer{}, customers.ErrDuplicateEmail
		}
		return model.Customer{}, fmt.Errorf("create customer: %w", err)
	}
	return created, nil
}

func (s *Store) UpdateCustomer(ctx context.Context, id string, mutate func(*model.Customer) error) (model.Customer, error) {
	if !validID(id) {
		return model.Customer{}, apperr.NotFound("customer")
	}
	var updated model.Customer
	err := s.pool.InTx(ctx, pgx.ReadCommitted, func(tx pgx.Tx) error {
		c, err := scanCustomer(tx.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			if db.IsNoRows(err) {
				return apperr.NotFound("customer")
			}
			return err
		}
		if err := mutate(&c); err != nil {
			return err
		}
		updated, err = scanCustomer(tx.QueryRow(ctx, `
			UPDATE customers
			SET name = $2, email = $3, phone = $4, notes = $5, updated_at = now()
			WHERE id = $1
			RETURNING `+customerColumns,
			id, c.Name, c.Email, c.Phone, c.Notes,
		))
		return err
	})
	if err != nil {
		if db.ErrorCode(err) == db.CodeUniqueViolation {
			return model.Customer{}, customers.ErrDuplicateEmail
		}
		return model.Customer{}, mapWriteErr("update customer", err)
	}
	return updated, nil
}

func (s *Store) DeleteCustomer(ctx context.Context, id string) error {
	if !validID(id) {
		return apperr.NotFound("customer")
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("customer")
	}
	return nil
}
