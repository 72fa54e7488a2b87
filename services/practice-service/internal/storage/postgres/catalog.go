package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/stillwater-massage/practice/libs/apperr"
	"github.com/stillwater-massage/practice/libs/db"
	"github.com/stillwater-massage/practice/services/practice-service/internal/model"
)

// current_price is a generated column; it is read back, never written.
const offeringColumns = `
	id::text, kind, name, description, duration_minutes, base_price::float8,
	discount_percentage::float8, current_price::float8, is_active, sort_order, created_at, updated_at`

func scanOffering(row scanner) (model.Offering, error) {
	var o model.Offering
	var kind string
	err := row.Scan(
		&o.ID,
		&kind,
		&o.Name,
		&o.Description,
		&o.DurationMinutes,
		&o.BasePrice,
		&o.DiscountPercentage,
		&o.CurrentPrice,
		&o.IsActive,
		&o.SortOrder,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	o.Kind = model.OfferingKind(kind)
	return o, err
}

func (s *Store) ListOfferings(ctx context.Context, kind model.OfferingKind, activeOnly bool) ([]model.Offering, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+offeringColumns+`
		FROM catalog_items
		WHERE ($1 = '' OR kind = $1)
			AND (NOT $2 OR is_active)
		ORDER BY sort_order ASC, name ASC
	`, string(kind), activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	defer rows.Close()

	var out []model.Offering
	for rows.Next() {
		o, err := scanOffering(rows)
		if err != nil {
			return nil, fmt.Errorf("list catalog: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Store) GetOffering(ctx context.Context, id string) (model.Offering, error) {
	if !validID(id) {
		return model.Offering{}, apperr.NotFound("catalog item")
	}
	o, err := scanOffering(s.pool.QueryRow(ctx, `
		SELECT `+offeringColumns+`
		FROM catalog_items
		WHERE id = $1
	`, id))
	if err != nil {
		if db.IsNoRows(err) {
			return model.Offering{}, apperr.NotFound("catalog item")
		}
		return model.Offering{}, fmt.Errorf("get catalog item: %w", err)
	}
	return o, nil
}

func (s *Store) CreateOffering(ctx context.Context, o model.Offering) (model.Offering, error) {
	created, err := scanOffering(s.pool.QueryRow(ctx, `
		INSERT INTO catalog_items
			(kind, name, description, duration_minutes, base_price, discount_percentage, is_active, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+offeringColumns,
		string(o.Kind), o.Name, o.Description, o.DurationMinutes, o.BasePrice, o.DiscountPercentage, o.IsActive, o.SortOrder,
	))
	if err != nil {
		return model.Offering{}, fmt.Errorf("create catalog item: %w", err)
	}
	return created, nil
}

func (s *Store) UpdateOffering(ctx context.Context, id string, mutate func(*model.Offering) error) (model.Offering, error) {
	if !validID(id) {
		return model.Offering{}, apperr.NotFound("catalog item")
	}
	var updated model.Offering
	err := s.pool.InTx(ctx, pgx.ReadCommitted, func(tx pgx.Tx) error {
		o, err := scanOffering(tx.QueryRow(ctx, `
			SELECT `+offeringColumns+`
			FROM catalog_items
			WHERE id = $1
			FOR UPDATE
		`, id))
		if err != nil {
			if db.IsNoRows(err) {
				return apperr.NotFound("catalog item")
			}
			return err
		}
		if err := mutate(&o); err != nil {
			return err
		}
		updated, err = scanOffering(tx.QueryRow(ctx, `
			UPDATE catalog_items
			SET name = $2,
				description = $3,
				duration_minutes = $4,
				base_price = $5,
				discount_percentage = $6,
				is_active = $7,
				sort_order = $8,
				updated_at = now()
			WHERE id = $1
			RETURNING `+offeringColumns,
			id, o.Name, o.Description, o.DurationMinutes, o.BasePrice, o.DiscountPercentage, o.IsActive, o.SortOrder,
		))
		return err
	})
	if err != nil {
		return model.Offering{}, mapWriteErr("update catalog item", err)
	}
	return updated, nil
}

func (s *Store) DeleteOffering(ctx context.Context, id string) error {
	if !validID(id) {
		return apperr.NotFound("catalog item")
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM catalog_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete catalog item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("catalog item")
	}
	return nil
}
