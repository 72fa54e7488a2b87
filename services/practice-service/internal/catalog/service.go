// Package catalog manages the packages and add-ons customers can book.
package catalog

import (
	"context"
	"strings"

	"github.com/stillwater-massage/practice/libs/apperr"
	"github.com/stillwater-massage/practice/services/practice-service/internal/model"
)

type Store interface {
	// ListOfferings orders by sort order then name. An empty kind lists both kinds.
	ListOfferings(ctx context.Context, kind model.OfferingKind, activeOnly bool) ([]model.Offering, error)
	GetOffering(ctx context.Context, id string) (model.Offering, error)
	CreateOffering(ctx context.Context, o model.Offering) (model.Offering, error)
	UpdateOffering(ctx context.Context, id string, mutate func(*model.Offering) error) (model.Offering, error)
	DeleteOffering(ctx context.Context, id string) error
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) ListActive(ctx context.Context, kind model.OfferingKind) ([]model.Offering, error) {
	if err := checkKindFilter(kind); err != nil {
		return nil, err
	}
	return s.store.ListOfferings(ctx, kind, true)
}

func (s *Service) List(ctx context.Context, kind model.OfferingKind) ([]model.Offering, error) {
	if err := checkKindFilter(kind); err != nil {
		return nil, err
	}
	return s.store.ListOfferings(ctx, kind, false)
}

func (s *Service) Get(ctx context.Context, id string) (model.Offering, error) {
	return s.store.GetOffering(ctx, id)
}

// OfferingInput has no current price: it is always derived.
type OfferingInput struct {
	Kind               model.OfferingKind
	Name               string
	Description        string
	DurationMinutes    int
	BasePrice          float64
	DiscountPercentage float64
	IsActive           bool
	SortOrder          int
}

func (s *Service) Create(ctx context.Context, in OfferingInput) (model.Offering, error) {
	o := model.Offering{
		Kind:               in.Kind,
		Name:               strings.TrimSpace(in.Name),
		Description:        strings.TrimSpace(in.Description),
		DurationMinutes:    in.DurationMinutes,
		BasePrice:          in.BasePrice,
		DiscountPercentage: in.DiscountPercentage,
		IsActive:           in.IsActive,
		SortOrder:          in.SortOrder,
	}
	if err := validate(o); err != nil {
		return model.Offering{}, err
	}
	o.Reprice()
	return s.store.CreateOffering(ctx, o)
}

type OfferingPatch struct {
	Name               *string
	Description        *string
	DurationMinutes    *int
	BasePrice          *float64
	DiscountPercentage *float64
	IsActive           *bool
	SortOrder          *int
}

func (s *Service) Update(ctx context.Context, id string, patch OfferingPatch) (model.Offering, error) {
	return s.store.UpdateOffering(ctx, id, func(o *model.Offering) error {
		if patch.Name != nil {
			o.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Description != nil {
			o.Description = strings.TrimSpace(*patch.Description)
		}
		if patch.DurationMinutes != nil {
			o.DurationMinutes = *patch.DurationMinutes
		}
		if patch.BasePrice != nil {
			o.BasePrice = *patch.BasePrice
		}
		if patch.DiscountPercentage != nil {
			o.DiscountPercentage = *patch.DiscountPercentage
		}
		if patch.IsActive != nil {
			o.IsActive = *patch.IsActive
		}
		if patch.SortOrder != nil {
			o.SortOrder = *patch.SortOrder
		}
		if err := validate(*o); err != nil {
			return err
		}
		o.Reprice()
		return nil
	})
}

// Delete is unconditional; appointments keep their own price snapshot.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.DeleteOffering(ctx, id)
}

func checkKindFilter(kind model.OfferingKind) error {
	if kind != "" && !kind.Valid() {
		return apperr.Invalid("kind", "must be package or addon")
	}
	return nil
}

func validate(o model.Offering) error {
	switch {
	case !o.Kind.Valid():
		return apperr.Invalid("kind", "must be package or addon")
	case o.Name == "":
		return apperr.Invalid("name", "is required")
	case len(o.Name) > 200:
		return apperr.Invalid("name", "must be at most 200 characters")
	case o.BasePrice < 0:
		return apperr.Invalid("base_price", "must not be negative")
	case o.DiscountPercentage < 0 || o.DiscountPercentage > 100:
		return apperr.Invalid("discount_percentage", "must be between 0 and 100")
	case o.DurationMinutes < 0 || o.DurationMinutes > 480:
		return apperr.Invalid("duration_minutes", "must be between 0 and 480")
	case o.Kind == model.KindPackage && o.DurationMinutes < 15:
		return apperr.Invalid("duration_minutes", "packages must last at least 15 minutes")
	}
	return nil
}
