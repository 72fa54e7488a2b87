package model

import "time"

type OfferingKind string

const (
	KindPackage OfferingKind = "package"
	KindAddon   OfferingKind = "addon"
)

func (k OfferingKind) Valid() bool { return k == KindPackage || k == KindAddon }

// Offering is a package or add-on in the catalog. CurrentPrice is derived
// from BasePrice and DiscountPercentage and is only ever set by Reprice.
type Offering struct {
	ID                 string
	Kind               OfferingKind
	Name               string
	Description        string
	DurationMinutes    int
	BasePrice          float64
	DiscountPercentage float64
	CurrentPrice       float64
	IsActive           bool
	SortOrder          int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (o *Offering) Reprice() {
	o.CurrentPrice = CurrentPrice(o.BasePrice, o.DiscountPercentage)
}

// CurrentPrice is base * (1 - discount/100) rounded to cents.
func CurrentPrice(base, discount float64) float64 {
	return RoundCents(base * (100 - discount) / 100)
}

type Customer struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
