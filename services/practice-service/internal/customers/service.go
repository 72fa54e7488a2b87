package customers

import (
	"context"
	"net/mail"
	"strings"

	"github.com/stillwater-massage/practice/libs/apperr"
	"github.com/stillwater-massage/practice/services/practice-service/internal/model"
)

// ErrDuplicateEmail is returned unwrapped by stores when another customer
// already uses the email.
var ErrDuplicateEmail = apperr.Invalid("email", "a customer with this email already exists")

type Store interface {
	// ListCustomers matches query against name, email and phone; empty lists all.
	ListCustomers(ctx context.Context, query string, limit int) ([]model.Customer, error)
	GetCustomer(ctx context.Context, id string) (model.Customer, error)
	FindCustomerByEmail(ctx context.Context, email string) (model.Customer, error)
	CreateCustomer(ctx context.Context, c model.Customer) (model.Customer, error)
	UpdateCustomer(ctx context.Context, id string, mutate func(*model.Customer) error) (model.Customer, error)
	DeleteCustomer(ctx context.Context, id string) error
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) List(ctx context.Context, query string, limit int) ([]model.Customer, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.store.ListCustomers(ctx, strings.TrimSpace(query), limit)
}

func (s *Service) Get(ctx context.Context, id string) (model.Customer, error) {
	return s.store.GetCustomer(ctx, id)
}

type CustomerInput struct {
	Name  string
	Email string
	Phone string
	Notes string
}

func (s *Service) Create(ctx context.Context, in CustomerInput) (model.Customer, error) {
	c := model.Customer{
		Name:  strings.TrimSpace(in.Name),
		Email: normalizeEmail(in.Email),
		Phone: strings.TrimSpace(in.Phone),
		Notes: strings.TrimSpace(in.Notes),
	}
	if err := validate(c); err != nil {
		return model.Customer{}, err
	}
	return s.store.CreateCustomer(ctx, c)
}

type CustomerPatch struct {
	Name  *string
	Email *string
	Phone *string
	Notes *string
}

func (s *Service) Update(ctx context.Context, id string, patch CustomerPatch) (model.Customer, error) {
	return s.store.UpdateCustomer(ctx, id, func(c *model.Customer) error {
		if patch.Name != nil {
			c.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Email != nil {
			c.Email = normalizeEmail(*patch.Email)
		}
		if patch.Phone != nil {
			c.Phone = strings.TrimSpace(*patch.Phone)
		}
		if patch.Notes != nil {
			c.Notes = strings.TrimSpace(*patch.Notes)
		}
		return validate(*c)
	})
}

// Delete removes the customer. Their appointments stay, detached.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.DeleteCustomer(ctx, id)
}

// FindOrCreate returns the customer with email, creating one when none
// exists. Without an email a new customer is always created.
func (s *Service) FindOrCreate(ctx context.Context, name, email, phone string) (model.Customer, error) {
	email = normalizeEmail(email)
	if email != "" {
		c, err := s.store.FindCustomerByEmail(ctx, email)
		if err == nil {
			return c, nil
		}
		if apperr.KindOf(err) != apperr.KindNotFound {
			return model.Customer{}, err
		}
	}
	c, err := s.Create(ctx, CustomerInput{Name: name, Email: email, Phone: phone})
	if err == ErrDuplicateEmail {
		// Lost a race with a concurrent booking for the same email.
		return s.store.FindCustomerByEmail(ctx, email)
	}
	return c, err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validate(c model.Customer) error {
	if c.Name == "" {
		return apperr.Invalid("name", "is required")
	}
	if c.Email == "" && c.Phone == "" {
		return apperr.Invalid("email", "an email or phone number is required")
	}
	if c.Email != "" {
		if addr, err := mail.ParseAddress(c.Email); err != nil || addr.Address != c.Email {
			return apperr.Invalid("email", "is not a valid email address")
		}
	}
	return nil
}
