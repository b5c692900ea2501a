package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Service provides the admin-facing coupon operations: create, list, and
// toggling the active flag. Coupons are never otherwise mutated.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a coupon admin Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// CreateRequest holds the input for creating a coupon.
type CreateRequest struct {
	Code      string
	Kind      Kind
	Value     decimal.Decimal
	ExpiresAt time.Time
}

// Create validates and persists a new coupon rule. The code is canonicalized
// to uppercase before the duplicate check and before storage.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Coupon, error) {
	code := CanonicalCode(req.Code)
	if code == "" {
		return nil, errors.Wrap(ErrInvalidValue, "empty code")
	}
	if !req.Kind.Valid() {
		return nil, errors.Errorf("unsupported discount kind: %q", req.Kind)
	}
	if err := checkValue(req.Kind, req.Value); err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByCode(ctx, code); err == nil {
		return nil, ErrDuplicateCode
	} else if !errors.Is(err, ErrNotFound) {
		return nil, errors.Wrap(err, "check duplicate code")
	}

	c := &Coupon{
		ID:        uuid.New().String(),
		Code:      code,
		Kind:      req.Kind,
		Value:     req.Value,
		ExpiresAt: req.ExpiresAt,
		Active:    true,
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, errors.Wrap(err, "create coupon")
	}
	return c, nil
}

// List returns all coupon rules.
func (s *Service) List(ctx context.Context) ([]Coupon, error) {
	return s.repo.List(ctx)
}

// Toggle flips the active flag of the coupon with the given ID and returns
// the updated rule.
func (s *Service) Toggle(ctx context.Context, id string) (*Coupon, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetActive(ctx, id, !c.Active); err != nil {
		return nil, errors.Wrap(err, "toggle coupon")
	}
	c.Active = !c.Active
	return c, nil
}

// checkValue enforces the per-kind value range: Percentage in (0, 100],
// Fixed >= 0.
func checkValue(kind Kind, value decimal.Decimal) error {
	switch kind {
	case KindPercentage:
		if !value.IsPositive() || value.GreaterThan(hundred) {
			return ErrInvalidValue
		}
	case KindFixed:
		if value.IsNegative() {
			return ErrInvalidValue
		}
	}
	return nil
}
