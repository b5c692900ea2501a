package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Validator checks whether a coupon code is currently usable and returns the
// coupon on success.
type Validator interface {
	Validate(ctx context.Context, code string) (*Coupon, error)
}

// RepoValidator implements Validator against a Repository. Both the active
// flag and the expiry are re-checked on every call: an admin may deactivate
// a coupon, or time may pass its expiry, between cart sessions.
type RepoValidator struct {
	repo Repository
	now  func() time.Time
}

// NewRepoValidator creates a RepoValidator backed by the given Repository.
func NewRepoValidator(repo Repository) *RepoValidator {
	return &RepoValidator{repo: repo, now: time.Now}
}

// Validate canonicalizes the code, looks it up, and checks the active flag
// and expiry. A coupon is usable iff it is active and expires strictly after
// the current time.
func (v *RepoValidator) Validate(ctx context.Context, code string) (*Coupon, error) {
	c, err := v.repo.FindByCode(ctx, CanonicalCode(code))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}

	if !c.Active {
		return nil, ErrInactive
	}
	if !c.ExpiresAt.After(v.now()) {
		return nil, ErrExpired
	}

	return c, nil
}
