package auth

import "context"

// Role classifies what an actor is allowed to do across the platform.
type Role string

const (
	// RoleBuyer is a regular shopper. Buyers own carts and orders but may
	// never advance an order through fulfillment.
	RoleBuyer Role = "buyer"
	// RoleVendor is a seller who owns products and fulfills the order line
	// items referencing them.
	RoleVendor Role = "vendor"
	// RoleAdmin is a platform administrator with unrestricted access.
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleVendor, RoleAdmin:
		return true
	}
	return false
}

// Actor is the authenticated identity attached to every request.
type Actor struct {
	ID    string
	Role  Role
	Name  string
	Email string
}

// IsAdmin reports whether the actor is a platform administrator.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

type actorKey struct{}

// WithActor returns a context carrying the given actor.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFromContext extracts the actor previously stored with WithActor.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}
