package order

import "github.com/shopsphere/storefront/internal/domain/auth"

// CanTransition is the single authorization predicate for status changes.
// An order may be advanced by a platform administrator or by a vendor who
// owns at least one of its line items. Buyers never self-transition their
// own orders. Any one qualifying vendor moves the order as a whole; status
// is not segmented per line item.
func CanTransition(actor auth.Actor, o *Order) bool {
	switch actor.Role {
	case auth.RoleAdmin:
		return true
	case auth.RoleVendor:
		return o.HasVendor(actor.ID)
	default:
		return false
	}
}

// CanView reports whether the actor may read the order: the owning buyer,
// a vendor with a line item in it, or an admin.
func CanView(actor auth.Actor, o *Order) bool {
	switch actor.Role {
	case auth.RoleAdmin:
		return true
	case auth.RoleVendor:
		return o.HasVendor(actor.ID)
	case auth.RoleBuyer:
		return o.BuyerID == actor.ID
	default:
		return false
	}
}
