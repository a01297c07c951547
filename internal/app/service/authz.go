package service

import (
	"errors"

	"github.com/threemeal/threemeal-backend/internal/app/model"
)

var ErrForbidden = errors.New("forbidden")

// Decision is the outcome of an authorization check.
type Decision bool

const (
	Forbidden Decision = false
	Allowed   Decision = true
)

// Err maps a Forbidden decision to ErrForbidden.
func (d Decision) Err() error {
	if d == Allowed {
		return nil
	}
	return ErrForbidden
}

func decide(ok bool) Decision {
	if ok {
		return Allowed
	}
	return Forbidden
}

// HasRole reports whether user holds roleName among its loaded roles.
func HasRole(user *model.User, roleName model.RoleName) bool {
	if user == nil {
		return false
	}
	return user.HasRole(roleName)
}

// CanPublishMeals allows chefs and admins.
func CanPublishMeals(p model.Principal) Decision {
	return decide(p.HasRole(model.RoleChef) || p.IsAdmin())
}

// CanManageMeal allows the owning chef and admins.
func CanManageMeal(p model.Principal, meal *model.Meal) Decision {
	return decide(p.IsAdmin() || (p.IsAuthenticated() && meal.ChefID == p.UserID))
}

// CanModerate allows admins only.
func CanModerate(p model.Principal) Decision {
	return decide(p.IsAdmin())
}

// CanViewOrder allows the customer, the chef and admins.
func CanViewOrder(p model.Principal, order *model.Order) Decision {
	if !p.IsAuthenticated() {
		return Forbidden
	}
	return decide(p.IsAdmin() || order.ClientID == p.UserID || order.ChefID == p.UserID)
}

// CanEditAsCustomer allows the ordering customer and admins.
func CanEditAsCustomer(p model.Principal, order *model.Order) Decision {
	if !p.IsAuthenticated() {
		return Forbidden
	}
	return decide(p.IsAdmin() || order.ClientID == p.UserID)
}

// CanEditAsChef allows the order's chef and admins.
func CanEditAsChef(p model.Principal, order *model.Order) Decision {
	if !p.IsAuthenticated() {
		return Forbidden
	}
	return decide(p.IsAdmin() || order.ChefID == p.UserID)
}
