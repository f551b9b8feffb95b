// Package auth signs users in against the configured accounts and gates HTTP
// routes by role capability.
package auth

import "fmt"

type Role string

const (
	RoleOwner Role = "owner"
	RoleStaff Role = "staff"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleOwner, RoleStaff:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Capability names one area of the application a role may reach.
type Capability int

const (
	ViewSales Capability = iota
	ViewExpenses
	ManageOrders
	ViewDesigns
	ViewAnalysis
	ViewDashboard
)

var capabilityNames = map[Capability]string{
	ViewSales:     "view_sales",
	ViewExpenses:  "view_expenses",
	ManageOrders:  "manage_orders",
	ViewDesigns:   "view_designs",
	ViewAnalysis:  "view_analysis",
	ViewDashboard: "view_dashboard",
}

func (c Capability) String() string {
	if n, ok := capabilityNames[c]; ok {
		return n
	}
	return fmt.Sprintf("capability(%d)", int(c))
}

// Can reports whether the role holds the capability. Owners hold all of
// them; staff only work tailoring orders.
func (r Role) Can(c Capability) bool {
	switch r {
	case RoleOwner:
		_, known := capabilityNames[c]
		return known
	case RoleStaff:
		return c == ManageOrders
	default:
		return false
	}
}

// Home is the landing path after sign-in.
func (r Role) Home() string {
	if r == RoleStaff {
		return "/tailoring"
	}
	return "/"
}
