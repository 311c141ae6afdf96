package domain

// Role identifies the kind of account performing an operation.
type Role string

const (
	RoleBuyer  Role = "BUYER"
	RoleVendor Role = "VENDOR"
	RoleAdmin  Role = "ADMIN"
)

// Actor is the authenticated principal behind a request. Authentication
// itself is external; handlers receive verified claims and pass an Actor
// down to the services that gate on it.
type Actor struct {
	ID       int64
	Role     Role
	Category BuyerCategory // meaningful for buyers only
}

// IsAdmin reports whether the actor carries the admin role.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }
