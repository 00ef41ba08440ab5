package domain

import "errors"

// Roles carried in access tokens
const (
	RoleOwner = "owner"
	RoleStaff = "staff"
)

var ErrMissingTenant = errors.New("missing tenant context")

// Tenant identifies the business and the acting user for an operation.
// It is passed explicitly to every service call.
type Tenant struct {
	BusinessID string
	ActorID    string
	Role       string
}

// Validate ensures both identifiers are present
func (t Tenant) Validate() error {
	if t.BusinessID == "" || t.ActorID == "" {
		return ErrMissingTenant
	}
	return nil
}
