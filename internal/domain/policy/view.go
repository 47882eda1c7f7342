// Package policy decides what a viewer may do with a claim.
package policy

import "github.com/garyjia/expense-workflow/internal/domain/entity"

// Role is the viewer's role
type Role string

const (
	RoleOwner   Role = "owner"
	RoleManager Role = "manager"
)

// IsValid returns true for known roles
func (r Role) IsValid() bool {
	return r == RoleOwner || r == RoleManager
}

// ClaimSelection identifies the claim being viewed, either by server id or by period
type ClaimSelection struct {
	ClaimID int64
	Period  entity.Period
}

// ByID reports whether the claim was selected by its server id
func (s ClaimSelection) ByID() bool {
	return s.ClaimID > 0
}

// ViewContext carries who is looking at a claim and on whose behalf
type ViewContext struct {
	ViewerRole Role
	ViewerID   string
	// ActingAsOwnerID is set when a manager acts for another employee (proxy mode)
	ActingAsOwnerID string
	ClaimSelection  ClaimSelection
}

// IsManager reports whether the viewer is a manager
func (v ViewContext) IsManager() bool {
	return v.ViewerRole == RoleManager
}

// IsProxy reports whether a manager selected an owner to act for
func (v ViewContext) IsProxy() bool {
	return v.IsManager() && v.ActingAsOwnerID != ""
}

// OwnerID is the employee whose claims the viewer is working on
func (v ViewContext) OwnerID() string {
	if v.IsProxy() {
		return v.ActingAsOwnerID
	}
	return v.ViewerID
}

// actsFor reports whether the viewer works on ownerID's claim as its owner or proxy
func (v ViewContext) actsFor(ownerID string) bool {
	return v.ViewerID == ownerID || (v.IsProxy() && v.ActingAsOwnerID == ownerID)
}
