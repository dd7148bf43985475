// Package authz holds the single ownership rule applied to every
// mutation of user-owned content.
package authz

import "github.com/quillpost/core/internal/models"

// Identity is the authenticated caller as carried by the bearer token.
type Identity struct {
	UserID string
	Role   string
}

func (i Identity) Authenticated() bool { return i.UserID != "" }

func (i Identity) IsAdmin() bool { return i.Role == models.RoleAdmin }

// CanMutate reports whether the identity may update or delete a resource
// owned by ownerID: admins always may, everyone else only their own.
func CanMutate(i Identity, ownerID string) bool {
	if !i.Authenticated() {
		return false
	}
	return i.IsAdmin() || (ownerID != "" && i.UserID == ownerID)
}
