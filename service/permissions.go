package service

import (
	"fmt"

	"rentalhub/pkg/models"
	"rentalhub/pkg/xerrors"
)

type Operation string

const (
	OpCreateProfile       Operation = "profile.create"
	OpUpdateProfile       Operation = "profile.update"
	OpGetProfile          Operation = "profile.get"
	OpReviewProfile       Operation = "profile.review"
	OpListPendingProfiles Operation = "profile.list_pending"

	OpCreateListing       Operation = "listing.create"
	OpUpdateListing       Operation = "listing.update"
	OpListOwnListings     Operation = "listing.list_own"
	OpReviewListing       Operation = "listing.review"
	OpListPendingListings Operation = "listing.list_pending"

	OpAddFavorite    Operation = "favorite.add"
	OpRemoveFavorite Operation = "favorite.remove"
	OpListFavorites  Operation = "favorite.list"

	OpReadNotifications Operation = "notification.read"
)

var everyone = map[models.Role]bool{models.RoleRenter: true, models.RoleOwner: true, models.RoleAdmin: true}

var permissions = map[Operation]map[models.Role]bool{
	OpCreateProfile:       {models.RoleRenter: true, models.RoleAdmin: true},
	OpUpdateProfile:       {models.RoleRenter: true, models.RoleAdmin: true},
	OpGetProfile:          {models.RoleRenter: true, models.RoleAdmin: true},
	OpReviewProfile:       {models.RoleAdmin: true},
	OpListPendingProfiles: {models.RoleAdmin: true},

	// Admins moderate listings but never own one, so creation stays owner-only.
	OpCreateListing:       {models.RoleOwner: true},
	OpUpdateListing:       {models.RoleOwner: true, models.RoleAdmin: true},
	OpListOwnListings:     {models.RoleOwner: true, models.RoleAdmin: true},
	OpReviewListing:       {models.RoleAdmin: true},
	OpListPendingListings: {models.RoleAdmin: true},

	OpAddFavorite:    everyone,
	OpRemoveFavorite: everyone,
	OpListFavorites:  everyone,

	OpReadNotifications: everyone,
}

// Allowed reports whether role may perform op. Unknown operations are denied.
func Allowed(op Operation, role models.Role) bool {
	return permissions[op][role]
}

func authorize(caller models.Caller, op Operation) error {
	if caller.IdentityID == "" || !Allowed(op, caller.Role) {
		return fmt.Errorf("%w: role %q may not perform %s", xerrors.ErrForbidden, caller.Role, op)
	}
	return nil
}

// authorizeOwner passes for the owning identity and for admins.
func authorizeOwner(caller models.Caller, ownerID string) error {
	if caller.IsAdmin() || caller.IdentityID == ownerID {
		return nil
	}
	return fmt.Errorf("%w: not the owner", xerrors.ErrForbidden)
}
