package storage

import (
	"context"
	"time"

	"rentalhub/pkg/models"
)

type IStorage interface {
	Identity() IIdentityStorage
	Profile() IProfileStorage
	Listing() IListingStorage
	Notification() INotificationStorage
	Favorite() IFavoriteStorage
	// WithTx runs fn against a transactional view of the store. fn's writes
	// commit together when it returns nil and are discarded otherwise.
	WithTx(ctx context.Context, fn func(tx IStorage) error) error
	Close()
}

type IIdentityStorage interface {
	Create(ctx context.Context, identity *models.Identity) (*models.Identity, error)
	GetByID(ctx context.Context, id string) (*models.Identity, error)
	GetByEmail(ctx context.Context, email string) (*models.Identity, error)
	ListByRole(ctx context.Context, role models.Role) ([]*models.Identity, error)
	SetPendingOTP(ctx context.Context, id string, otp models.OTPState) error
	// ClearPendingOTP clears the pending code only if it still equals code.
	ClearPendingOTP(ctx context.Context, id, code string) (bool, error)
	MarkEmailVerified(ctx context.Context, id string) error
	SetProfileVerified(ctx context.Context, id string, verified bool) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

type IProfileStorage interface {
	Create(ctx context.Context, profile *models.RenterProfile) (*models.RenterProfile, error)
	GetByIdentityID(ctx context.Context, identityID string) (*models.RenterProfile, error)
	// Update writes the editable fields and clears reviewed_at.
	Update(ctx context.Context, profile *models.RenterProfile) (*models.RenterProfile, error)
	SetLicenseVerified(ctx context.Context, identityID string, verified bool, reviewedAt time.Time) error
	ListPendingReview(ctx context.Context) ([]*models.RenterProfile, error)
}

type IListingStorage interface {
	Create(ctx context.Context, listing *models.Listing) (*models.Listing, error)
	GetByID(ctx context.Context, id string) (*models.Listing, error)
	// Update writes the owner-editable fields; verified is left as stored.
	Update(ctx context.Context, listing *models.Listing) (*models.Listing, error)
	SetVerified(ctx context.Context, id string, verified bool) (*models.Listing, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Listing, error)
	ListPending(ctx context.Context) ([]*models.Listing, error)
	ListPublic(ctx context.Context) ([]*models.Listing, error)
}

type INotificationStorage interface {
	Create(ctx context.Context, n *models.Notification) (*models.Notification, error)
	MarkRead(ctx context.Context, id, recipientID string) (bool, error)
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
	CountUnread(ctx context.Context, recipientID string) (int64, error)
	ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, limit, offset int) ([]*models.Notification, error)
}

type IFavoriteStorage interface {
	// Add inserts the pair or returns the existing row.
	Add(ctx context.Context, identityID, listingID string) (*models.Favorite, error)
	Remove(ctx context.Context, identityID, listingID string) (bool, error)
	ListByIdentity(ctx context.Context, identityID string) ([]*models.Favorite, error)
}
