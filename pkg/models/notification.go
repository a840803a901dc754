package models

import "time"

type NotificationType string

const (
	NotificationNewListingSubmitted NotificationType = "new_listing_submitted"
	NotificationListingApproved     NotificationType = "listing_approved"
	NotificationListingRejected     NotificationType = "listing_rejected"
)

type Notification struct {
	ID               string           `json:"id"`
	RecipientID      string           `json:"recipient_id"`
	Type             NotificationType `json:"type"`
	Title            string           `json:"title"`
	Message          *string          `json:"message,omitempty"`
	RelatedListingID *string          `json:"related_listing_id,omitempty"`
	ActorID          *string          `json:"actor_id,omitempty"`
	IsRead           bool             `json:"is_read"`
	CreatedAt        time.Time        `json:"created_at"`
}

type NotificationInput struct {
	RecipientID      string
	Type             NotificationType
	Title            string
	Message          *string
	RelatedListingID *string
	ActorID          *string
}

type Favorite struct {
	IdentityID string    `json:"identity_id"`
	ListingID  string    `json:"listing_id"`
	CreatedAt  time.Time `json:"created_at"`
}
