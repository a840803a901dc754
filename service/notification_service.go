package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"rentalhub/pkg/logger"
	"rentalhub/pkg/mailer"
	"rentalhub/pkg/models"
	"rentalhub/pkg/xerrors"
	"rentalhub/storage"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Channel string

const (
	ChannelInApp     Channel = "in_app"
	ChannelEmail     Channel = "email"
	ChannelDirectory Channel = "directory"
)

// DeliveryResult is the outcome of one side effect for one recipient.
type DeliveryResult struct {
	RecipientID string
	Channel     Channel
	Err         error
}

func (r DeliveryResult) OK() bool {
	return r.Err == nil
}

type DeliveryReport struct {
	Event   models.NotificationType
	Results []DeliveryResult
}

func (r *DeliveryReport) add(recipientID string, channel Channel, err error) {
	r.Results = append(r.Results, DeliveryResult{RecipientID: recipientID, Channel: channel, Err: err})
}

func (r DeliveryReport) Failures() []DeliveryResult {
	var failed []DeliveryResult
	for _, res := range r.Results {
		if !res.OK() {
			failed = append(failed, res)
		}
	}
	return failed
}

type NotificationService interface {
	Notify(ctx context.Context, in models.NotificationInput) (*models.Notification, error)
	// ListingSubmitted and ListingReviewed never fail; every per-recipient
	// outcome is in the returned report and in the log.
	ListingSubmitted(ctx context.Context, listing *models.Listing, actorID string) DeliveryReport
	ListingReviewed(ctx context.Context, listing *models.Listing, approved bool, actorID string) DeliveryReport

	MarkRead(ctx context.Context, caller models.Caller, notificationID string) error
	MarkAllRead(ctx context.Context, caller models.Caller) (int64, error)
	UnreadCount(ctx context.Context, caller models.Caller) (int64, error)
	List(ctx context.Context, caller models.Caller, unreadOnly bool, limit, offset int) ([]*models.Notification, error)
}

type notificationService struct {
	stg     storage.IStorage
	mailer  mailer.Sender
	baseURL string
	log     logger.ILogger
}

func NewNotificationService(stg storage.IStorage, deps Deps, log logger.ILogger) NotificationService {
	return &notificationService{stg: stg, mailer: deps.Mailer, baseURL: deps.BaseURL, log: log}
}

func (s *notificationService) Notify(ctx context.Context, in models.NotificationInput) (*models.Notification, error) {
	if in.RecipientID == "" || in.Title == "" {
		return nil, fmt.Errorf("%w: notification needs a recipient and a title", xerrors.ErrValidation)
	}
	switch in.Type {
	case models.NotificationNewListingSubmitted, models.NotificationListingApproved, models.NotificationListingRejected:
	default:
		return nil, fmt.Errorf("%w: unknown notification type %q", xerrors.ErrValidation, in.Type)
	}

	return s.stg.Notification().Create(ctx, &models.Notification{
		ID:               uuid.NewString(),
		RecipientID:      in.RecipientID,
		Type:             in.Type,
		Title:            in.Title,
		Message:          in.Message,
		RelatedListingID: in.RelatedListingID,
		ActorID:          in.ActorID,
	})
}

func (s *notificationService) ListingSubmitted(ctx context.Context, listing *models.Listing, actorID string) DeliveryReport {
	report := DeliveryReport{Event: models.NotificationNewListingSubmitted}

	admins, err := s.stg.Identity().ListByRole(ctx, models.RoleAdmin)
	if err != nil {
		report.add("", ChannelDirectory, err)
		s.logReport(report, listing.ID)
		return report
	}

	title := "New listing submitted: " + listing.Title()
	message := "A new vehicle listing is waiting for review."
	for _, admin := range admins {
		s.deliver(ctx, &report, admin, models.NotificationInput{
			RecipientID:      admin.ID,
			Type:             models.NotificationNewListingSubmitted,
			Title:            title,
			Message:          &message,
			RelatedListingID: &listing.ID,
			ActorID:          optional(actorID),
		}, mailer.NewListingSubmitted, s.link("/admin/listings/"+listing.ID), listing)
	}

	s.logReport(report, listing.ID)
	return report
}

func (s *notificationService) ListingReviewed(ctx context.Context, listing *models.Listing, approved bool, actorID string) DeliveryReport {
	typ, tmpl := models.NotificationListingRejected, mailer.ListingRejected
	title, message := "Your listing was not approved", "Update the listing details and it will be reviewed again."
	path := "/owner/listings/" + listing.ID + "/edit"
	if approved {
		typ, tmpl = models.NotificationListingApproved, mailer.ListingApproved
		title, message = "Your listing was approved", "Your vehicle is now visible to renters."
		path = "/listings/" + listing.ID
	}
	report := DeliveryReport{Event: typ}

	owner, err := s.stg.Identity().GetByID(ctx, listing.OwnerID)
	if err != nil {
		// The row only needs the id; the email needs the address.
		owner = &models.Identity{ID: listing.OwnerID}
		s.log.Warning("listing owner lookup failed", logger.String("owner_id", listing.OwnerID), logger.Error(err))
	}

	s.deliver(ctx, &report, owner, models.NotificationInput{
		RecipientID:      listing.OwnerID,
		Type:             typ,
		Title:            title + ": " + listing.Title(),
		Message:          &message,
		RelatedListingID: &listing.ID,
		ActorID:          optional(actorID),
	}, tmpl, s.link(path), listing)

	s.logReport(report, listing.ID)
	return report
}

// deliver writes the row and attempts the email independently of each other.
func (s *notificationService) deliver(ctx context.Context, report *DeliveryReport, recipient *models.Identity, in models.NotificationInput, tmpl mailer.Template, link string, listing *models.Listing) {
	_, err := s.Notify(ctx, in)
	report.add(recipient.ID, ChannelInApp, err)

	if recipient.Email == "" {
		report.add(recipient.ID, ChannelEmail, fmt.Errorf("%w: recipient email unknown", xerrors.ErrNotFound))
		return
	}
	err = s.mailer.Send(ctx, recipient.Email, tmpl, map[string]any{
		"name":          displayName(recipient),
		"listing_title": listing.Title(),
		"link":          link,
	})
	report.add(recipient.ID, ChannelEmail, err)
}

func (s *notificationService) logReport(report DeliveryReport, listingID string) {
	failures := report.Failures()
	for _, f := range failures {
		s.log.Warning("notification delivery failed",
			logger.String("event", string(report.Event)),
			logger.String("listing_id", listingID),
			logger.String("recipient_id", f.RecipientID),
			logger.String("channel", string(f.Channel)),
			logger.Error(f.Err),
		)
	}
	s.log.Info("notification fan-out finished",
		logger.String("event", string(report.Event)),
		logger.String("listing_id", listingID),
		logger.Int("attempts", len(report.Results)),
		logger.Int("failures", len(failures)),
	)
}

func (s *notificationService) link(path string) string {
	return s.baseURL + path
}

func (s *notificationService) MarkRead(ctx context.Context, caller models.Caller, notificationID string) error {
	if err := authorize(caller, OpReadNotifications); err != nil {
		return err
	}
	found, err := s.stg.Notification().MarkRead(ctx, notificationID, caller.IdentityID)
	if err != nil {
		return fmt.Errorf("%w: mark read: %v", xerrors.ErrInternal, err)
	}
	if !found {
		return fmt.Errorf("%w: notification", xerrors.ErrNotFound)
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, caller models.Caller) (int64, error) {
	if err := authorize(caller, OpReadNotifications); err != nil {
		return 0, err
	}
	count, err := s.stg.Notification().MarkAllRead(ctx, caller.IdentityID)
	if err != nil {
		return 0, fmt.Errorf("%w: mark all read: %v", xerrors.ErrInternal, err)
	}
	return count, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, caller models.Caller) (int64, error) {
	if err := authorize(caller, OpReadNotifications); err != nil {
		return 0, err
	}
	count, err := s.stg.Notification().CountUnread(ctx, caller.IdentityID)
	if err != nil {
		return 0, fmt.Errorf("%w: count unread: %v", xerrors.ErrInternal, err)
	}
	return count, nil
}

func (s *notificationService) List(ctx context.Context, caller models.Caller, unreadOnly bool, limit, offset int) ([]*models.Notification, error) {
	if err := authorize(caller, OpReadNotifications); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	items, err := s.stg.Notification().ListByRecipient(ctx, caller.IdentityID, unreadOnly, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list notifications: %v", xerrors.ErrInternal, err)
	}
	return items, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
