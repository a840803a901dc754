package service

import (
	"time"

	"rentalhub/pkg/logger"
	"rentalhub/pkg/mailer"
	"rentalhub/pkg/models"
	"rentalhub/pkg/password"
	"rentalhub/pkg/ratelimit"
	"rentalhub/storage"
)

const defaultOTPTTL = 10 * time.Minute

type TokenIssuer interface {
	Generate(caller models.Caller) (string, error)
}

// Deps are the collaborators shared by every service.
type Deps struct {
	Mailer   mailer.Sender
	Hasher   password.Hasher
	Tokens   TokenIssuer
	Throttle ratelimit.Throttle
	Clock    func() time.Time
	OTPTTL   time.Duration
	// BaseURL prefixes links placed in emails.
	BaseURL string
}

func (d Deps) withDefaults() Deps {
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.OTPTTL <= 0 {
		d.OTPTTL = defaultOTPTTL
	}
	if d.Throttle == nil {
		d.Throttle = ratelimit.Nop{}
	}
	return d
}

type IServiceManager interface {
	OTP() OTPService
	Account() AccountService
	Profile() ProfileService
	Listing() ListingService
	Notification() NotificationService
	Favorite() FavoriteService
}

type service struct {
	otpService          OTPService
	accountService      AccountService
	profileService      ProfileService
	listingService      ListingService
	notificationService NotificationService
	favoriteService     FavoriteService
}

func New(stg storage.IStorage, deps Deps, log logger.ILogger) IServiceManager {
	deps = deps.withDefaults()

	otp := newOTPService(stg, deps, log)
	notifications := NewNotificationService(stg, deps, log)

	return &service{
		otpService:          otp,
		accountService:      newAccountService(stg, otp, deps, log),
		profileService:      NewProfileService(stg, deps, log),
		listingService:      NewListingService(stg, notifications, log),
		notificationService: notifications,
		favoriteService:     NewFavoriteService(stg, log),
	}
}

func (s *service) OTP() OTPService                   { return s.otpService }
func (s *service) Account() AccountService           { return s.accountService }
func (s *service) Profile() ProfileService           { return s.profileService }
func (s *service) Listing() ListingService           { return s.listingService }
func (s *service) Notification() NotificationService { return s.notificationService }
func (s *service) Favorite() FavoriteService         { return s.favoriteService }
