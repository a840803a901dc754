package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"rentalhub/pkg/logger"
	"rentalhub/pkg/mailer"
	"rentalhub/pkg/models"
	"rentalhub/pkg/password"
	"rentalhub/pkg/xerrors"
	"rentalhub/storage"
)

const (
	purposeEmailVerification = "email_verification"
	purposePasswordReset     = "password_reset"
)

type RegisterInput struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	FullName string      `json:"full_name"`
	Role     models.Role `json:"role"`
}

type LoginResult struct {
	Token    string           `json:"token"`
	Identity *models.Identity `json:"identity"`
}

type AccountService interface {
	Register(ctx context.Context, in RegisterInput) (*models.Identity, error)
	ResendVerification(ctx context.Context, email string) error
	VerifyEmail(ctx context.Context, email, code string) error
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	ForgotPassword(ctx context.Context, email string) error
	CheckResetCode(ctx context.Context, email, code string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
	SeedAdmin(ctx context.Context, email, password, fullName string) (*models.Identity, error)
	GetIdentity(ctx context.Context, id string) (*models.Identity, error)
}

type accountService struct {
	stg  storage.IStorage
	otp  *otpService
	deps Deps
	log  logger.ILogger
}

func newAccountService(stg storage.IStorage, otp *otpService, deps Deps, log logger.ILogger) AccountService {
	return &accountService{stg: stg, otp: otp, deps: deps.withDefaults(), log: log}
}

func NewAccountService(stg storage.IStorage, deps Deps, log logger.ILogger) AccountService {
	return newAccountService(stg, newOTPService(stg, deps, log), deps, log)
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: invalid email %q", xerrors.ErrValidation, raw)
	}
	return email, nil
}

func validatePassword(plain string) error {
	if len(plain) < password.MinLength {
		return fmt.Errorf("%w: password must be at least %d characters", xerrors.ErrValidation, password.MinLength)
	}
	return nil
}

func (s *accountService) Register(ctx context.Context, in RegisterInput) (*models.Identity, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	if in.Role != models.RoleRenter && in.Role != models.RoleOwner {
		return nil, fmt.Errorf("%w: role must be renter or owner", xerrors.ErrValidation)
	}

	hash, err := s.deps.Hasher.Hash(in.Password)
	if err != nil {
		s.log.Error("failed to hash password", logger.Error(err))
		return nil, fmt.Errorf("%w: hash password: %v", xerrors.ErrInternal, err)
	}

	var (
		created *models.Identity
		code    string
	)
	err = s.stg.WithTx(ctx, func(tx storage.IStorage) error {
		var err error
		created, err = tx.Identity().Create(ctx, &models.Identity{
			ID:           uuid.NewString(),
			Email:        email,
			FullName:     strings.TrimSpace(in.FullName),
			Role:         in.Role,
			PasswordHash: hash,
		})
		if err != nil {
			return err
		}
		code, err = s.otp.issueWith(ctx, tx.Identity(), created.ID)
		return err
	})
	if err != nil {
		if errors.Is(err, xerrors.ErrConflict) {
			return nil, fmt.Errorf("%w: email already registered", xerrors.ErrConflict)
		}
		return nil, err
	}

	s.log.Info("identity registered", logger.String("identity_id", created.ID), logger.String("role", string(created.Role)))

	if err := s.sendCode(ctx, created, mailer.EmailVerification, code); err != nil {
		return nil, err
	}
	return created, nil
}

func (s *accountService) ResendVerification(ctx context.Context, email string) error {
	identity, err := s.identityByEmail(ctx, email)
	if err != nil {
		return err
	}
	if identity.EmailVerified {
		return fmt.Errorf("%w: email already verified", xerrors.ErrValidation)
	}
	if err := s.deps.Throttle.Allow(ctx, identity.ID, purposeEmailVerification); err != nil {
		return err
	}

	code, err := s.otp.issueWith(ctx, s.stg.Identity(), identity.ID)
	if err != nil {
		return err
	}
	return s.sendCode(ctx, identity, mailer.EmailVerification, code)
}

func (s *accountService) VerifyEmail(ctx context.Context, email, code string) error {
	identity, err := s.identityForOTP(ctx, email)
	if err != nil {
		return err
	}

	err = s.stg.WithTx(ctx, func(tx storage.IStorage) error {
		if err := s.otp.consumeWith(ctx, tx.Identity(), identity.ID, code); err != nil {
			return err
		}
		return tx.Identity().MarkEmailVerified(ctx, identity.ID)
	})
	if err != nil {
		return err
	}

	s.log.Info("email verified", logger.String("identity_id", identity.ID))
	return nil
}

func (s *accountService) Login(ctx context.Context, email, plain string) (*LoginResult, error) {
	identity, err := s.identityByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) || errors.Is(err, xerrors.ErrValidation) {
			return nil, xerrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.deps.Hasher.Compare(identity.PasswordHash, plain) {
		return nil, xerrors.ErrInvalidCredentials
	}
	if !identity.EmailVerified {
		return nil, xerrors.ErrEmailNotVerified
	}

	tok, err := s.deps.Tokens.Generate(models.Caller{IdentityID: identity.ID, Role: identity.Role})
	if err != nil {
		s.log.Error("failed to issue token", logger.Error(err))
		return nil, fmt.Errorf("%w: issue token: %v", xerrors.ErrInternal, err)
	}
	return &LoginResult{Token: tok, Identity: identity}, nil
}

func (s *accountService) ForgotPassword(ctx context.Context, email string) error {
	identity, err := s.identityByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := s.deps.Throttle.Allow(ctx, identity.ID, purposePasswordReset); err != nil {
		return err
	}

	code, err := s.otp.issueWith(ctx, s.stg.Identity(), identity.ID)
	if err != nil {
		return err
	}
	return s.sendCode(ctx, identity, mailer.PasswordReset, code)
}

// CheckResetCode validates a reset code without spending it; ResetPassword
// consumes the same code.
func (s *accountService) CheckResetCode(ctx context.Context, email, code string) error {
	identity, err := s.identityForOTP(ctx, email)
	if err != nil {
		return err
	}
	_, err = s.otp.check(ctx, s.stg.Identity(), identity.ID, code)
	return err
}

func (s *accountService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	identity, err := s.identityForOTP(ctx, email)
	if err != nil {
		return err
	}

	hash, err := s.deps.Hasher.Hash(newPassword)
	if err != nil {
		s.log.Error("failed to hash password", logger.Error(err))
		return fmt.Errorf("%w: hash password: %v", xerrors.ErrInternal, err)
	}

	err = s.stg.WithTx(ctx, func(tx storage.IStorage) error {
		if err := s.otp.consumeWith(ctx, tx.Identity(), identity.ID, code); err != nil {
			return err
		}
		return tx.Identity().UpdatePasswordHash(ctx, identity.ID, hash)
	})
	if err != nil {
		return err
	}

	s.log.Info("password reset", logger.String("identity_id", identity.ID))
	return nil
}

// SeedAdmin creates a verified admin, or returns the existing one for email.
func (s *accountService) SeedAdmin(ctx context.Context, email, plain, fullName string) (*models.Identity, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	existing, err := s.stg.Identity().GetByEmail(ctx, email)
	switch {
	case err == nil && existing.Role == models.RoleAdmin:
		return existing, nil
	case err == nil:
		return nil, fmt.Errorf("%w: %s is registered as %s", xerrors.ErrConflict, email, existing.Role)
	case !errors.Is(err, xerrors.ErrNotFound):
		return nil, fmt.Errorf("%w: lookup identity: %v", xerrors.ErrInternal, err)
	}

	if err := validatePassword(plain); err != nil {
		return nil, err
	}
	hash, err := s.deps.Hasher.Hash(plain)
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %v", xerrors.ErrInternal, err)
	}

	admin, err := s.stg.Identity().Create(ctx, &models.Identity{
		ID:            uuid.NewString(),
		Email:         email,
		FullName:      strings.TrimSpace(fullName),
		Role:          models.RoleAdmin,
		PasswordHash:  hash,
		EmailVerified: true,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("admin seeded", logger.String("identity_id", admin.ID))
	return admin, nil
}

func (s *accountService) GetIdentity(ctx context.Context, id string) (*models.Identity, error) {
	identity, err := s.stg.Identity().GetByID(ctx, id)
	if err != nil {
		return nil, wrapLookup(err, "identity")
	}
	return identity, nil
}

func (s *accountService) identityByEmail(ctx context.Context, raw string) (*models.Identity, error) {
	email, err := normalizeEmail(raw)
	if err != nil {
		return nil, err
	}
	identity, err := s.stg.Identity().GetByEmail(ctx, email)
	if err != nil {
		return nil, wrapLookup(err, "identity")
	}
	return identity, nil
}

// identityForOTP reports an unknown email as the not_found OTP reason.
func (s *accountService) identityForOTP(ctx context.Context, email string) (*models.Identity, error) {
	identity, err := s.identityByEmail(ctx, email)
	if errors.Is(err, xerrors.ErrNotFound) {
		return nil, xerrors.NewOTPError(xerrors.OTPNotFound)
	}
	return identity, err
}

// sendCode delivers an OTP email. Failures reach the caller because the email
// is the whole point of the request.
func (s *accountService) sendCode(ctx context.Context, identity *models.Identity, tmpl mailer.Template, code string) error {
	data := map[string]any{
		"name":        displayName(identity),
		"code":        code,
		"ttl_minutes": int(s.deps.OTPTTL.Minutes()),
	}
	if err := s.deps.Mailer.Send(ctx, identity.Email, tmpl, data); err != nil {
		s.log.Error("failed to send otp email",
			logger.String("identity_id", identity.ID),
			logger.String("template", string(tmpl)),
			logger.Error(err),
		)
		return fmt.Errorf("%w: send %s email: %v", xerrors.ErrInternal, tmpl, err)
	}
	return nil
}

func displayName(identity *models.Identity) string {
	if identity.FullName != "" {
		return identity.FullName
	}
	return identity.Email
}

// wrapLookup keeps ErrNotFound and reports anything else as internal.
func wrapLookup(err error, entity string) error {
	if errors.Is(err, xerrors.ErrNotFound) {
		return fmt.Errorf("%w: %s", xerrors.ErrNotFound, entity)
	}
	return fmt.Errorf("%w: load %s: %v", xerrors.ErrInternal, entity, err)
}
