package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"rentalhub/pkg/logger"
	"rentalhub/pkg/models"
	"rentalhub/pkg/xerrors"
	"rentalhub/storage"
)

const otpDigits = 6

type OTPService interface {
	Issue(ctx context.Context, identityID string) (string, error)
	Consume(ctx context.Context, identityID, code string) error
	Peek(ctx context.Context, identityID, code string) error
}

type otpService struct {
	stg storage.IStorage
	ttl time.Duration
	now func() time.Time
	log logger.ILogger
}

func newOTPService(stg storage.IStorage, deps Deps, log logger.ILogger) *otpService {
	deps = deps.withDefaults()
	return &otpService{stg: stg, ttl: deps.OTPTTL, now: deps.Clock, log: log}
}

func NewOTPService(stg storage.IStorage, deps Deps, log logger.ILogger) OTPService {
	return newOTPService(stg, deps, log)
}

func (s *otpService) Issue(ctx context.Context, identityID string) (string, error) {
	return s.issueWith(ctx, s.stg.Identity(), identityID)
}

func (s *otpService) Consume(ctx context.Context, identityID, code string) error {
	return s.consumeWith(ctx, s.stg.Identity(), identityID, code)
}

func (s *otpService) Peek(ctx context.Context, identityID, code string) error {
	_, err := s.check(ctx, s.stg.Identity(), identityID, code)
	return err
}

// issueWith overwrites any pending code, so only the latest one is valid.
func (s *otpService) issueWith(ctx context.Context, ids storage.IIdentityStorage, identityID string) (string, error) {
	code, err := randomCode(otpDigits)
	if err != nil {
		s.log.Error("failed to generate otp", logger.Error(err))
		return "", fmt.Errorf("%w: generate otp: %v", xerrors.ErrInternal, err)
	}

	otp := models.OTPState{Code: code, ExpiresAt: s.now().Add(s.ttl)}
	if err := ids.SetPendingOTP(ctx, identityID, otp); err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			return "", fmt.Errorf("%w: identity %s", xerrors.ErrNotFound, identityID)
		}
		return "", fmt.Errorf("%w: store otp: %v", xerrors.ErrInternal, err)
	}

	s.log.Debug("otp issued", logger.String("identity_id", identityID))
	return code, nil
}

func (s *otpService) consumeWith(ctx context.Context, ids storage.IIdentityStorage, identityID, code string) error {
	if _, err := s.check(ctx, ids, identityID, code); err != nil {
		return err
	}

	cleared, err := ids.ClearPendingOTP(ctx, identityID, code)
	if err != nil {
		return fmt.Errorf("%w: clear otp: %v", xerrors.ErrInternal, err)
	}
	if !cleared {
		// A concurrent issue replaced the code between check and clear.
		return xerrors.NewOTPError(xerrors.OTPMismatch)
	}
	return nil
}

func (s *otpService) check(ctx context.Context, ids storage.IIdentityStorage, identityID, code string) (*models.Identity, error) {
	identity, err := ids.GetByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			return nil, xerrors.NewOTPError(xerrors.OTPNotFound)
		}
		return nil, fmt.Errorf("%w: load identity: %v", xerrors.ErrInternal, err)
	}

	switch otp := identity.PendingOTP; {
	case otp == nil:
		return nil, xerrors.NewOTPError(xerrors.OTPNoPendingCode)
	case otp.Expired(s.now()):
		return nil, xerrors.NewOTPError(xerrors.OTPExpired)
	case !otp.Matches(code):
		return nil, xerrors.NewOTPError(xerrors.OTPMismatch)
	}
	return identity, nil
}

func randomCode(digits int) (string, error) {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n.Int64()), nil
}
