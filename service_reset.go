package authcore

import (
	"context"
	"errors"
	"fmt"

	"github.com/arcvale/authcore/internal"
	"github.com/arcvale/authcore/password"
)

// RequestPasswordReset issues a reset token for the account owning email and
// returns it so the caller can deliver it out of band. An unknown email
// returns an empty token with no error, so the operation's outward shape
// never reveals whether the address is registered. Issuing a new token does
// not invalidate other live tokens for the same account.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}

	tok, err := internal.NewResetToken(s.config.Reset.TokenBytes)
	if err != nil {
		return "", err
	}

	acct, err := s.accounts.AppendResetToken(ctx, email, tok, s.config.Reset.TokenTTL)
	if err != nil {
		if translated := translateStoreErr(err); errors.Is(translated, ErrAccountNotFound) {
			s.metrics.Inc(MetricPasswordResetRequest)
			s.emitAudit(ctx, EventPasswordResetRequest, "unknown", false,
				fmt.Sprintf("Email %s not found", email))
			return "", nil
		}
		return "", translateStoreErr(err)
	}

	s.metrics.Inc(MetricPasswordResetRequest)
	s.emitAudit(ctx, EventPasswordResetRequest, acct.Username, true, "")

	return tok, nil
}

// ConfirmPasswordReset redeems a reset token and installs the new password.
// Redemption is single-use and atomic with the password change; it also
// clears any active lockout so the owner regains access immediately. Every
// token failure mode reports the same ErrResetTokenInvalid.
func (s *Service) ConfirmPasswordReset(ctx context.Context, tok, newPassword string) error {
	if err := s.ready(); err != nil {
		return err
	}

	if err := password.ValidateStrength(newPassword); err != nil {
		return fmt.Errorf("%w: %v", ErrPasswordPolicy, err)
	}

	digest, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	acct, err := s.accounts.Redeem(ctx, tok, digest)
	if err != nil {
		translated := translateStoreErr(err)
		if errors.Is(translated, ErrResetTokenInvalid) {
			s.metrics.Inc(MetricPasswordResetConfirmFailure)
			s.emitAudit(ctx, EventPasswordResetFailed, "", false, "invalid or expired token")
		}
		return translated
	}

	s.metrics.Inc(MetricPasswordResetConfirmSuccess)
	s.emitAudit(ctx, EventPasswordResetSuccess, acct.Username, true, "")

	return nil
}
