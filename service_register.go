package authcore

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/arcvale/authcore/password"
	"github.com/arcvale/authcore/store"
)

// Register creates a new account. The password must satisfy the strength
// policy; username and email must be unused. New accounts start active with
// a clean failure counter.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Account, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	if username == "" || email == "" {
		return nil, ErrRegistrationInvalid
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrRegistrationInvalid
	}

	role := req.Role
	if role == "" {
		role = RoleUser
	}
	if !ValidRole(role) {
		return nil, ErrRoleInvalid
	}

	if err := password.ValidateStrength(req.Password); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPasswordPolicy, err)
	}

	digest, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	acct := &store.Account{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		FullName:     strings.TrimSpace(req.FullName),
		PasswordHash: digest,
		Role:         role,
		Active:       true,
	}
	if err := s.accounts.Create(ctx, acct); err != nil {
		if translated := translateStoreErr(err); translated == ErrUsernameTaken || translated == ErrEmailTaken {
			s.metrics.Inc(MetricRegistrationDuplicate)
			return nil, translated
		}
		return nil, translateStoreErr(err)
	}

	s.metrics.Inc(MetricRegistrationSuccess)
	s.emitAudit(ctx, EventUserRegistration, acct.Username, true, "")

	return sanitize(acct), nil
}
