package authcore

import (
	"context"
	"errors"
	"net/mail"
)

// GetAccount fetches an account by ID with credential material stripped.
func (s *Service) GetAccount(ctx context.Context, id string) (*Account, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	acct, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return sanitize(acct), nil
}

// GetAccountByUsername fetches an account by username, case-insensitively.
func (s *Service) GetAccountByUsername(ctx context.Context, username string) (*Account, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	acct, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return sanitize(acct), nil
}

// resolveUsername maps a username to its account ID. The username index is
// immutable, so resolving first and operating by ID afterwards cannot race
// against a rename.
func (s *Service) resolveUsername(ctx context.Context, username string) (string, error) {
	acct, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		return "", translateStoreErr(err)
	}
	return acct.ID, nil
}

// UpdateProfile applies the update to the named account. An email change
// claims the new address atomically and fails with ErrEmailTaken when
// another account holds it.
func (s *Service) UpdateProfile(ctx context.Context, username string, update ProfileUpdate) (*Account, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if update.Email != nil {
		if _, err := mail.ParseAddress(*update.Email); err != nil {
			return nil, ErrRegistrationInvalid
		}
	}

	id, err := s.resolveUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	acct, err := s.accounts.UpdateProfile(ctx, id, update)
	if err != nil {
		return nil, translateStoreErr(err)
	}

	s.metrics.Inc(MetricProfileUpdated)
	s.emitAudit(ctx, EventProfileUpdated, acct.Username, true, "")

	return sanitize(acct), nil
}

// SetRole changes the named account's role.
func (s *Service) SetRole(ctx context.Context, username string, role Role) (*Account, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if !ValidRole(role) {
		return nil, ErrRoleInvalid
	}

	id, err := s.resolveUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	acct, err := s.accounts.SetRole(ctx, id, role)
	if err != nil {
		return nil, translateStoreErr(err)
	}

	s.metrics.Inc(MetricRoleChanged)
	s.emitAudit(ctx, EventRoleChanged, acct.Username, true, "role set to "+role)

	return sanitize(acct), nil
}

// SetActive toggles the named account's active flag. Deactivated accounts
// fail login with ErrAccountInactive even on a correct password.
func (s *Service) SetActive(ctx context.Context, username string, active bool) (*Account, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	id, err := s.resolveUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	acct, err := s.accounts.SetActive(ctx, id, active)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return sanitize(acct), nil
}

// DeleteAccount removes the named account, its lookup indexes and any
// pending reset tokens. The caller must re-present the account's password;
// a mismatch fails with ErrInvalidCredentials and leaves the account in
// place. Audit events recorded for the username survive the deletion.
func (s *Service) DeleteAccount(ctx context.Context, username, pwd string) error {
	if err := s.ready(); err != nil {
		return err
	}

	acct, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		return translateStoreErr(err)
	}

	ok, err := s.hasher.Verify(pwd, acct.PasswordHash)
	if err != nil {
		return err
	}
	if !ok {
		s.emitAudit(ctx, EventAccountDeletionFailed, acct.Username, false, "password mismatch")
		return ErrInvalidCredentials
	}

	deleted, err := s.accounts.Delete(ctx, acct.ID)
	if err != nil {
		translated := translateStoreErr(err)
		if !errors.Is(translated, ErrAccountNotFound) {
			s.emitAudit(ctx, EventAccountDeletionFailed, acct.Username, false, translated.Error())
		}
		return translated
	}

	s.metrics.Inc(MetricAccountDeleted)
	s.emitAudit(ctx, EventAccountDeleted, deleted.Username, true, "")

	return nil
}
