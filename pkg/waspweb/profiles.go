package waspweb

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
)

// AdminProfiles runs profile operations as the admin service account.
//
// When the service account cannot be logged in the operations return
// ErrAdminUnavailable instead of the forbidden failure raised by the
// session itself.
type AdminProfiles struct {
	session    *AdminSession
	repository ProfileRepository
	logger     *slog.Logger
}

// NewAdminProfiles creates an AdminProfiles.
func NewAdminProfiles(session *AdminSession, repository ProfileRepository) *AdminProfiles {
	return &AdminProfiles{
		session:    session,
		repository: repository,
		logger:     slog.Default(),
	}
}

// GetProfile returns the full profile of a user.
func (a *AdminProfiles) GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	ctx, err := a.adminContext(ctx)
	if err != nil {
		return nil, err
	}

	profile, err := a.repository.GetProfile(ctx, id)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return nil, ErrProfileNotFound
		}
		a.logger.Error("Failed to get profile", "profile_id", id, "err", err)
		return nil, Upstream(err.Error(), err)
	}
	return profile, nil
}

// UpdateProfileProtected writes the protected sub-record of profile.
func (a *AdminProfiles) UpdateProfileProtected(ctx context.Context, profile *Profile) error {
	ctx, err := a.adminContext(ctx)
	if err != nil {
		return err
	}

	if err := a.repository.UpdateProfileProtected(ctx, profile.ID, profile.Protected); err != nil {
		a.logger.Error("Failed to update protected profile", "profile_id", profile.ID, "err", err)
		return Forbidden(err)
	}
	return nil
}

// adminContext skips the login round trip while the cached session is
// logged in and its token is still valid.
func (a *AdminProfiles) adminContext(ctx context.Context) (context.Context, error) {
	if !a.session.LoggedIn() || a.session.Expiring() {
		if _, err := a.session.EnsureLoggedIn(ctx, false); err != nil {
			a.logger.Error("Admin login failed", "err", err)
		}
		if !a.session.LoggedIn() {
			return nil, ErrAdminUnavailable
		}
	}

	claims, err := a.session.Claims()
	if err != nil {
		a.logger.Error("Admin session has no usable token", "err", err)
		return nil, ErrAdminUnavailable
	}
	return WithClaims(ctx, claims), nil
}
