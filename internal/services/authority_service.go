// Package services – AuthorityService
//
// This file implements the AuthorityService, which manages the administrative
// actors eligible for complaint assignment. Authorities are referenced weakly
// by complaints: deactivating one never cascades into the complaints table,
// and stale assignments are rendered as unassigned by the view layer.
package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/campusvoice/go-complaint-backend/internal/domain"
	"github.com/campusvoice/go-complaint-backend/internal/repo"
)

// AuthorityService provides admin CRUD over authorities.
type AuthorityService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// AuthorityInput carries the fields of a new or updated authority.
type AuthorityInput struct {
	Name       string
	Department string
	Email      string
	Role       string
}

// Create registers a new, active authority. All fields are required; the
// email must be unique (enforced by the schema and surfaced as
// ErrDuplicateAuthorityEmail).
func (s *AuthorityService) Create(ctx context.Context, in AuthorityInput) (*domain.Authority, error) {
	if err := validateAuthority(in); err != nil {
		return nil, err
	}
	a, err := repo.CreateAuthority(ctx, s.DB, strings.TrimSpace(in.Name),
		strings.TrimSpace(in.Department), strings.TrimSpace(in.Email), strings.TrimSpace(in.Role))
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrDuplicateAuthorityEmail
		}
		return nil, storeErr(err)
	}
	return a, nil
}

// List returns all authorities, active and inactive, ordered by name.
func (s *AuthorityService) List(ctx context.Context) ([]domain.Authority, error) {
	list, err := repo.ListAuthorities(ctx, s.DB)
	return list, storeErr(err)
}

// Get fetches a single authority by id.
func (s *AuthorityService) Get(ctx context.Context, id string) (*domain.Authority, error) {
	a, err := repo.GetAuthority(ctx, s.DB, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrAuthorityNotFound
		}
		return nil, storeErr(err)
	}
	return a, nil
}

// ByID resolves a set of authority ids to their records in one query.
// Dangling ids (deleted authorities) are simply absent from the result, which
// is how weak references are allowed to behave.
func (s *AuthorityService) ByID(ctx context.Context, ids []string) (map[string]domain.Authority, error) {
	m, err := repo.GetAuthoritiesByID(ctx, s.DB, ids)
	return m, storeErr(err)
}

// AuthorityPatch is a partial update; nil pointers leave fields untouched.
type AuthorityPatch struct {
	Name       *string
	Department *string
	Email      *string
	Role       *string
	Active     *bool
}

// Update patches an authority against its latest stored revision. Setting
// Active=false deactivates without touching any complaint that references it.
func (s *AuthorityService) Update(ctx context.Context, id string, patch AuthorityPatch) (*domain.Authority, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, invalid("name", "must not be blank")
	}
	if patch.Email != nil && !strings.Contains(*patch.Email, "@") {
		return nil, invalid("email", "must be a valid email address")
	}

	a, err := repo.UpdateAuthority(ctx, s.DB, id, func(a *domain.Authority) error {
		if patch.Name != nil {
			a.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Department != nil {
			a.Department = strings.TrimSpace(*patch.Department)
		}
		if patch.Email != nil {
			a.Email = strings.TrimSpace(*patch.Email)
		}
		if patch.Role != nil {
			a.Role = strings.TrimSpace(*patch.Role)
		}
		if patch.Active != nil {
			a.Active = *patch.Active
		}
		return nil
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrAuthorityNotFound
		}
		if isDuplicate(err) {
			return nil, ErrDuplicateAuthorityEmail
		}
		return nil, storeErr(err)
	}
	return a, nil
}

// validateAuthority rejects blank required fields and obviously bad emails.
func validateAuthority(in AuthorityInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name", "must not be blank")
	}
	if strings.TrimSpace(in.Department) == "" {
		return invalid("department", "must not be blank")
	}
	email := strings.TrimSpace(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return invalid("email", "must be a valid email address")
	}
	if strings.TrimSpace(in.Role) == "" {
		return invalid("role", "must not be blank")
	}
	return nil
}
