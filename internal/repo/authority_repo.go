// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Authority
// model.
//
// Authorities are referenced weakly by complaints (assigned_authority_id):
// nothing here cascades into the complaints table, and deactivating an
// authority leaves existing assignments untouched.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campusvoice/go-complaint-backend/internal/domain"
)

// CreateAuthority inserts a new authority row. The email uniqueness is
// enforced by the database schema; a duplicate surfaces as a raw DB error
// for the service layer to translate.
func CreateAuthority(ctx context.Context, db *gorm.DB, name, department, email, role string) (*domain.Authority, error) {
	a := &domain.Authority{
		ID:         uuid.NewString(),
		Name:       name,
		Department: department,
		Email:      email,
		Role:       role,
		Active:     true,
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

// ListAuthorities returns all authorities ordered by name ascending.
func ListAuthorities(ctx context.Context, db *gorm.DB) ([]domain.Authority, error) {
	var out []domain.Authority
	err := db.WithContext(ctx).Order("name asc").Find(&out).Error
	return out, err
}

// GetAuthority fetches a single authority by ID. A missing row surfaces as
// gorm.ErrRecordNotFound for the service layer to translate.
func GetAuthority(ctx context.Context, db *gorm.DB, id string) (*domain.Authority, error) {
	var a domain.Authority
	if err := db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// GetAuthoritiesByID returns the authorities for the given ids keyed by id.
// Missing ids are simply absent from the map (weak references may dangle).
func GetAuthoritiesByID(ctx context.Context, db *gorm.DB, ids []string) (map[string]domain.Authority, error) {
	if len(ids) == 0 {
		return map[string]domain.Authority{}, nil
	}
	var rows []domain.Authority
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]domain.Authority, len(rows))
	for _, a := range rows {
		out[a.ID] = a
	}
	return out, nil
}

// UpdateAuthority applies mutate to the latest stored revision of the
// authority inside a transaction. Returns ErrNotFound when the id is unknown.
func UpdateAuthority(ctx context.Context, db *gorm.DB, id string, mutate func(*domain.Authority) error) (*domain.Authority, error) {
	var out *domain.Authority
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a domain.Authority
		if err := tx.Where("id = ?", id).First(&a).Error; err != nil {
			return err
		}
		if err := mutate(&a); err != nil {
			return err
		}
		a.UpdatedAt = time.Now().UTC()
		if err := tx.Save(&a).Error; err != nil {
			return err
		}
		out = &a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
