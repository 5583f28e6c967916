// internal/repository/organization.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/parleyhq/parley/internal/domain"
	"github.com/parleyhq/parley/internal/model"
	"gorm.io/gorm"
)

type OrganizationRepositoryIface interface {
	Create(ctx context.Context, org *model.Organization) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Organization, error)
	Update(ctx context.Context, org *model.Organization) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddSeat(ctx context.Context, orgID uuid.UUID) error
	ReleaseSeat(ctx context.Context, orgID uuid.UUID) error
}

type OrganizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

func (r *OrganizationRepository) Create(ctx context.Context, org *model.Organization) error {
	if err := r.db.WithContext(ctx).Create(org).Error; err != nil {
		return fmt.Errorf("creating organization: %w", err)
	}
	return nil
}

func (r *OrganizationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	var org model.Organization
	if err := r.db.WithContext(ctx).First(&org, "org_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("finding organization: %w", err)
	}
	return &org, nil
}

func (r *OrganizationRepository) Update(ctx context.Context, org *model.Organization) error {
	if err := r.db.WithContext(ctx).Save(org).Error; err != nil {
		return fmt.Errorf("updating organization: %w", err)
	}
	return nil
}

func (r *OrganizationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&model.Organization{}, "org_id = ?", id).Error; err != nil {
		return fmt.Errorf("deleting organization: %w", err)
	}
	return nil
}

// AddSeat claims one seat with a single conditional UPDATE so that two
// concurrent claims against a nearly full organization cannot both pass a
// separate capacity read. Returns domain.ErrSeatLimitReached when the
// organization is at capacity and domain.ErrOrganizationNotFound when no
// row matches.
func (r *OrganizationRepository) AddSeat(ctx context.Context, orgID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&model.Organization{}).
		Where("org_id = ? AND number_of_users < max_users", orgID).
		UpdateColumn("number_of_users", gorm.Expr("number_of_users + 1"))
	if result.Error != nil {
		return fmt.Errorf("claiming seat: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&model.Organization{}).
			Where("org_id = ?", orgID).Count(&count).Error; err != nil {
			return fmt.Errorf("checking organization: %w", err)
		}
		if count == 0 {
			return domain.ErrOrganizationNotFound
		}
		return domain.ErrSeatLimitReached
	}
	return nil
}

// ReleaseSeat gives one seat back, never dropping the counter below zero.
// A missing row is reported as not-found so the caller can decide whether
// the drift matters.
func (r *OrganizationRepository) ReleaseSeat(ctx context.Context, orgID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&model.Organization{}).
		Where("org_id = ? AND number_of_users > 0", orgID).
		UpdateColumn("number_of_users", gorm.Expr("number_of_users - 1"))
	if result.Error != nil {
		return fmt.Errorf("releasing seat: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrOrganizationNotFound
	}
	return nil
}
