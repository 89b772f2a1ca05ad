package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"docqa-backend/internal/model"
)

type OrganizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// CreateWithOwner inserts org and makes ownerID its admin member in one transaction.
// The owner must not already belong to an organization.
func (r *OrganizationRepository) CreateWithOwner(ctx context.Context, org *model.Organization, ownerID uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(org).Error; err != nil {
			return translate(err)
		}
		res := tx.Model(&model.User{}).
			Where("id = ? AND organization_id IS NULL", ownerID).
			Updates(map[string]interface{}{"organization_id": org.ID, "is_admin": true})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrOwnerTaken
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("create organization failed: %w", err)
	}
	return nil
}

func (r *OrganizationRepository) GetByName(ctx context.Context, name string) (*model.Organization, error) {
	return r.first(ctx, "organization_name = ?", name)
}

func (r *OrganizationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	return r.first(ctx, "id = ?", id)
}

// Delete detaches members, removes the organization's documents (chunks cascade)
// and then the organization row. Audit rows survive with a NULL organization.
func (r *OrganizationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.User{}).
			Where("organization_id = ?", id).
			Updates(map[string]interface{}{"organization_id": nil, "is_admin": false}).Error; err != nil {
			return err
		}
		if err := tx.Where("organization_id = ?", id).Delete(&model.Document{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.Organization{}).Error
	})
	if err != nil {
		return fmt.Errorf("delete organization failed: %w", err)
	}
	return nil
}

func (r *OrganizationRepository) first(ctx context.Context, query string, arg interface{}) (*model.Organization, error) {
	var org model.Organization
	if err := r.db.WithContext(ctx).Where(query, arg).First(&org).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query organization failed: %w", err)
	}
	return &org, nil
}
