package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"docqa-backend/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Replace stores doc, first removing any row with the same organization and file name.
// It reports whether a previous row existed.
func (r *DocumentRepository) Replace(ctx context.Context, doc *model.Document) (bool, error) {
	replaced := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(
			"document_id IN (SELECT id FROM documents WHERE organization_id = ? AND file_name = ?)",
			doc.OrganizationID, doc.FileName,
		).Delete(&model.DocumentChunk{}).Error; err != nil {
			return err
		}
		res := tx.Where("organization_id = ? AND file_name = ?", doc.OrganizationID, doc.FileName).
			Delete(&model.Document{})
		if res.Error != nil {
			return res.Error
		}
		replaced = res.RowsAffected > 0
		return translate(tx.Create(doc).Error)
	})
	if err != nil {
		return false, fmt.Errorf("replace document failed: %w", err)
	}
	return replaced, nil
}

// Create inserts doc without touching an existing row. A row with the same
// organization and file name yields ErrDuplicate.
func (r *DocumentRepository) Create(ctx context.Context, doc *model.Document) error {
	if err := translate(r.db.WithContext(ctx).Create(doc).Error); err != nil {
		return fmt.Errorf("create document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByFileName(ctx context.Context, orgID uuid.UUID, fileName string) (*model.Document, error) {
	return r.first(ctx, "organization_id = ? AND file_name = ?", orgID, fileName)
}

func (r *DocumentRepository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*model.Document, error) {
	return r.first(ctx, "organization_id = ? AND id = ?", orgID, id)
}

func (r *DocumentRepository) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]model.Document, error) {
	var list []model.Document
	if err := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("uploaded_at DESC").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	return list, nil
}

func (r *DocumentRepository) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", id).Delete(&model.DocumentChunk{}).Error; err != nil {
			return err
		}
		res := tx.Where("organization_id = ? AND id = ?", orgID, id).Delete(&model.Document{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrDocumentGone
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) first(ctx context.Context, query string, args ...interface{}) (*model.Document, error) {
	var doc model.Document
	if err := r.db.WithContext(ctx).Where(query, args...).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query document failed: %w", err)
	}
	return &doc, nil
}
