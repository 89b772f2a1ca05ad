package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"docqa-backend/internal/model"
)

type AuditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Create(ctx context.Context, entry *model.AuditLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("create audit log failed: %w", err)
	}
	return nil
}

func (r *AuditLogRepository) ListByOrganization(ctx context.Context, orgID uuid.UUID, limit int) ([]model.AuditLog, error) {
	var list []model.AuditLog
	if err := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("requested_at DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list audit logs failed: %w", err)
	}
	return list, nil
}
