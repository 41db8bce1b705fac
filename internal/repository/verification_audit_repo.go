package repository

import (
	"context"

	"storefront/internal/models"

	"gorm.io/gorm"
)

type VerificationAuditRepository struct {
	db *gorm.DB
}

func NewVerificationAuditRepository(db *gorm.DB) *VerificationAuditRepository {
	return &VerificationAuditRepository{db: db}
}

func (r *VerificationAuditRepository) Create(ctx context.Context, a *models.VerificationAudit) error {
	return r.db.WithContext(ctx).Create(a).Error
}
