package repository

import (
	"context"

	"creator-insurance/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateDistribution records an executed distribution with its recipient legs
func (r *Repository) CreateDistribution(ctx context.Context, dist *models.Distribution) error {
	return r.db.WithContext(ctx).Create(dist).Error
}

// GetDistributionByClaim retrieves the distribution for a claim, nil if none exists
func (r *Repository) GetDistributionByClaim(ctx context.Context, claimID uuid.UUID) (*models.Distribution, error) {
	var dist models.Distribution
	err := r.db.WithContext(ctx).
		Preload("Recipients").
		Where("claim_id = ?", claimID).
		First(&dist).Error

	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &dist, nil
}
