package repository

import (
	"context"
	"time"

	"creator-insurance/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateClaim creates a claim together with its media attachments
func (r *Repository) CreateClaim(ctx context.Context, claim *models.Claim) error {
	return r.db.WithContext(ctx).Create(claim).Error
}

// GetClaimByID retrieves a claim with its media
func (r *Repository) GetClaimByID(ctx context.Context, claimID uuid.UUID) (*models.Claim, error) {
	var claim models.Claim
	err := r.db.WithContext(ctx).
		Preload("Media").
		Where("id = ?", claimID).
		First(&claim).Error
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

// GetClaimsByCreators retrieves claims filed by any of the given creators
func (r *Repository) GetClaimsByCreators(
	ctx context.Context,
	creatorIDs []uint,
	limit int,
	offset int,
) ([]*models.Claim, int64, error) {
	if len(creatorIDs) == 0 {
		return []*models.Claim{}, 0, nil
	}

	var total int64
	err := r.db.WithContext(ctx).Model(&models.Claim{}).
		Where("creator_id IN ?", creatorIDs).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var claims []*models.Claim
	err = r.db.WithContext(ctx).
		Preload("Media").
		Where("creator_id IN ?", creatorIDs).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&claims).Error
	if err != nil {
		return nil, 0, err
	}

	return claims, total, nil
}

// UpdateClaimInTx rewrites a claim's editable fields and replaces its media
// inside a single transaction
func (r *Repository) UpdateClaimInTx(
	ctx context.Context,
	claim *models.Claim,
	media []models.ClaimMedia,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Claim{}).
			Where("id = ?", claim.ID).
			Updates(map[string]interface{}{
				"reason": claim.Reason,
				"amount": claim.Amount,
			}).Error; err != nil {
			return err
		}

		if media == nil {
			return nil
		}

		// Replace the attachment set wholesale
		if err := tx.Where("claim_id = ?", claim.ID).
			Delete(&models.ClaimMedia{}).Error; err != nil {
			return err
		}

		if len(media) == 0 {
			return nil
		}

		return tx.Create(&media).Error
	})
}

// UpdateClaimStatus transitions a claim from one status to another. The WHERE
// clause carries the expected current status, so a lost race shows up as zero
// rows affected rather than a silently overwritten transition.
func (r *Repository) UpdateClaimStatus(
	ctx context.Context,
	claimID uuid.UUID,
	from models.ClaimStatus,
	to models.ClaimStatus,
	updates map[string]interface{},
) (bool, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = to

	result := r.db.WithContext(ctx).Model(&models.Claim{}).
		Where("id = ? AND status = ?", claimID, from).
		Updates(updates)

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// SetClaimSettlement records the distribution signature and amount on a claim
// without touching its status. The WHERE clause only matches claims with no
// signature yet, so a concurrent settlement records exactly once.
func (r *Repository) SetClaimSettlement(
	ctx context.Context,
	claimID uuid.UUID,
	txSignature string,
	updates map[string]interface{},
) (bool, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["transaction_signature"] = txSignature

	result := r.db.WithContext(ctx).Model(&models.Claim{}).
		Where("id = ? AND transaction_signature IS NULL", claimID).
		Updates(updates)

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// GetExpiredPendingClaims retrieves pending claims whose voting deadline has passed
func (r *Repository) GetExpiredPendingClaims(ctx context.Context, limit int) ([]*models.Claim, error) {
	var claims []*models.Claim
	err := r.db.WithContext(ctx).
		Where("status = ? AND valid_till < ?", models.ClaimStatusPending, time.Now()).
		Order("valid_till ASC").
		Limit(limit).
		Find(&claims).Error
	if err != nil {
		return nil, err
	}
	return claims, nil
}
