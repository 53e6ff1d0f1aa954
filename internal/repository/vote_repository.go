package repository

import (
	"context"

	"creator-insurance/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateVote records a vote. The unique index on (claim_id, user_id) makes a
// second vote by the same user surface as gorm.ErrDuplicatedKey.
func (r *Repository) CreateVote(ctx context.Context, vote *models.Vote) error {
	return r.db.WithContext(ctx).Create(vote).Error
}

// GetVote retrieves a user's vote on a claim, nil if they haven't voted
func (r *Repository) GetVote(ctx context.Context, claimID uuid.UUID, userID uint) (*models.Vote, error) {
	var vote models.Vote
	err := r.db.WithContext(ctx).
		Where("claim_id = ? AND user_id = ?", claimID, userID).
		First(&vote).Error

	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &vote, nil
}

// CountVotes tallies the yes and no votes on a claim
func (r *Repository) CountVotes(ctx context.Context, claimID uuid.UUID) (yes int64, no int64, err error) {
	err = r.db.WithContext(ctx).Model(&models.Vote{}).
		Where("claim_id = ? AND approve = ?", claimID, true).
		Count(&yes).Error
	if err != nil {
		return 0, 0, err
	}

	err = r.db.WithContext(ctx).Model(&models.Vote{}).
		Where("claim_id = ? AND approve = ?", claimID, false).
		Count(&no).Error
	if err != nil {
		return 0, 0, err
	}

	return yes, no, nil
}

// GetVotesByClaim retrieves all votes cast on a claim
func (r *Repository) GetVotesByClaim(ctx context.Context, claimID uuid.UUID) ([]*models.Vote, error) {
	var votes []*models.Vote
	err := r.db.WithContext(ctx).
		Where("claim_id = ?", claimID).
		Order("created_at ASC").
		Find(&votes).Error
	if err != nil {
		return nil, err
	}
	return votes, nil
}
