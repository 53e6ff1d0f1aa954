package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"creator-insurance/internal/models"
	"creator-insurance/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClaimService struct {
	repo          *repository.Repository
	claimValidity time.Duration
}

func NewClaimService(repo *repository.Repository, claimValidity time.Duration) *ClaimService {
	return &ClaimService{
		repo:          repo,
		claimValidity: claimValidity,
	}
}

// CreateClaim files a new claim for the creator's vault. Only creators who
// have a pass (and therefore a vault) can file.
func (cs *ClaimService) CreateClaim(
	ctx context.Context,
	creatorID uint,
	req *models.CreateClaimRequest,
) (*models.Claim, error) {
	if req.Amount.IsNegative() || req.Amount.IsZero() {
		return nil, fmt.Errorf("%w: claim amount must be positive", ErrValidation)
	}

	if _, err := cs.repo.GetPassByCreator(ctx, creatorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: creator has no pass", ErrForbidden)
		}
		return nil, fmt.Errorf("failed to load creator pass: %w", err)
	}

	validTill := time.Now().Add(cs.claimValidity)
	if req.ValidTill != nil {
		if req.ValidTill.Before(time.Now()) {
			return nil, fmt.Errorf("%w: voting deadline must be in the future", ErrValidation)
		}
		validTill = *req.ValidTill
	}

	claim := &models.Claim{
		ID:                  uuid.New(),
		CreatorID:           creatorID,
		Reason:              req.Reason,
		Amount:              req.Amount,
		Status:              models.ClaimStatusPending,
		ValidTill:           validTill,
		OnchainClaimAddress: req.OnchainClaimAddress,
		CreatorPoolAddress:  req.CreatorPoolAddress,
		EvidenceHash:        req.EvidenceHash,
	}

	for _, m := range req.Media {
		claim.Media = append(claim.Media, models.ClaimMedia{
			ID:        uuid.New(),
			ClaimID:   claim.ID,
			Type:      m.Type,
			URL:       m.URL,
			Thumbnail: m.Thumbnail,
		})
	}

	if err := cs.repo.CreateClaim(ctx, claim); err != nil {
		return nil, fmt.Errorf("failed to create claim: %w", err)
	}

	log.Printf("Claim %s filed by creator %d for %s, voting until %s",
		claim.ID, creatorID, claim.Amount, claim.ValidTill.Format(time.RFC3339))

	return claim, nil
}

// GetClaim retrieves a claim visible to the caller. A claim is visible to the
// creator who filed it and to holders of that creator's pass.
func (cs *ClaimService) GetClaim(ctx context.Context, userID uint, claimID uuid.UUID) (*models.Claim, error) {
	claim, err := cs.repo.GetClaimByID(ctx, claimID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load claim: %w", err)
	}

	visible, err := cs.canSee(ctx, userID, claim.CreatorID)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, ErrForbidden
	}

	return claim, nil
}

// ListClaims retrieves the claims the caller can see: their own plus those of
// every creator whose pass they hold.
func (cs *ClaimService) ListClaims(
	ctx context.Context,
	userID uint,
	limit int,
	offset int,
) ([]*models.Claim, int64, error) {
	creatorIDs, err := cs.repo.GetOwnedCreatorIDs(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load held passes: %w", err)
	}

	// The caller's own claims are always visible
	seen := false
	for _, id := range creatorIDs {
		if id == userID {
			seen = true
			break
		}
	}
	if !seen {
		creatorIDs = append(creatorIDs, userID)
	}

	return cs.repo.GetClaimsByCreators(ctx, creatorIDs, limit, offset)
}

// UpdateClaim edits a pending claim. Only the filing creator may edit, and
// only while voting is open; providing media replaces the attachment set.
func (cs *ClaimService) UpdateClaim(
	ctx context.Context,
	userID uint,
	claimID uuid.UUID,
	req *models.UpdateClaimRequest,
) (*models.Claim, error) {
	claim, err := cs.repo.GetClaimByID(ctx, claimID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load claim: %w", err)
	}

	if claim.CreatorID != userID {
		return nil, ErrForbidden
	}

	if claim.Status != models.ClaimStatusPending {
		return nil, fmt.Errorf("%w: claim is %s", ErrInvalidState, claim.Status)
	}

	if req.Reason != nil {
		claim.Reason = *req.Reason
	}
	if req.Amount != nil {
		if req.Amount.IsNegative() || req.Amount.IsZero() {
			return nil, fmt.Errorf("%w: claim amount must be positive", ErrValidation)
		}
		claim.Amount = *req.Amount
	}

	var media []models.ClaimMedia
	if req.Media != nil {
		media = make([]models.ClaimMedia, 0, len(req.Media))
		for _, m := range req.Media {
			media = append(media, models.ClaimMedia{
				ID:        uuid.New(),
				ClaimID:   claim.ID,
				Type:      m.Type,
				URL:       m.URL,
				Thumbnail: m.Thumbnail,
			})
		}
	}

	if err := cs.repo.UpdateClaimInTx(ctx, claim, media); err != nil {
		return nil, fmt.Errorf("failed to update claim: %w", err)
	}

	return cs.repo.GetClaimByID(ctx, claimID)
}

// canSee reports whether a user can see a creator's claims
func (cs *ClaimService) canSee(ctx context.Context, userID, creatorID uint) (bool, error) {
	if userID == creatorID {
		return true, nil
	}
	has, err := cs.repo.HasOwnership(ctx, userID, creatorID)
	if err != nil {
		return false, fmt.Errorf("failed to check pass ownership: %w", err)
	}
	return has, nil
}
