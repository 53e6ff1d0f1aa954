package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"creator-insurance/internal/models"
	"creator-insurance/internal/repository"

	"gorm.io/gorm"
)

// TransactionVerifier confirms that a transaction signature landed on chain.
type TransactionVerifier interface {
	VerifyTransaction(ctx context.Context, signature string) (bool, error)
}

type PassService struct {
	repo     *repository.Repository
	verifier TransactionVerifier
}

func NewPassService(repo *repository.Repository, verifier TransactionVerifier) *PassService {
	return &PassService{
		repo:     repo,
		verifier: verifier,
	}
}

// CreatePass creates the creator's pass. One pass per creator; the unique
// index on creator_id rejects a second one.
func (ps *PassService) CreatePass(
	ctx context.Context,
	creatorID uint,
	req *models.CreatePassRequest,
) (*models.Pass, error) {
	if req.Price.IsNegative() || req.Price.IsZero() {
		return nil, fmt.Errorf("%w: pass price must be positive", ErrValidation)
	}

	pass := &models.Pass{
		CreatorID:    creatorID,
		TokenMint:    req.TokenMint,
		VaultAddress: req.VaultAddress,
		Price:        req.Price,
	}

	if err := ps.repo.CreatePass(ctx, pass); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: creator already has a pass", ErrInvalidState)
		}
		return nil, fmt.Errorf("failed to create pass: %w", err)
	}

	log.Printf("Pass %d created by creator %d (vault %s)", pass.ID, creatorID, pass.VaultAddress)

	return pass, nil
}

// GetPass retrieves a pass by ID
func (ps *PassService) GetPass(ctx context.Context, passID uint) (*models.Pass, error) {
	pass, err := ps.repo.GetPassByID(ctx, passID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load pass: %w", err)
	}
	return pass, nil
}

// GetCreatorPass retrieves a creator's pass along with whether the caller
// already holds it
func (ps *PassService) GetCreatorPass(ctx context.Context, userID, creatorID uint) (*models.Pass, bool, error) {
	pass, err := ps.repo.GetPassByCreator(ctx, creatorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrNotFound
		}
		return nil, false, fmt.Errorf("failed to load pass: %w", err)
	}

	owned, err := ps.repo.HasOwnership(ctx, userID, creatorID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to check pass ownership: %w", err)
	}

	return pass, owned, nil
}

// ListHolders retrieves the holder roster for a creator's pass
func (ps *PassService) ListHolders(ctx context.Context, creatorID uint) ([]*models.Holder, error) {
	if _, err := ps.repo.GetPassByCreator(ctx, creatorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load pass: %w", err)
	}

	return ps.repo.GetHolders(ctx, creatorID)
}

// ListPasses retrieves all passes
func (ps *PassService) ListPasses(ctx context.Context, limit, offset int) ([]*models.Pass, int64, error) {
	return ps.repo.ListPasses(ctx, limit, offset)
}

// UpdatePass changes the pass price. Only the owning creator may change it.
func (ps *PassService) UpdatePass(
	ctx context.Context,
	creatorID uint,
	passID uint,
	req *models.UpdatePassRequest,
) (*models.Pass, error) {
	pass, err := ps.repo.GetPassByID(ctx, passID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load pass: %w", err)
	}

	if pass.CreatorID != creatorID {
		return nil, ErrForbidden
	}

	if req.Price.IsNegative() || req.Price.IsZero() {
		return nil, fmt.Errorf("%w: pass price must be positive", ErrValidation)
	}

	pass.Price = req.Price
	if err := ps.repo.UpdatePass(ctx, pass); err != nil {
		return nil, fmt.Errorf("failed to update pass: %w", err)
	}

	return pass, nil
}

// BuyPass records a verified pass purchase. The purchase transaction must be
// confirmed on chain before ownership is written; the composite unique index
// rejects buying the same pass twice.
func (ps *PassService) BuyPass(
	ctx context.Context,
	userID uint,
	req *models.BuyPassRequest,
) (*models.Ownership, error) {
	pass, err := ps.repo.GetPassByID(ctx, req.PassID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load pass: %w", err)
	}

	confirmed, err := ps.verifier.VerifyTransaction(ctx, req.Signature)
	if err != nil {
		return nil, fmt.Errorf("failed to verify purchase transaction: %w", err)
	}
	if !confirmed {
		return nil, fmt.Errorf("%w: purchase transaction not confirmed on blockchain", ErrInvalidState)
	}

	ownership := &models.Ownership{
		UserID:    userID,
		PassID:    pass.ID,
		CreatorID: pass.CreatorID,
	}

	if err := ps.repo.CreateOwnership(ctx, ownership); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyOwned
		}
		return nil, fmt.Errorf("failed to record ownership: %w", err)
	}

	log.Printf("User %d bought pass %d of creator %d (tx %s)", userID, pass.ID, pass.CreatorID, req.Signature)

	return ownership, nil
}
