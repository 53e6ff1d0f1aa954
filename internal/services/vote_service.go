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

type VoteService struct {
	repo *repository.Repository
}

func NewVoteService(repo *repository.Repository) *VoteService {
	return &VoteService{repo: repo}
}

// CastVote records a pass holder's vote on a claim. One vote per user per
// claim, immutable once cast. Eligibility requires holding the claiming
// creator's pass; the creator voting on their own claim is allowed only if
// they hold their own pass like any other holder.
func (vs *VoteService) CastVote(
	ctx context.Context,
	userID uint,
	claimID uuid.UUID,
	req *models.CastVoteRequest,
) (*models.Vote, error) {
	claim, err := vs.repo.GetClaimByID(ctx, claimID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load claim: %w", err)
	}

	if claim.Status != models.ClaimStatusPending {
		return nil, fmt.Errorf("%w: claim is %s", ErrInvalidState, claim.Status)
	}

	if time.Now().After(claim.ValidTill) {
		return nil, fmt.Errorf("%w: voting window has closed", ErrInvalidState)
	}

	holds, err := vs.repo.HasOwnership(ctx, userID, claim.CreatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to check pass ownership: %w", err)
	}
	if !holds {
		return nil, fmt.Errorf("%w: voter does not hold the creator's pass", ErrForbidden)
	}

	vote := &models.Vote{
		ID:        uuid.New(),
		ClaimID:   claimID,
		UserID:    userID,
		Approve:   *req.Approve,
		TxSig:     req.TxSig,
		BlockSlot: req.BlockSlot,
	}

	if err := vs.repo.CreateVote(ctx, vote); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyVoted
		}
		return nil, fmt.Errorf("failed to record vote: %w", err)
	}

	log.Printf("Vote recorded on claim %s: user %d voted approve=%v", claimID, userID, vote.Approve)

	return vote, nil
}

// GetTally returns the current vote counts on a claim plus the caller's own
// vote if they have cast one.
func (vs *VoteService) GetTally(ctx context.Context, userID uint, claimID uuid.UUID) (*models.Tally, error) {
	_, err := vs.repo.GetClaimByID(ctx, claimID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load claim: %w", err)
	}

	yes, no, err := vs.repo.CountVotes(ctx, claimID)
	if err != nil {
		return nil, fmt.Errorf("failed to count votes: %w", err)
	}

	tally := &models.Tally{
		YesVotes: yes,
		NoVotes:  no,
	}

	vote, err := vs.repo.GetVote(ctx, claimID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user vote: %w", err)
	}
	if vote != nil {
		tally.UserVote = &models.UserVote{Approve: vote.Approve}
	}

	return tally, nil
}
