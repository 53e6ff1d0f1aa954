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
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// VaultGateway moves funds out of a creator's on-chain vault. The production
// implementation talks to the insurance program over RPC; tests substitute a
// fake so settlement logic can be exercised without a validator.
type VaultGateway interface {
	// GetVaultBalance returns the vault's current balance in SOL.
	GetVaultBalance(ctx context.Context, vaultAddress string) (decimal.Decimal, error)
	// PayoutToCreator sends the full vault balance to the creator and returns
	// the transaction signature.
	PayoutToCreator(ctx context.Context, claim *models.Claim, creatorWallet string, amount decimal.Decimal) (string, error)
	// RefundToHolders splits the vault balance across the holders and returns
	// the transaction signature.
	RefundToHolders(ctx context.Context, claim *models.Claim, transfers []models.Transfer) (string, error)
}

type SettlementService struct {
	repo   *repository.Repository
	vault  VaultGateway
	quorum int64
}

func NewSettlementService(repo *repository.Repository, vault VaultGateway, quorum int64) *SettlementService {
	return &SettlementService{
		repo:   repo,
		vault:  vault,
		quorum: quorum,
	}
}

// Finalize closes voting on a pending claim and fixes its outcome from the
// tally. Only the filing creator may finalize, and only once: the status flip
// is a conditional update, so of two concurrent calls exactly one wins and the
// other gets ErrAlreadyFinalized.
func (ss *SettlementService) Finalize(
	ctx context.Context,
	callerID uint,
	claimID uuid.UUID,
) (*models.FinalizeResult, error) {
	claim, err := ss.repo.GetClaimByID(ctx, claimID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load claim: %w", err)
	}

	if claim.CreatorID != callerID {
		return nil, ErrForbidden
	}

	if claim.Status != models.ClaimStatusPending {
		return nil, ErrAlreadyFinalized
	}

	yes, no, err := ss.repo.CountVotes(ctx, claimID)
	if err != nil {
		return nil, fmt.Errorf("failed to count votes: %w", err)
	}

	outcome := ComputeOutcome(yes, no, ss.quorum)

	now := time.Now()
	ok, err := ss.repo.UpdateClaimStatus(ctx, claimID, models.ClaimStatusPending, outcome,
		map[string]interface{}{"finalized_at": now})
	if err != nil {
		return nil, fmt.Errorf("failed to finalize claim: %w", err)
	}
	if !ok {
		return nil, ErrAlreadyFinalized
	}

	log.Printf("Claim %s finalized as %s (%d yes / %d no)", claimID, outcome, yes, no)

	return &models.FinalizeResult{
		Status:   outcome,
		YesVotes: yes,
		NoVotes:  no,
	}, nil
}

// Payout sends the full vault balance to the creator of an approved claim and
// marks the claim PAID. The on-chain transfer runs first; a failed transfer
// leaves the claim APPROVED so payout can be retried. A recorded transaction
// signature makes repeat calls an idempotent no-op.
func (ss *SettlementService) Payout(
	ctx context.Context,
	callerID uint,
	claimID uuid.UUID,
) (*models.DistributionResult, error) {
	claim, err := ss.repo.GetClaimByID(ctx, claimID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load claim: %w", err)
	}

	if claim.CreatorID != callerID {
		return nil, ErrForbidden
	}

	done, err := ss.alreadyDistributed(ctx, claim)
	if err != nil {
		return nil, err
	}
	if done {
		return ss.recordedResult(ctx, claim)
	}

	if claim.Status != models.ClaimStatusApproved {
		return nil, fmt.Errorf("%w: payout requires an approved claim, got %s", ErrInvalidState, claim.Status)
	}

	pass, err := ss.repo.GetPassByCreator(ctx, claim.CreatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load creator pass: %w", err)
	}

	creator, err := ss.repo.GetUserByID(ctx, claim.CreatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load creator: %w", err)
	}

	balance, err := ss.vault.GetVaultBalance(ctx, pass.VaultAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to read vault balance: %w", err)
	}

	if balance.IsZero() {
		// Nothing to move; close the claim out with a zero distribution
		if _, err := ss.repo.UpdateClaimStatus(ctx, claimID, models.ClaimStatusApproved, models.ClaimStatusPaid,
			map[string]interface{}{"distributed_amount": decimal.Zero}); err != nil {
			return nil, fmt.Errorf("failed to mark claim paid: %w", err)
		}
		return &models.DistributionResult{
			Success:           true,
			Kind:              models.DistributionKindPayout,
			DistributedAmount: decimal.Zero,
			Recipients:        []models.RecipientShare{},
		}, nil
	}

	sig, err := ss.vault.PayoutToCreator(ctx, claim, creator.WalletAddress, balance)
	if err != nil {
		return nil, fmt.Errorf("vault payout failed: %w", err)
	}

	creatorID := claim.CreatorID
	recipients := []models.RecipientShare{{
		UserID:        &creatorID,
		WalletAddress: creator.WalletAddress,
		Amount:        balance,
	}}

	if err := ss.recordDistribution(ctx, claim, models.DistributionKindPayout, balance, sig, recipients); err != nil {
		// The transfer went through; surface the bookkeeping failure loudly
		log.Printf("Error recording payout for claim %s (tx %s): %v", claimID, sig, err)
		return nil, fmt.Errorf("payout sent but not recorded: %w", err)
	}

	ok, err := ss.repo.UpdateClaimStatus(ctx, claimID, models.ClaimStatusApproved, models.ClaimStatusPaid,
		map[string]interface{}{
			"transaction_signature": sig,
			"distributed_amount":    balance,
		})
	if err != nil {
		return nil, fmt.Errorf("failed to mark claim paid: %w", err)
	}
	if !ok {
		log.Printf("Warning: claim %s left APPROVED state during payout", claimID)
	}

	log.Printf("Claim %s paid out: %s SOL to creator %d (tx %s)", claimID, balance, claim.CreatorID, sig)

	return &models.DistributionResult{
		Success:           true,
		Kind:              models.DistributionKindPayout,
		DistributedAmount: balance,
		RecipientCount:    1,
		TxSignature:       sig,
		Recipients:        recipients,
	}, nil
}

// Refund splits the vault balance equally across the creator's pass holders
// after a claim was rejected. Either the creator or any holder may trigger it.
// The claim stays REJECTED; the recorded signature makes repeat calls an
// idempotent no-op.
func (ss *SettlementService) Refund(
	ctx context.Context,
	callerID uint,
	claimID uuid.UUID,
) (*models.DistributionResult, error) {
	claim, err := ss.repo.GetClaimByID(ctx, claimID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load claim: %w", err)
	}

	if claim.CreatorID != callerID {
		holds, err := ss.repo.HasOwnership(ctx, callerID, claim.CreatorID)
		if err != nil {
			return nil, fmt.Errorf("failed to check pass ownership: %w", err)
		}
		if !holds {
			return nil, ErrForbidden
		}
	}

	done, err := ss.alreadyDistributed(ctx, claim)
	if err != nil {
		return nil, err
	}
	if done {
		return ss.recordedResult(ctx, claim)
	}

	if claim.Status != models.ClaimStatusRejected {
		return nil, fmt.Errorf("%w: refund requires a rejected claim, got %s", ErrInvalidState, claim.Status)
	}

	pass, err := ss.repo.GetPassByCreator(ctx, claim.CreatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load creator pass: %w", err)
	}

	holders, err := ss.repo.GetHolders(ctx, claim.CreatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load holders: %w", err)
	}

	if len(holders) == 0 {
		return &models.DistributionResult{
			Success:           true,
			Kind:              models.DistributionKindRefund,
			DistributedAmount: decimal.Zero,
			Recipients:        []models.RecipientShare{},
		}, nil
	}

	balance, err := ss.vault.GetVaultBalance(ctx, pass.VaultAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to read vault balance: %w", err)
	}

	if balance.IsZero() {
		return &models.DistributionResult{
			Success:           true,
			Kind:              models.DistributionKindRefund,
			DistributedAmount: decimal.Zero,
			Recipients:        []models.RecipientShare{},
		}, nil
	}

	recipients := splitEqually(balance, holders)

	transfers := make([]models.Transfer, 0, len(recipients))
	for _, rcpt := range recipients {
		transfers = append(transfers, models.Transfer{
			WalletAddress: rcpt.WalletAddress,
			Amount:        rcpt.Amount,
		})
	}

	sig, err := ss.vault.RefundToHolders(ctx, claim, transfers)
	if err != nil {
		return nil, fmt.Errorf("vault refund failed: %w", err)
	}

	if err := ss.recordDistribution(ctx, claim, models.DistributionKindRefund, balance, sig, recipients); err != nil {
		log.Printf("Error recording refund for claim %s (tx %s): %v", claimID, sig, err)
		return nil, fmt.Errorf("refund sent but not recorded: %w", err)
	}

	ok, err := ss.repo.SetClaimSettlement(ctx, claimID, sig,
		map[string]interface{}{"distributed_amount": balance})
	if err != nil {
		return nil, fmt.Errorf("failed to record refund on claim: %w", err)
	}
	if !ok {
		log.Printf("Warning: claim %s already had a settlement signature during refund", claimID)
	}

	log.Printf("Claim %s refunded: %s SOL across %d holders (tx %s)", claimID, balance, len(holders), sig)

	return &models.DistributionResult{
		Success:           true,
		Kind:              models.DistributionKindRefund,
		DistributedAmount: balance,
		RecipientCount:    len(recipients),
		TxSignature:       sig,
		Recipients:        recipients,
	}, nil
}

// splitEqually divides the balance into equal shares, giving any rounding
// remainder to the last holder so the shares always sum to the balance.
func splitEqually(balance decimal.Decimal, holders []*models.Holder) []models.RecipientShare {
	n := int64(len(holders))
	share := balance.DivRound(decimal.NewFromInt(n), 9)

	recipients := make([]models.RecipientShare, 0, len(holders))
	distributed := decimal.Zero
	for i, h := range holders {
		amount := share
		if int64(i) == n-1 {
			amount = balance.Sub(distributed)
		}
		distributed = distributed.Add(amount)

		userID := h.UserID
		recipients = append(recipients, models.RecipientShare{
			UserID:        &userID,
			WalletAddress: h.WalletAddress,
			Amount:        amount,
		})
	}

	return recipients
}

// alreadyDistributed reports whether funds already left the vault for this
// claim. The distribution row is written before the claim gets its signature,
// so checking both closes the window where a transfer ran but the claim update
// did not land.
func (ss *SettlementService) alreadyDistributed(ctx context.Context, claim *models.Claim) (bool, error) {
	if claim.TransactionSignature != nil {
		return true, nil
	}
	dist, err := ss.repo.GetDistributionByClaim(ctx, claim.ID)
	if err != nil {
		return false, fmt.Errorf("failed to load distribution: %w", err)
	}
	return dist != nil, nil
}

// recordDistribution persists a distribution with its recipient legs
func (ss *SettlementService) recordDistribution(
	ctx context.Context,
	claim *models.Claim,
	kind models.DistributionKind,
	total decimal.Decimal,
	sig string,
	recipients []models.RecipientShare,
) error {
	dist := &models.Distribution{
		ID:             uuid.New(),
		ClaimID:        claim.ID,
		Kind:           kind,
		TotalAmount:    total,
		RecipientCount: len(recipients),
		TxSignature:    sig,
	}
	for _, rcpt := range recipients {
		dist.Recipients = append(dist.Recipients, models.DistributionRecipient{
			ID:             uuid.New(),
			DistributionID: dist.ID,
			UserID:         rcpt.UserID,
			WalletAddress:  rcpt.WalletAddress,
			Amount:         rcpt.Amount,
		})
	}
	return ss.repo.CreateDistribution(ctx, dist)
}

// recordedResult rebuilds the result of a settlement that already ran
func (ss *SettlementService) recordedResult(ctx context.Context, claim *models.Claim) (*models.DistributionResult, error) {
	dist, err := ss.repo.GetDistributionByClaim(ctx, claim.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load distribution: %w", err)
	}
	if dist == nil {
		// Signature on the claim but no distribution row; report what we know
		amount := decimal.Zero
		if claim.DistributedAmount != nil {
			amount = *claim.DistributedAmount
		}
		return &models.DistributionResult{
			Success:           true,
			DistributedAmount: amount,
			TxSignature:       *claim.TransactionSignature,
			Recipients:        []models.RecipientShare{},
		}, nil
	}

	recipients := make([]models.RecipientShare, 0, len(dist.Recipients))
	for _, rcpt := range dist.Recipients {
		recipients = append(recipients, models.RecipientShare{
			UserID:        rcpt.UserID,
			WalletAddress: rcpt.WalletAddress,
			Amount:        rcpt.Amount,
		})
	}

	return &models.DistributionResult{
		Success:           true,
		Kind:              dist.Kind,
		DistributedAmount: dist.TotalAmount,
		RecipientCount:    dist.RecipientCount,
		TxSignature:       dist.TxSignature,
		Recipients:        recipients,
	}, nil
}
