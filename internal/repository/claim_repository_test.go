package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"creator-insurance/internal/models"
)

func setupRepo(t *testing.T) *Repository {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Discard,
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Pass{},
		&models.Ownership{},
		&models.Claim{},
		&models.ClaimMedia{},
		&models.Vote{},
		&models.Distribution{},
		&models.DistributionRecipient{},
	)
	if err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	return NewRepository(db)
}

func createClaim(t *testing.T, r *Repository, status models.ClaimStatus, validTill time.Time) *models.Claim {
	claim := &models.Claim{
		ID:        uuid.New(),
		CreatorID: 1,
		Reason:    "test claim reason",
		Amount:    decimal.NewFromInt(1),
		Status:    status,
		ValidTill: validTill,
	}
	if err := r.CreateClaim(context.Background(), claim); err != nil {
		t.Fatalf("failed to create claim: %v", err)
	}
	return claim
}

func TestUpdateClaimStatusConditional(t *testing.T) {
	r := setupRepo(t)
	ctx := context.Background()
	claim := createClaim(t, r, models.ClaimStatusPending, time.Now().Add(time.Hour))

	ok, err := r.UpdateClaimStatus(ctx, claim.ID, models.ClaimStatusPending, models.ClaimStatusApproved, nil)
	if err != nil {
		t.Fatalf("UpdateClaimStatus failed: %v", err)
	}
	if !ok {
		t.Fatal("expected first transition to succeed")
	}

	// The claim left PENDING; replaying the same transition matches zero rows
	ok, err = r.UpdateClaimStatus(ctx, claim.ID, models.ClaimStatusPending, models.ClaimStatusRejected, nil)
	if err != nil {
		t.Fatalf("UpdateClaimStatus failed: %v", err)
	}
	if ok {
		t.Error("expected replayed transition to match no rows")
	}

	stored, err := r.GetClaimByID(ctx, claim.ID)
	if err != nil {
		t.Fatalf("GetClaimByID failed: %v", err)
	}
	if stored.Status != models.ClaimStatusApproved {
		t.Errorf("status = %s, want APPROVED (first transition wins)", stored.Status)
	}
}

func TestUpdateClaimStatusCarriesExtraColumns(t *testing.T) {
	r := setupRepo(t)
	ctx := context.Background()
	claim := createClaim(t, r, models.ClaimStatusApproved, time.Now().Add(time.Hour))

	ok, err := r.UpdateClaimStatus(ctx, claim.ID, models.ClaimStatusApproved, models.ClaimStatusPaid,
		map[string]interface{}{
			"transaction_signature": "sig-abc",
			"distributed_amount":    decimal.NewFromInt(7),
		})
	if err != nil || !ok {
		t.Fatalf("UpdateClaimStatus failed: ok=%v err=%v", ok, err)
	}

	stored, err := r.GetClaimByID(ctx, claim.ID)
	if err != nil {
		t.Fatalf("GetClaimByID failed: %v", err)
	}
	if stored.TransactionSignature == nil || *stored.TransactionSignature != "sig-abc" {
		t.Error("expected transaction signature to be written with the transition")
	}
	if stored.DistributedAmount == nil || !stored.DistributedAmount.Equal(decimal.NewFromInt(7)) {
		t.Error("expected distributed amount to be written with the transition")
	}
}

func TestSetClaimSettlementRecordsOnce(t *testing.T) {
	r := setupRepo(t)
	ctx := context.Background()
	claim := createClaim(t, r, models.ClaimStatusRejected, time.Now().Add(time.Hour))

	ok, err := r.SetClaimSettlement(ctx, claim.ID, "sig-1", nil)
	if err != nil || !ok {
		t.Fatalf("first SetClaimSettlement failed: ok=%v err=%v", ok, err)
	}

	ok, err = r.SetClaimSettlement(ctx, claim.ID, "sig-2", nil)
	if err != nil {
		t.Fatalf("second SetClaimSettlement failed: %v", err)
	}
	if ok {
		t.Error("expected second settlement write to match no rows")
	}

	stored, err := r.GetClaimByID(ctx, claim.ID)
	if err != nil {
		t.Fatalf("GetClaimByID failed: %v", err)
	}
	if *stored.TransactionSignature != "sig-1" {
		t.Errorf("signature = %s, want sig-1", *stored.TransactionSignature)
	}
}

func TestGetExpiredPendingClaims(t *testing.T) {
	r := setupRepo(t)
	ctx := context.Background()

	expired := createClaim(t, r, models.ClaimStatusPending, time.Now().Add(-time.Hour))
	createClaim(t, r, models.ClaimStatusPending, time.Now().Add(time.Hour))
	createClaim(t, r, models.ClaimStatusApproved, time.Now().Add(-time.Hour))

	claims, err := r.GetExpiredPendingClaims(ctx, 10)
	if err != nil {
		t.Fatalf("GetExpiredPendingClaims failed: %v", err)
	}

	if len(claims) != 1 {
		t.Fatalf("got %d expired pending claims, want 1", len(claims))
	}
	if claims[0].ID != expired.ID {
		t.Errorf("wrong claim returned")
	}
}

func TestVoteUniqueConstraint(t *testing.T) {
	r := setupRepo(t)
	ctx := context.Background()
	claim := createClaim(t, r, models.ClaimStatusPending, time.Now().Add(time.Hour))

	first := &models.Vote{ID: uuid.New(), ClaimID: claim.ID, UserID: 42, Approve: true}
	if err := r.CreateVote(ctx, first); err != nil {
		t.Fatalf("first vote failed: %v", err)
	}

	second := &models.Vote{ID: uuid.New(), ClaimID: claim.ID, UserID: 42, Approve: false}
	err := r.CreateVote(ctx, second)
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Errorf("expected gorm.ErrDuplicatedKey, got %v", err)
	}
}
