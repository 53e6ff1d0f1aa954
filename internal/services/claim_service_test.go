package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"creator-insurance/internal/models"
	"creator-insurance/internal/repository"
)

func TestCreateClaimAppliesDefaultDeadline(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRepository(db)
	cs := NewClaimService(repo, 24*time.Hour)

	creator := seedUser(t, db, "creator-wallet")
	seedPass(t, db, creator.ID)

	before := time.Now()
	claim, err := cs.CreateClaim(context.Background(), creator.ID, &models.CreateClaimRequest{
		Reason: "camera broken at meetup",
		Amount: decimal.NewFromInt(3),
	})
	if err != nil {
		t.Fatalf("CreateClaim failed: %v", err)
	}

	want := before.Add(24 * time.Hour)
	if claim.ValidTill.Before(want.Add(-time.Minute)) || claim.ValidTill.After(want.Add(time.Minute)) {
		t.Errorf("valid_till = %s, want ~%s", claim.ValidTill, want)
	}
	if claim.Status != models.ClaimStatusPending {
		t.Errorf("new claim status = %s, want PENDING", claim.Status)
	}
}

func TestCreateClaimRequiresPass(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRepository(db)
	cs := NewClaimService(repo, 24*time.Hour)

	nobody := seedUser(t, db, "no-pass-wallet")

	_, err := cs.CreateClaim(context.Background(), nobody.ID, &models.CreateClaimRequest{
		Reason: "some reason text",
		Amount: decimal.NewFromInt(1),
	})
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden without a pass, got %v", err)
	}
}

func TestCreateClaimRejectsPastDeadline(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRepository(db)
	cs := NewClaimService(repo, 24*time.Hour)

	creator := seedUser(t, db, "creator-wallet")
	seedPass(t, db, creator.ID)

	past := time.Now().Add(-time.Hour)
	_, err := cs.CreateClaim(context.Background(), creator.ID, &models.CreateClaimRequest{
		Reason:    "some reason text",
		Amount:    decimal.NewFromInt(1),
		ValidTill: &past,
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for deadline in the past, got %v", err)
	}
}

func TestCreateClaimRejectsNonPositiveAmount(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRepository(db)
	cs := NewClaimService(repo, 24*time.Hour)

	creator := seedUser(t, db, "creator-wallet")
	seedPass(t, db, creator.ID)

	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5)} {
		_, err := cs.CreateClaim(context.Background(), creator.ID, &models.CreateClaimRequest{
			Reason: "some reason text",
			Amount: amount,
		})
		if !errors.Is(err, ErrValidation) {
			t.Errorf("amount %s: expected ErrValidation, got %v", amount, err)
		}
	}
}

func TestClaimVisibility(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRepository(db)
	cs := NewClaimService(repo, 24*time.Hour)

	creator := seedUser(t, db, "creator-wallet")
	pass := seedPass(t, db, creator.ID)
	claim := seedClaim(t, db, creator.ID, models.ClaimStatusPending)

	holder := seedUser(t, db, "holder-wallet")
	seedOwnership(t, db, holder.ID, pass)
	stranger := seedUser(t, db, "stranger-wallet")

	if _, err := cs.GetClaim(context.Background(), creator.ID, claim.ID); err != nil {
		t.Errorf("creator should see own claim: %v", err)
	}
	if _, err := cs.GetClaim(context.Background(), holder.ID, claim.ID); err != nil {
		t.Errorf("holder should see creator's claim: %v", err)
	}
	if _, err := cs.GetClaim(context.Background(), stranger.ID, claim.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("stranger access: expected ErrForbidden, got %v", err)
	}
}

func TestListClaimsCoversHeldPasses(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRepository(db)
	cs := NewClaimService(repo, 24*time.Hour)

	creatorA := seedUser(t, db, "creator-a")
	passA := seedPass(t, db, creatorA.ID)
	seedClaim(t, db, creatorA.ID, models.ClaimStatusPending)

	creatorB := seedUser(t, db, "creator-b")
	seedPass(t, db, creatorB.ID)
	seedClaim(t, db, creatorB.ID, models.ClaimStatusPending)

	holder := seedUser(t, db, "holder-wallet")
	seedOwnership(t, db, holder.ID, passA)

	claims, total, err := cs.ListClaims(context.Background(), holder.ID, 20, 0)
	if err != nil {
		t.Fatalf("ListClaims failed: %v", err)
	}

	if total != 1 || len(claims) != 1 {
		t.Fatalf("holder sees %d claims, want 1 (only held pass)", total)
	}
	if claims[0].CreatorID != creatorA.ID {
		t.Errorf("listed claim belongs to creator %d, want %d", claims[0].CreatorID, creatorA.ID)
	}
}

func TestUpdateClaimCreatorOnly(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRepository(db)
	cs := NewClaimService(repo, 24*time.Hour)

	creator := seedUser(t, db, "creator-wallet")
	pass := seedPass(t, db, creator.ID)
	claim := seedClaim(t, db, creator.ID, models.ClaimStatusPending)

	holder := seedUser(t, db, "holder-wallet")
	seedOwnership(t, db, holder.ID, pass)

	newReason := "updated reason text"
	_, err := cs.UpdateClaim(context.Background(), holder.ID, claim.ID, &models.UpdateClaimRequest{Reason: &newReason})
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("holder edit: expected ErrForbidden, got %v", err)
	}
}

func TestUpdateClaimReplacesMedia(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRepository(db)
	cs := NewClaimService(repo, 24*time.Hour)

	creator := seedUser(t, db, "creator-wallet")
	seedPass(t, db, creator.ID)

	claim, err := cs.CreateClaim(context.Background(), creator.ID, &models.CreateClaimRequest{
		Reason: "stolen equipment",
		Amount: decimal.NewFromInt(2),
		Media: []models.MediaInput{
			{Type: "image", URL: "https://cdn.example.com/old-1.jpg"},
			{Type: "image", URL: "https://cdn.example.com/old-2.jpg"},
		},
	})
	if err != nil {
		t.Fatalf("CreateClaim failed: %v", err)
	}

	updated, err := cs.UpdateClaim(context.Background(), creator.ID, claim.ID, &models.UpdateClaimRequest{
		Media: []models.MediaInput{
			{Type: "video", URL: "https://cdn.example.com/new.mp4"},
		},
	})
	if err != nil {
		t.Fatalf("UpdateClaim failed: %v", err)
	}

	if len(updated.Media) != 1 {
		t.Fatalf("media count = %d, want 1 (old set replaced)", len(updated.Media))
	}
	if updated.Media[0].URL != "https://cdn.example.com/new.mp4" {
		t.Errorf("unexpected media URL %s", updated.Media[0].URL)
	}
}

func TestUpdateClaimRejectsFinalized(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRepository(db)
	cs := NewClaimService(repo, 24*time.Hour)

	creator := seedUser(t, db, "creator-wallet")
	seedPass(t, db, creator.ID)
	claim := seedClaim(t, db, creator.ID, models.ClaimStatusApproved)

	newReason := "updated reason text"
	_, err := cs.UpdateClaim(context.Background(), creator.ID, claim.ID, &models.UpdateClaimRequest{Reason: &newReason})
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState on finalized claim, got %v", err)
	}
}
