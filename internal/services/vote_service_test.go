package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"creator-insurance/internal/models"
	"creator-insurance/internal/repository"
)

func boolPtr(b bool) *bool { return &b }

func TestCastVoteRecordsHolderVote(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRepository(db)
	vs := NewVoteService(repo)

	creator := seedUser(t, db, "creator-wallet")
	pass := seedPass(t, db, creator.ID)
	claim := seedClaim(t, db, creator.ID, models.ClaimStatusPending)

	holder := seedUser(t, db, "holder-wallet")
	seedOwnership(t, db, holder.ID, pass)

	vote, err := vs.CastVote(context.Background(), holder.ID, claim.ID, &models.CastVoteRequest{Approve: boolPtr(true)})
	if err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}

	if !vote.Approve {
		t.Error("expected approve vote")
	}
	if vote.ClaimID != claim.ID || vote.UserID != holder.ID {
		t.Error("vote recorded against wrong claim or user")
	}
}

func TestCastVoteRejectsSecondVote(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRepository(db)
	vs := NewVoteService(repo)

	creator := seedUser(t, db, "creator-wallet")
	pass := seedPass(t, db, creator.ID)
	claim := seedClaim(t, db, creator.ID, models.ClaimStatusPending)

	holder := seedUser(t, db, "holder-wallet")
	seedOwnership(t, db, holder.ID, pass)

	if _, err := vs.CastVote(context.Background(), holder.ID, claim.ID, &models.CastVoteRequest{Approve: boolPtr(true)}); err != nil {
		t.Fatalf("first vote failed: %v", err)
	}

	// A changed mind does not count: the second vote is rejected outright
	_, err := vs.CastVote(context.Background(), holder.ID, claim.ID, &models.CastVoteRequest{Approve: boolPtr(false)})
	if !errors.Is(err, ErrAlreadyVoted) {
		t.Errorf("expected ErrAlreadyVoted, got %v", err)
	}

	tally, err := vs.GetTally(context.Background(), holder.ID, claim.ID)
	if err != nil {
		t.Fatalf("GetTally failed: %v", err)
	}
	if tally.YesVotes != 1 || tally.NoVotes != 0 {
		t.Errorf("tally %d/%d, want 1/0 (first vote stands)", tally.YesVotes, tally.NoVotes)
	}
}

func TestCastVoteRequiresPassOwnership(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRepository(db)
	vs := NewVoteService(repo)

	creator := seedUser(t, db, "creator-wallet")
	seedPass(t, db, creator.ID)
	claim := seedClaim(t, db, creator.ID, models.ClaimStatusPending)

	stranger := seedUser(t, db, "stranger-wallet")

	_, err := vs.CastVote(context.Background(), stranger.ID, claim.ID, &models.CastVoteRequest{Approve: boolPtr(true)})
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for non-holder, got %v", err)
	}
}

func TestCastVoteClosedWindow(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRepository(db)
	vs := NewVoteService(repo)

	creator := seedUser(t, db, "creator-wallet")
	pass := seedPass(t, db, creator.ID)

	claim := seedClaim(t, db, creator.ID, models.ClaimStatusPending)
	db.Model(&models.Claim{}).Where("id = ?", claim.ID).
		Update("valid_till", time.Now().Add(-time.Hour))

	holder := seedUser(t, db, "holder-wallet")
	seedOwnership(t, db, holder.ID, pass)

	_, err := vs.CastVote(context.Background(), holder.ID, claim.ID, &models.CastVoteRequest{Approve: boolPtr(true)})
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState past deadline, got %v", err)
	}
}

func TestCastVoteOnFinalizedClaim(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRepository(db)
	vs := NewVoteService(repo)

	creator := seedUser(t, db, "creator-wallet")
	pass := seedPass(t, db, creator.ID)
	claim := seedClaim(t, db, creator.ID, models.ClaimStatusApproved)

	holder := seedUser(t, db, "holder-wallet")
	seedOwnership(t, db, holder.ID, pass)

	_, err := vs.CastVote(context.Background(), holder.ID, claim.ID, &models.CastVoteRequest{Approve: boolPtr(true)})
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState on finalized claim, got %v", err)
	}
}

func TestCastVoteUnknownClaim(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRepository(db)
	vs := NewVoteService(repo)

	voter := seedUser(t, db, "voter-wallet")
	missing := seedClaim(t, db, voter.ID, models.ClaimStatusPending).ID
	db.Exec("DELETE FROM claims")

	_, err := vs.CastVote(context.Background(), voter.ID, missing, &models.CastVoteRequest{Approve: boolPtr(true)})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetTallyIncludesCallerVote(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRepository(db)
	vs := NewVoteService(repo)

	creator := seedUser(t, db, "creator-wallet")
	pass := seedPass(t, db, creator.ID)
	claim := seedClaim(t, db, creator.ID, models.ClaimStatusPending)

	yes := seedUser(t, db, "yes-voter")
	seedOwnership(t, db, yes.ID, pass)
	seedVote(t, db, claim.ID, yes.ID, true)

	no := seedUser(t, db, "no-voter")
	seedOwnership(t, db, no.ID, pass)
	seedVote(t, db, claim.ID, no.ID, false)

	tally, err := vs.GetTally(context.Background(), no.ID, claim.ID)
	if err != nil {
		t.Fatalf("GetTally failed: %v", err)
	}

	if tally.YesVotes != 1 || tally.NoVotes != 1 {
		t.Errorf("tally %d/%d, want 1/1", tally.YesVotes, tally.NoVotes)
	}
	if tally.UserVote == nil || tally.UserVote.Approve {
		t.Error("expected caller's own no-vote in tally")
	}

	// A user who has not voted gets no user_vote
	bystander := seedUser(t, db, "bystander-wallet")
	tally, err = vs.GetTally(context.Background(), bystander.ID, claim.ID)
	if err != nil {
		t.Fatalf("GetTally failed: %v", err)
	}
	if tally.UserVote != nil {
		t.Error("expected nil user_vote for non-voter")
	}
}
