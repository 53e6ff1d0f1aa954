package jobs

import (
	"context"
	"errors"
	"log"
	"time"

	"creator-insurance/internal/metrics"
	"creator-insurance/internal/repository"
	"creator-insurance/internal/services"
)

// ClaimFinalizer periodically closes voting on claims whose deadline passed
// without the creator finalizing them.
type ClaimFinalizer struct {
	repo       *repository.Repository
	settlement *services.SettlementService
	interval   time.Duration
	batchSize  int
	stopChan   chan struct{}
}

func NewClaimFinalizer(
	repo *repository.Repository,
	settlement *services.SettlementService,
	interval time.Duration,
) *ClaimFinalizer {
	return &ClaimFinalizer{
		repo:       repo,
		settlement: settlement,
		interval:   interval,
		batchSize:  50,
		stopChan:   make(chan struct{}),
	}
}

// Start launches the background loop
func (cf *ClaimFinalizer) Start() {
	go cf.run()
	log.Printf("Claim finalizer started (interval: %s)", cf.interval)
}

// Stop signals the loop to exit
func (cf *ClaimFinalizer) Stop() {
	close(cf.stopChan)
}

func (cf *ClaimFinalizer) run() {
	ticker := time.NewTicker(cf.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cf.finalizeExpired()
		case <-cf.stopChan:
			log.Println("Claim finalizer stopped")
			return
		}
	}
}

// finalizeExpired closes voting on every pending claim past its deadline.
// Finalization runs on behalf of the filing creator.
func (cf *ClaimFinalizer) finalizeExpired() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	claims, err := cf.repo.GetExpiredPendingClaims(ctx, cf.batchSize)
	if err != nil {
		log.Printf("Error loading expired claims: %v", err)
		return
	}

	for _, claim := range claims {
		result, err := cf.settlement.Finalize(ctx, claim.CreatorID, claim.ID)
		if err != nil {
			// A concurrent manual finalize is fine, anything else is not
			if errors.Is(err, services.ErrAlreadyFinalized) {
				continue
			}
			log.Printf("Error finalizing expired claim %s: %v", claim.ID, err)
			continue
		}

		metrics.ClaimsFinalized.WithLabelValues(string(result.Status)).Inc()
		log.Printf("Expired claim %s auto-finalized as %s", claim.ID, result.Status)
	}
}
