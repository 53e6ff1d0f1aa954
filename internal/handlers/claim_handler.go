package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"creator-insurance/internal/auth"
	"creator-insurance/internal/metrics"
	"creator-insurance/internal/models"
	"creator-insurance/internal/services"
)

// ClaimHandler handles claim, vote and settlement endpoints
type ClaimHandler struct {
	claimService      *services.ClaimService
	voteService       *services.VoteService
	settlementService *services.SettlementService
}

// NewClaimHandler creates a new ClaimHandler
func NewClaimHandler(
	claimService *services.ClaimService,
	voteService *services.VoteService,
	settlementService *services.SettlementService,
) *ClaimHandler {
	return &ClaimHandler{
		claimService:      claimService,
		voteService:       voteService,
		settlementService: settlementService,
	}
}

// CreateClaim files a new claim against the caller's vault
// POST /claims
func (h *ClaimHandler) CreateClaim(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req models.CreateClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claim, err := h.claimService.CreateClaim(c.Request.Context(), userID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"claim": claim})
}

// ListClaims lists the claims visible to the caller
// GET /claims
func (h *ClaimHandler) ListClaims(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit, offset := paginationParams(c)

	claims, total, err := h.claimService.ListClaims(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"claims": claims,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// GetClaim retrieves a single claim
// GET /claims/:id
func (h *ClaimHandler) GetClaim(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	claimID, ok := claimIDParam(c)
	if !ok {
		return
	}

	claim, err := h.claimService.GetClaim(c.Request.Context(), userID, claimID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"claim": claim})
}

// UpdateClaim edits a pending claim
// PATCH /claims/:id
func (h *ClaimHandler) UpdateClaim(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	claimID, ok := claimIDParam(c)
	if !ok {
		return
	}

	var req models.UpdateClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claim, err := h.claimService.UpdateClaim(c.Request.Context(), userID, claimID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"claim": claim})
}

// CastVote records the caller's vote on a claim
// POST /claims/:id/votes
func (h *ClaimHandler) CastVote(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	claimID, ok := claimIDParam(c)
	if !ok {
		return
	}

	var req models.CastVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	vote, err := h.voteService.CastVote(c.Request.Context(), userID, claimID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	metrics.VotesCast.Inc()

	c.JSON(http.StatusCreated, gin.H{"vote": vote})
}

// GetTally returns the current vote counts on a claim
// GET /claims/:id/votes
func (h *ClaimHandler) GetTally(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	claimID, ok := claimIDParam(c)
	if !ok {
		return
	}

	tally, err := h.voteService.GetTally(c.Request.Context(), userID, claimID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tally": tally})
}

// Finalize closes voting on a claim and fixes its outcome
// POST /claims/:id/finalize
func (h *ClaimHandler) Finalize(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	claimID, ok := claimIDParam(c)
	if !ok {
		return
	}

	result, err := h.settlementService.Finalize(c.Request.Context(), userID, claimID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	metrics.ClaimsFinalized.WithLabelValues(string(result.Status)).Inc()

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// Payout distributes the vault balance to the creator of an approved claim
// POST /claims/:id/payout
func (h *ClaimHandler) Payout(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	claimID, ok := claimIDParam(c)
	if !ok {
		return
	}

	result, err := h.settlementService.Payout(c.Request.Context(), userID, claimID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	metrics.Distributions.WithLabelValues(string(models.DistributionKindPayout)).Inc()

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// Refund splits the vault balance across holders after a rejected claim
// POST /claims/:id/refund
func (h *ClaimHandler) Refund(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	claimID, ok := claimIDParam(c)
	if !ok {
		return
	}

	result, err := h.settlementService.Refund(c.Request.Context(), userID, claimID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	metrics.Distributions.WithLabelValues(string(models.DistributionKindRefund)).Inc()

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// claimIDParam parses the :id path parameter, writing the error response itself
func claimIDParam(c *gin.Context) (uuid.UUID, bool) {
	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid claim id"})
		return uuid.UUID{}, false
	}
	return claimID, true
}

// paginationParams reads limit/offset query parameters with sane bounds
func paginationParams(c *gin.Context) (int, int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}

	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	return limit, offset
}
