package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"creator-insurance/internal/auth"
	"creator-insurance/internal/models"
	"creator-insurance/internal/services"
)

// PassHandler handles pass and ownership endpoints
type PassHandler struct {
	passService *services.PassService
}

// NewPassHandler creates a new PassHandler
func NewPassHandler(passService *services.PassService) *PassHandler {
	return &PassHandler{
		passService: passService,
	}
}

// CreatePass creates the caller's pass
// POST /passes
func (h *PassHandler) CreatePass(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req models.CreatePassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pass, err := h.passService.CreatePass(c.Request.Context(), userID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"pass": pass})
}

// ListPasses lists all passes
// GET /passes
func (h *PassHandler) ListPasses(c *gin.Context) {
	limit, offset := paginationParams(c)

	passes, total, err := h.passService.ListPasses(c.Request.Context(), limit, offset)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"passes": passes,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// GetPass retrieves a pass by ID
// GET /passes/:id
func (h *PassHandler) GetPass(c *gin.Context) {
	passID, ok := passIDParam(c)
	if !ok {
		return
	}

	pass, err := h.passService.GetPass(c.Request.Context(), passID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"pass": pass})
}

// UpdatePass changes the pass price
// PATCH /passes/:id
func (h *PassHandler) UpdatePass(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	passID, ok := passIDParam(c)
	if !ok {
		return
	}

	var req models.UpdatePassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pass, err := h.passService.UpdatePass(c.Request.Context(), userID, passID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"pass": pass})
}

// GetCreatorPass retrieves a creator's pass with an owned flag for the caller
// GET /passes/creator/:creatorId
func (h *PassHandler) GetCreatorPass(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	creatorID, ok := creatorIDParam(c)
	if !ok {
		return
	}

	pass, owned, err := h.passService.GetCreatorPass(c.Request.Context(), userID, creatorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"pass":  pass,
		"owned": owned,
	})
}

// ListHolders retrieves the holder roster for a creator's pass
// GET /passes/creator/:creatorId/holders
func (h *PassHandler) ListHolders(c *gin.Context) {
	creatorID, ok := creatorIDParam(c)
	if !ok {
		return
	}

	holders, err := h.passService.ListHolders(c.Request.Context(), creatorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"holders": holders,
		"count":   len(holders),
	})
}

// BuyPass records a verified pass purchase
// POST /passes/buy
func (h *PassHandler) BuyPass(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req models.BuyPassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ownership, err := h.passService.BuyPass(c.Request.Context(), userID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ownership": ownership})
}

// creatorIDParam parses the :creatorId path parameter
func creatorIDParam(c *gin.Context) (uint, bool) {
	creatorID, err := strconv.ParseUint(c.Param("creatorId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid creator id"})
		return 0, false
	}
	return uint(creatorID), true
}

// passIDParam parses the :id path parameter, writing the error response itself
func passIDParam(c *gin.Context) (uint, bool) {
	passID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pass id"})
		return 0, false
	}
	return uint(passID), true
}
