package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"creator-insurance/internal/blockchain"
	"creator-insurance/internal/services"
)

// respondServiceError maps service errors onto HTTP responses. Anything not
// covered by a sentinel is a 500 with a generic message; the detail goes to
// the log, not the client.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrAlreadyVoted),
		errors.Is(err, services.ErrAlreadyFinalized),
		errors.Is(err, services.ErrAlreadyOwned),
		errors.Is(err, services.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, blockchain.ErrChainUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "blockchain temporarily unavailable, try again later"})
	default:
		log.Printf("Internal error on %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
