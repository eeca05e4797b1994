package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

type FulfillRequest struct {
	RequestID uint64   `json:"request_id" binding:"required"`
	Words     []uint64 `json:"words" binding:"required"`
}

// OracleFulfill is the callback the off-process oracle posts verified words
// to. Authenticated by a shared key, not by player JWT.
func (h *Handler) OracleFulfill(c *gin.Context) {
	key := c.GetHeader("X-Oracle-Key")
	if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(h.OracleCallbackKey)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid oracle key"})
		return
	}

	var req FulfillRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	if err := h.Arena.Fulfill(c.Request.Context(), req.RequestID, req.Words); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "fulfilled"})
}

// PendingRequests reports how many randomness requests await fulfillment.
func (h *Handler) PendingRequests(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"pending": h.Coordinator.PendingCount()})
}
