package handlers

import (
	"net/http"

	"coinflip_arena/internal/domain"
	"coinflip_arena/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthRequest struct {
	Address string `json:"address"`
	Seed    string `json:"seed"`
}

// Auth issues a JWT for a player address. Identity is self-declared: access
// control inside the arena is keyed to scopes, not to token possession.
// Supply either an explicit address or a seed to derive one.
func (h *Handler) Auth(c *gin.Context) {
	var req AuthRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	var addr domain.Address
	switch {
	case req.Address != "":
		parsed, err := domain.ParseAddress(req.Address)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		addr = parsed
	case req.Seed != "":
		addr = domain.AddressFromSeed(req.Seed)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "address or seed required"})
		return
	}

	token, err := service.GenerateJWT(addr)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "address": addr.Hex()})
}
