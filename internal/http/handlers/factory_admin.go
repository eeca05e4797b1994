package handlers

import (
	"net/http"
	"time"

	"coinflip_arena/internal/domain"

	"github.com/gin-gonic/gin"
)

type UpdateStalenessRequest struct {
	Seconds int64 `json:"seconds" binding:"required"`
}

// UpdateDefaultStaleness retunes the factory default window. Config-updater
// scope enforced inside the factory.
func (h *Handler) UpdateDefaultStaleness(c *gin.Context) {
	caller, ok := playerFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req UpdateStalenessRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	if err := h.Arena.Factory().UpdateDefaultMaxStaleness(caller, time.Duration(req.Seconds)*time.Second); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

type UpdateVRFConfigRequest struct {
	KeyLane string `json:"key_lane" binding:"required"`
}

// UpdateVRFConfig rotates the key lane used by future manager deployments.
// The coordinator and token collaborators are process-bound, so only the lane
// is tunable at runtime.
func (h *Handler) UpdateVRFConfig(c *gin.Context) {
	caller, ok := playerFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req UpdateVRFConfigRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	lane, err := domain.ParseHash(req.KeyLane)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Arena.Factory().UpdateVRFConfiguration(caller, h.Coordinator, h.Token, lane); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

type UpdateImplementationRequest struct {
	Template string `json:"template" binding:"required"`
}

// UpdateGameImplementation swaps the game template handle. Factory-admin
// scope enforced inside the factory.
func (h *Handler) UpdateGameImplementation(c *gin.Context) {
	caller, ok := playerFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req UpdateImplementationRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	template, err := domain.ParseAddress(req.Template)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Arena.Factory().UpdateGameImplementation(caller, template); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// UpdateManagerImplementation swaps the manager template handle.
func (h *Handler) UpdateManagerImplementation(c *gin.Context) {
	caller, ok := playerFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req UpdateImplementationRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	template, err := domain.ParseAddress(req.Template)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Arena.Factory().UpdateManagerImplementation(caller, template); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// FactoryConfig returns the public configuration view of the factory.
func (h *Handler) FactoryConfig(c *gin.Context) {
	f := h.Arena.Factory()
	coordinator, token, keyLane := f.Configuration()
	gameTpl, managerTpl := f.Templates()

	c.JSON(http.StatusOK, gin.H{
		"coordinator":                   coordinator.Hex(),
		"token":                         token.Hex(),
		"key_lane":                      keyLane.Hex(),
		"default_max_staleness_seconds": int64(f.DefaultMaxStaleness() / time.Second),
		"game_template":                 gameTpl.Hex(),
		"manager_template":              managerTpl.Hex(),
		"deployed_games":                f.DeployedGameCount(),
		"state_version":                 f.StateVersion(),
	})
}
