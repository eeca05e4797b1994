package handlers

import (
	"net/http"
	"strconv"
	"time"

	"coinflip_arena/internal/domain"

	"github.com/gin-gonic/gin"
)

type CreateGameRequest struct {
	Side                string `json:"side" binding:"required"`
	MaxStalenessSeconds int64  `json:"max_staleness_seconds"` // 0 = factory default
	Salt                string `json:"salt" binding:"required"`
}

// CreateGame deploys a new game with the caller as player1.
func (h *Handler) CreateGame(c *gin.Context) {
	caller, ok := playerFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req CreateGameRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	side, err := domain.ParseCoinSide(req.Side)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.Arena.CreateGame(c.Request.Context(), caller, side,
		time.Duration(req.MaxStalenessSeconds)*time.Second, domain.SaltFromString(req.Salt))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"game": rec})
}

// Join adds the caller as player2.
func (h *Handler) Join(c *gin.Context) {
	caller, ok := playerFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	gameAddr, err := domain.ParseAddress(c.Param("addr"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.Arena.Join(c.Request.Context(), gameAddr, caller)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"game": rec})
}

// Resolve settles the game for the caller.
func (h *Handler) Resolve(c *gin.Context) {
	caller, ok := playerFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	gameAddr, err := domain.ParseAddress(c.Param("addr"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.Arena.Resolve(c.Request.Context(), gameAddr, caller)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"game": rec})
}

// GetGame returns the current snapshot of one game.
func (h *Handler) GetGame(c *gin.Context) {
	gameAddr, err := domain.ParseAddress(c.Param("addr"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.Arena.GetGame(gameAddr)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"game": rec})
}

// ListGames pages the deployed registry in creation order.
func (h *Handler) ListGames(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	games, count, err := h.Arena.ListGames(offset, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count, "games": games})
}

// PredictGame returns the address CreateGame would produce for the given
// sender and arguments.
func (h *Handler) PredictGame(c *gin.Context) {
	side, err := domain.ParseCoinSide(c.Query("side"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sender, err := domain.ParseAddress(c.Query("sender"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sender"})
		return
	}
	saltStr := c.Query("salt")
	if saltStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "salt required"})
		return
	}
	stalenessSeconds, _ := strconv.ParseInt(c.DefaultQuery("max_staleness_seconds", "0"), 10, 64)

	addr, err := h.Arena.Factory().PredictGameAddressForSender(side,
		time.Duration(stalenessSeconds)*time.Second, domain.SaltFromString(saltStr), sender)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"address": addr.Hex()})
}

// ManagerBySalt returns the manager bound to a salt, zero when none exists.
func (h *Handler) ManagerBySalt(c *gin.Context) {
	salt := domain.SaltFromString(c.Param("salt"))
	addr := h.Arena.Factory().ManagerForSalt(salt)
	c.JSON(http.StatusOK, gin.H{"manager": addr.Hex(), "exists": !addr.IsZero()})
}

// MyStats returns aggregate counters for the caller over the last 30 days.
func (h *Handler) MyStats(c *gin.Context) {
	caller, ok := playerFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	stats, err := h.GamesRepo.GetPlayerStats(c.Request.Context(), caller, time.Now().AddDate(0, 0, -30))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// RecentGames returns the newest persisted games.
func (h *Handler) RecentGames(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	rows, err := h.GamesRepo.ListRecent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load games"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"games": rows})
}
