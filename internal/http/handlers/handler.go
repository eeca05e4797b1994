package handlers

import (
	"net/http"

	"coinflip_arena/internal/domain"
	"coinflip_arena/internal/http/middleware"
	"coinflip_arena/internal/oracle"
	"coinflip_arena/internal/repository"
	"coinflip_arena/internal/service"
	"coinflip_arena/internal/ws"

	"github.com/gin-gonic/gin"
)

// Handler bundles the arena service and its collaborators for the HTTP layer.
type Handler struct {
	Arena             *service.ArenaService
	GamesRepo         *repository.GameRepository
	Hub               *ws.Hub
	Coordinator       *oracle.SimCoordinator
	Token             oracle.FundingToken
	OracleCallbackKey string
}

func NewHandler(arena *service.ArenaService, gamesRepo *repository.GameRepository, hub *ws.Hub,
	coordinator *oracle.SimCoordinator, token oracle.FundingToken, oracleCallbackKey string) *Handler {
	return &Handler{
		Arena:             arena,
		GamesRepo:         gamesRepo,
		Hub:               hub,
		Coordinator:       coordinator,
		Token:             token,
		OracleCallbackKey: oracleCallbackKey,
	}
}

// playerFromContext extracts the authenticated player address set by the JWT
// middleware.
func playerFromContext(c *gin.Context) (domain.Address, bool) {
	val, ok := c.Get(middleware.ContextPlayerKey)
	if !ok {
		return domain.ZeroAddress, false
	}
	addr, ok := val.(domain.Address)
	return addr, ok
}

// respondError maps the error taxonomy onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	kind := domain.Kind(err)

	switch err {
	case service.ErrGameNotFound, service.ErrManagerNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	switch kind {
	case domain.KindValidation:
		status = http.StatusBadRequest
	case domain.KindAuthorization:
		status = http.StatusForbidden
	case domain.KindState, domain.KindTiming, domain.KindExternal:
		status = http.StatusConflict
	case domain.KindIntegrity:
		status = http.StatusUnprocessableEntity
	}

	c.JSON(status, gin.H{"error": err.Error(), "kind": string(kind)})
}
