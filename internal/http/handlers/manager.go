package handlers

import (
	"net/http"

	"coinflip_arena/internal/domain"

	"github.com/gin-gonic/gin"
)

type FundManagerRequest struct {
	Amount uint64 `json:"amount" binding:"required"`
	Native bool   `json:"native"`
}

// FundManager credits the manager's subscription from the caller's balance.
func (h *Handler) FundManager(c *gin.Context) {
	caller, ok := playerFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	managerAddr, err := domain.ParseAddress(c.Param("addr"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req FundManagerRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	if err := h.Arena.FundManager(caller, managerAddr, req.Amount, req.Native); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "funded"})
}

// GetManager returns the manager's subscription view.
func (h *Handler) GetManager(c *gin.Context) {
	managerAddr, err := domain.ParseAddress(c.Param("addr"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	m, ok := h.Arena.Factory().Manager(managerAddr)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "manager not found"})
		return
	}

	resp := gin.H{
		"address":         m.Address().Hex(),
		"subscription_id": m.SubscriptionID(),
	}
	if sub, err := h.Coordinator.GetSubscription(m.SubscriptionID()); err == nil {
		resp["balance"] = sub.Balance
		resp["native_balance"] = sub.NativeBalance
		resp["consumers"] = sub.Consumers
	}

	c.JSON(http.StatusOK, resp)
}

type ManagerConfigRequest struct {
	KeyLane          string `json:"key_lane"`
	CallbackGasLimit uint32 `json:"callback_gas_limit"`
	Confirmations    uint16 `json:"confirmations"`
	NativePayment    *bool  `json:"native_payment"`
}

// UpdateManagerConfig tunes a manager's request parameters. Manager-admin
// scope enforced inside the manager.
func (h *Handler) UpdateManagerConfig(c *gin.Context) {
	caller, ok := playerFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	managerAddr, err := domain.ParseAddress(c.Param("addr"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	m, ok := h.Arena.Factory().Manager(managerAddr)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "manager not found"})
		return
	}

	var req ManagerConfigRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	if req.KeyLane != "" {
		lane, err := domain.ParseHash(req.KeyLane)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := m.SetKeyLane(caller, lane); err != nil {
			respondError(c, err)
			return
		}
	}
	if req.CallbackGasLimit != 0 {
		if err := m.SetCallbackGasLimit(caller, req.CallbackGasLimit); err != nil {
			respondError(c, err)
			return
		}
	}
	if req.Confirmations != 0 {
		if err := m.SetRequestConfirmations(caller, req.Confirmations); err != nil {
			respondError(c, err)
			return
		}
	}
	if req.NativePayment != nil {
		if err := m.SetNativePayment(caller, *req.NativePayment); err != nil {
			respondError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}
