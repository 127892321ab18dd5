package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type setActuatorRequest struct {
	State *bool `json:"state" binding:"required"`
}

// SetActuator handles POST /api/actuators/:serial/:actuator. It updates the
// desired (target) state only; there is no confirmation that the unit
// applied it — convergence happens when the unit next polls.
func (h *Handler) SetActuator(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req setActuatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.store.SetActuator(c.Request.Context(), c.Param("serial"), userID, c.Param("actuator"), *req.State)
	if err != nil {
		abortStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "accepted"})
}

// PollActuators handles GET /api/poll/:hardware_id/actuators, the read side
// of desired-state reconciliation. The unit calls this on its own schedule
// and applies whatever it gets back.
func (h *Handler) PollActuators(c *gin.Context) {
	dev, err := h.store.DeviceByHardwareID(c.Request.Context(), c.Param("hardware_id"))
	if err != nil {
		abortStoreError(c, err)
		return
	}
	state, err := h.store.DesiredState(c.Request.Context(), dev.SerialID)
	if err != nil {
		abortStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}
