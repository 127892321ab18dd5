package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Preko700/GreenView-sub000/internal/session"
	"github.com/Preko700/GreenView-sub000/internal/store"
)

// PostResync handles POST /api/resync/:hardware_id: re-push the full
// configuration to the unit over the open session bound to that identifier.
func (h *Handler) PostResync(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	hardwareID := c.Param("hardware_id")

	dev, err := h.store.DeviceByHardwareID(c.Request.Context(), hardwareID)
	if err != nil {
		abortStoreError(c, err)
		return
	}
	if dev.UserID != userID {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	if h.sessions == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "stream transport is disabled"})
		return
	}
	if err := h.sessions.Resync(c.Request.Context(), hardwareID); err != nil {
		if errors.Is(err, session.ErrNotOpen) || errors.Is(err, store.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "no open session for device"})
			return
		}
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "resync triggered"})
}
