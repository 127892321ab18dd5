package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Preko700/GreenView-sub000/internal/model"
)

// GetConfiguration handles GET /api/configurations/:serial.
func (h *Handler) GetConfiguration(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	serial := c.Param("serial")

	if _, err := h.store.DeviceForOwner(c.Request.Context(), serial, userID); err != nil {
		abortStoreError(c, err)
		return
	}
	cfg, err := h.store.Configuration(c.Request.Context(), serial)
	if err != nil {
		abortStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// PutConfiguration handles PUT /api/configurations/:serial. Invariant
// violations reject the whole write; nothing is partially applied.
func (h *Handler) PutConfiguration(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var cfg model.DeviceConfiguration
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cfg.DeviceSerial = c.Param("serial")

	if err := cfg.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.store.SaveConfiguration(c.Request.Context(), userID, cfg); err != nil {
		abortStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}
