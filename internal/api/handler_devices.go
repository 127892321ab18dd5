package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Preko700/GreenView-sub000/internal/model"
	"github.com/Preko700/GreenView-sub000/internal/store"
)

type registerDeviceRequest struct {
	SerialID   string `json:"serialId" binding:"required"`
	HardwareID string `json:"hardwareId" binding:"required"`
	Name       string `json:"name"`
}

// RegisterDevice handles POST /api/devices. Registration creates the device
// together with its default configuration and an all-off desired state.
func (h *Handler) RegisterDevice(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req registerDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dev := model.Device{
		SerialID:   req.SerialID,
		HardwareID: req.HardwareID,
		UserID:     userID,
		Name:       req.Name,
	}
	if err := h.store.RegisterDevice(c.Request.Context(), dev); err != nil {
		abortStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dev)
}

// GetDeviceByHardwareID handles GET /api/devices/:hardware_id.
func (h *Handler) GetDeviceByHardwareID(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	dev, err := h.store.DeviceByHardwareID(c.Request.Context(), c.Param("hardware_id"))
	if err != nil {
		abortStoreError(c, err)
		return
	}
	if dev.UserID != userID {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, dev)
}

// GetReadings handles GET /api/devices/:hardware_id/readings.
func (h *Handler) GetReadings(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	dev, err := h.store.DeviceByHardwareID(c.Request.Context(), c.Param("hardware_id"))
	if err != nil {
		abortStoreError(c, err)
		return
	}
	if dev.UserID != userID {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	readings, err := h.store.RecentReadings(c.Request.Context(), dev.SerialID, store.Metric(c.Query("metric")), limit)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve readings"})
		return
	}
	c.JSON(http.StatusOK, readings)
}
