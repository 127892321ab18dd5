package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Preko700/GreenView-sub000/internal/store"
)

type ingestRequest struct {
	Items []store.ReadingItem `json:"items" binding:"required"`
}

// PostIngest handles POST /api/ingest: a batch of device-identified readings
// from any transport reporting on behalf of devices. Item-level rejections
// are reported in the response; a storage failure fails the whole batch.
func (h *Handler) PostIngest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.ingest.Ingest(c.Request.Context(), req.Items)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			gin.H{"error": "ingestion failed, retry the whole batch"})
		return
	}
	c.JSON(http.StatusOK, res)
}
