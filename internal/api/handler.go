package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"github.com/Preko700/GreenView-sub000/internal/ingest"
	"github.com/Preko700/GreenView-sub000/internal/mw"
	"github.com/Preko700/GreenView-sub000/internal/session"
	"github.com/Preko700/GreenView-sub000/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	ingest   *ingest.Service
	sessions *session.Manager // nil when the stream transport is disabled
	webpush  *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, ing *ingest.Service, sessions *session.Manager, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:    s,
		ingest:   ing,
		sessions: sessions,
		webpush:  webpushOptions,
	}
}

// callerID extracts the owner identity from the X-User-ID header. Identity
// provisioning happens upstream; this service only consumes the reference.
func callerID(c *gin.Context) (int64, bool) {
	raw := c.GetHeader(mw.UserHeader)
	if raw == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + mw.UserHeader + " header"})
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid " + mw.UserHeader + " header"})
		return 0, false
	}
	return id, true
}

// abortStoreError maps store sentinel errors to response codes.
func abortStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, store.ErrNotOwner):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "device is not owned by caller"})
	case errors.Is(err, store.ErrUnknownActuator):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown actuator"})
	case errors.Is(err, store.ErrDuplicateDevice):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "device already registered"})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
