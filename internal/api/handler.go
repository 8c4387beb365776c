package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cargo-inventory-backend/internal/coordinator"
	"cargo-inventory-backend/internal/errs"
	"cargo-inventory-backend/internal/mw"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	coord  *coordinator.Coordinator
	logger *log.Logger
}

// NewHandler creates a new API handler.
func NewHandler(coord *coordinator.Coordinator, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		coord:  coord,
		logger: logger,
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrEntityNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrInvalidQuantity),
		errors.Is(err, errs.ErrInvalidTransferEndpoints),
		errors.Is(err, errs.ErrInvalidValue):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrManifestState),
		errors.Is(err, errs.ErrCapacityExceeded):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// fail writes err as {"error": ...}. Internal errors are logged and their
// detail is not sent to the client.
func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Printf("request %s %s [%s] failed: %v", c.Request.Method, c.FullPath(), mw.GetRequestID(c), err)
		c.AbortWithStatusJSON(status, gin.H{"error": "internal error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func pathID(c *gin.Context, name, label string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid " + label + " ID"})
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return false
	}
	return true
}
