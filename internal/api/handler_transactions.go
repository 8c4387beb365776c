package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cargo-inventory-backend/internal/coordinator"
)

// Transfer handles POST /api/inventory-transactions/transfer.
func (h *Handler) Transfer(c *gin.Context) {
	var req coordinator.TransferRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.coord.TransferBetweenStorages(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// GetCargoHistory handles GET /api/inventory-transactions/cargo/:cargoId.
func (h *Handler) GetCargoHistory(c *gin.Context) {
	cargoID, ok := pathID(c, "cargoId", "cargo")
	if !ok {
		return
	}

	views, err := h.coord.TransactionHistory(c.Request.Context(), cargoID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// GetStorageUnitHistory handles GET /api/inventory-transactions/storage-unit/:id.
func (h *Handler) GetStorageUnitHistory(c *gin.Context) {
	unitID, ok := pathID(c, "id", "storage unit")
	if !ok {
		return
	}

	views, err := h.coord.StorageUnitTransactions(c.Request.Context(), unitID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// GetSpacecraftHistory handles GET /api/inventory-transactions/spacecraft/:id.
func (h *Handler) GetSpacecraftHistory(c *gin.Context) {
	spacecraftID, ok := pathID(c, "id", "spacecraft")
	if !ok {
		return
	}

	views, err := h.coord.SpacecraftTransactions(c.Request.Context(), spacecraftID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// GetLedgerNet handles GET /api/inventory-transactions/net?cargoId=&storageUnitId=.
func (h *Handler) GetLedgerNet(c *gin.Context) {
	cargoID, err := strconv.ParseInt(c.Query("cargoId"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid cargo ID"})
		return
	}
	unitID, err := strconv.ParseInt(c.Query("storageUnitId"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid storage unit ID"})
		return
	}

	net, err := h.coord.LedgerNetQuantity(c.Request.Context(), cargoID, unitID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cargoId": cargoID, "storageUnitId": unitID, "netQuantity": net})
}
