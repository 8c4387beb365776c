package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cargo-inventory-backend/internal/coordinator"
)

// AddCargoToStorage handles POST /api/cargo-storage.
func (h *Handler) AddCargoToStorage(c *gin.Context) {
	var req coordinator.AddToStorageRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.coord.AddCargoToStorage(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// CorrectQuantity handles PUT /api/cargo-storage/:id/quantity.
func (h *Handler) CorrectQuantity(c *gin.Context) {
	entryID, ok := pathID(c, "id", "cargo storage")
	if !ok {
		return
	}
	var req coordinator.CorrectQuantityRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.coord.CorrectQuantity(c.Request.Context(), entryID, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetStorageEntry handles GET /api/cargo-storage/:id.
func (h *Handler) GetStorageEntry(c *gin.Context) {
	entryID, ok := pathID(c, "id", "cargo storage")
	if !ok {
		return
	}

	view, err := h.coord.StorageEntry(c.Request.Context(), entryID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetInventoryCheckDue handles GET /api/cargo-storage/inventory-check-due.
func (h *Handler) GetInventoryCheckDue(c *gin.Context) {
	views, err := h.coord.InventoryCheckDue(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// GetStorageContents handles GET /api/storage-units/:id/storage.
func (h *Handler) GetStorageContents(c *gin.Context) {
	unitID, ok := pathID(c, "id", "storage unit")
	if !ok {
		return
	}

	views, err := h.coord.StorageContents(c.Request.Context(), unitID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// GetStorageUnitCapacity handles GET /api/storage-units/:id/capacity.
func (h *Handler) GetStorageUnitCapacity(c *gin.Context) {
	unitID, ok := pathID(c, "id", "storage unit")
	if !ok {
		return
	}

	view, err := h.coord.StorageUnitCapacity(c.Request.Context(), unitID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// RecomputeStorageUnit handles POST /api/storage-units/:id/recompute.
func (h *Handler) RecomputeStorageUnit(c *gin.Context) {
	unitID, ok := pathID(c, "id", "storage unit")
	if !ok {
		return
	}

	view, err := h.coord.RecomputeStorageUnit(c.Request.Context(), unitID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetStorageUnitTotal handles GET /api/storage-units/:id/total.
func (h *Handler) GetStorageUnitTotal(c *gin.Context) {
	unitID, ok := pathID(c, "id", "storage unit")
	if !ok {
		return
	}

	total, err := h.coord.TotalQuantityForStorageUnit(c.Request.Context(), unitID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"storageUnitId": unitID, "totalQuantity": total})
}

// GetCargoTotal handles GET /api/cargo/:id/total.
func (h *Handler) GetCargoTotal(c *gin.Context) {
	cargoID, ok := pathID(c, "id", "cargo")
	if !ok {
		return
	}

	total, err := h.coord.TotalQuantityForCargo(c.Request.Context(), cargoID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cargoId": cargoID, "totalQuantity": total})
}
