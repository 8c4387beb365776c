package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cargo-inventory-backend/internal/coordinator"
	"cargo-inventory-backend/internal/model"
)

// LoadCargo handles POST /api/spacecrafts/:id/load-cargo.
func (h *Handler) LoadCargo(c *gin.Context) {
	spacecraftID, ok := pathID(c, "id", "spacecraft")
	if !ok {
		return
	}
	var req coordinator.LoadRequest
	if !bindJSON(c, &req) {
		return
	}

	views, err := h.coord.LoadCargoToSpacecraft(c.Request.Context(), spacecraftID, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, views)
}

// UnloadCargo handles POST /api/spacecrafts/:id/unload-cargo.
func (h *Handler) UnloadCargo(c *gin.Context) {
	spacecraftID, ok := pathID(c, "id", "spacecraft")
	if !ok {
		return
	}
	var req coordinator.UnloadRequest
	if !bindJSON(c, &req) {
		return
	}

	views, err := h.coord.UnloadCargoFromSpacecraft(c.Request.Context(), spacecraftID, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// GetManifest handles GET /api/spacecrafts/:id/manifest. With ?active=true
// only cargo currently aboard is listed.
func (h *Handler) GetManifest(c *gin.Context) {
	spacecraftID, ok := pathID(c, "id", "spacecraft")
	if !ok {
		return
	}

	var (
		views []coordinator.ManifestView
		err   error
	)
	if c.Query("active") == "true" {
		views, err = h.coord.ActiveCargo(c.Request.Context(), spacecraftID)
	} else {
		views, err = h.coord.SpacecraftManifest(c.Request.Context(), spacecraftID)
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// GetSpacecraftCapacity handles GET /api/spacecrafts/:id/capacity.
func (h *Handler) GetSpacecraftCapacity(c *gin.Context) {
	spacecraftID, ok := pathID(c, "id", "spacecraft")
	if !ok {
		return
	}

	view, err := h.coord.SpacecraftCapacity(c.Request.Context(), spacecraftID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetCriticalPending handles GET /api/manifests/critical-pending.
func (h *Handler) GetCriticalPending(c *gin.Context) {
	views, err := h.coord.CriticalPending(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// GetManifestEntry handles GET /api/manifests/:id.
func (h *Handler) GetManifestEntry(c *gin.Context) {
	entryID, ok := pathID(c, "id", "manifest")
	if !ok {
		return
	}

	view, err := h.coord.ManifestEntry(c.Request.Context(), entryID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// PutManifestStatus handles PUT /api/manifests/:id/status.
func (h *Handler) PutManifestStatus(c *gin.Context) {
	entryID, ok := pathID(c, "id", "manifest")
	if !ok {
		return
	}
	var req coordinator.StatusRequest
	if !bindJSON(c, &req) {
		return
	}
	status, err := model.ParseManifestStatus(req.Status)
	if err != nil {
		h.fail(c, err)
		return
	}

	view, err := h.coord.AdvanceManifest(c.Request.Context(), entryID, status)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
