package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cargo-inventory-backend/internal/mw"
)

// RouterOptions carries the optional middleware and endpoints. Nil fields
// are skipped.
type RouterOptions struct {
	Limiter *mw.IPRateLimiter
	Cache   *mw.ResponseCache
	Metrics http.Handler
}

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	r := gin.Default()
	r.Use(mw.RequestID())

	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	caching := func(c *gin.Context) { c.Next() }
	api := r.Group("/api")
	if opts.Limiter != nil {
		api.Use(mw.RateLimiter(opts.Limiter))
	}
	if opts.Cache != nil {
		api.Use(opts.Cache.Invalidate())
		caching = opts.Cache.Read()
	}
	{
		api.POST("/cargo-storage", h.AddCargoToStorage)
		api.PUT("/cargo-storage/:id/quantity", h.CorrectQuantity)
		api.GET("/cargo-storage/inventory-check-due", caching, h.GetInventoryCheckDue)
		api.GET("/cargo-storage/:id", caching, h.GetStorageEntry)

		api.GET("/storage-units/:id/storage", caching, h.GetStorageContents)
		api.GET("/storage-units/:id/capacity", caching, h.GetStorageUnitCapacity)
		api.GET("/storage-units/:id/total", caching, h.GetStorageUnitTotal)
		api.POST("/storage-units/:id/recompute", h.RecomputeStorageUnit)

		api.GET("/cargo/:id/total", caching, h.GetCargoTotal)

		api.POST("/spacecrafts/:id/load-cargo", h.LoadCargo)
		api.POST("/spacecrafts/:id/unload-cargo", h.UnloadCargo)
		api.GET("/spacecrafts/:id/manifest", caching, h.GetManifest)
		api.GET("/spacecrafts/:id/capacity", caching, h.GetSpacecraftCapacity)

		api.GET("/manifests/critical-pending", caching, h.GetCriticalPending)
		api.GET("/manifests/:id", caching, h.GetManifestEntry)
		api.PUT("/manifests/:id/status", h.PutManifestStatus)

		api.POST("/inventory-transactions/transfer", h.Transfer)
		api.GET("/inventory-transactions/cargo/:cargoId", caching, h.GetCargoHistory)
		api.GET("/inventory-transactions/storage-unit/:id", caching, h.GetStorageUnitHistory)
		api.GET("/inventory-transactions/spacecraft/:id", caching, h.GetSpacecraftHistory)
		api.GET("/inventory-transactions/net", caching, h.GetLedgerNet)
	}

	return r
}
