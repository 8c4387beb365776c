package coordinator

// AddToStorageRequest places cargo into a storage unit.
type AddToStorageRequest struct {
	StorageUnitID int64  `json:"storageUnitId" binding:"required"`
	CargoID       int64  `json:"cargoId" binding:"required"`
	Quantity      int    `json:"quantity"`
	UserID        *int64 `json:"userId"`
}

// CorrectQuantityRequest records the result of an inventory check.
type CorrectQuantityRequest struct {
	Quantity int    `json:"quantity"`
	UserID   *int64 `json:"userId"`
}

// LoadItem is one cargo line in a load request.
type LoadItem struct {
	CargoID       int64  `json:"cargoId"`
	StorageUnitID int64  `json:"storageUnitId"`
	Quantity      int    `json:"quantity"`
	Priority      string `json:"priority"`
}

// LoadRequest carries an optional single item plus an optional batch.
// Both are applied in one transaction.
type LoadRequest struct {
	CargoID        *int64     `json:"cargoId"`
	StorageUnitID  *int64     `json:"storageUnitId"`
	Quantity       *int       `json:"quantity"`
	Priority       string     `json:"priority"`
	LoadedByUserID int64      `json:"loadedByUserId" binding:"required"`
	CargoItems     []LoadItem `json:"cargoItems"`
}

// UnloadRequest unloads everything aboard a spacecraft. The optional
// references are validated even though unloading does not use them.
type UnloadRequest struct {
	CargoID          *int64 `json:"cargoId"`
	StorageUnitID    *int64 `json:"storageUnitId"`
	LoadedByUserID   *int64 `json:"loadedByUserId"`
	UnloadedByUserID int64  `json:"unloadedByUserId" binding:"required"`
}

// TransferRequest moves cargo between two locations.
type TransferRequest struct {
	CargoID           int64  `json:"cargoId" binding:"required"`
	Quantity          int    `json:"quantity"`
	FromStorageUnitID *int64 `json:"fromStorageUnitId"`
	ToStorageUnitID   *int64 `json:"toStorageUnitId"`
	FromSpacecraftID  *int64 `json:"fromSpacecraftId"`
	ToSpacecraftID    *int64 `json:"toSpacecraftId"`
	PerformedByUserID int64  `json:"performedByUserId" binding:"required"`
	ReasonCode        string `json:"reasonCode"`
	ReferenceNumber   string `json:"referenceNumber"`
	Notes             string `json:"notes"`
}

// StatusRequest advances a single manifest entry.
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}
