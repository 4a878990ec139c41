package api

import (
	"context"

	"github.com/kidspot/kidspot-server/internal/place"
)

// CatalogRepo defines the storage operations needed by handlers.
type CatalogRepo interface {
	ListActivePlaces(ctx context.Context) ([]place.Place, error)
	ToggleFavorite(ctx context.Context, userID, placeID int) (bool, error)
}

// CatalogCache defines the cache operations needed by handlers.
type CatalogCache interface {
	GetCatalog(ctx context.Context) ([]place.Place, error)
	SetCatalog(ctx context.Context, places []place.Place) error
	InvalidateCatalog(ctx context.Context) error
}

// SnapshotLoader assembles the non-catalog ranking inputs for one request.
type SnapshotLoader interface {
	Load(ctx context.Context, userID int, loc *place.Location, ip string) place.Snapshot
}
