package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kidspot/kidspot-server/internal/place"
	"github.com/kidspot/kidspot-server/internal/rank"
	"github.com/kidspot/kidspot-server/internal/storage"
)

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	repo   CatalogRepo
	cache  CatalogCache
	loader SnapshotLoader
	log    *slog.Logger
}

// NewHandlers constructs Handlers with all required dependencies.
func NewHandlers(repo CatalogRepo, cache CatalogCache, loader SnapshotLoader, log *slog.Logger) *Handlers {
	return &Handlers{
		repo:   repo,
		cache:  cache,
		loader: loader,
		log:    log,
	}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// parseLocation reads optional lat/lon query parameters. Both must be
// present and valid for a location to be returned.
func parseLocation(r *http.Request) *place.Location {
	latStr := r.URL.Query().Get("lat")
	lonStr := r.URL.Query().Get("lon")
	if latStr == "" || lonStr == "" {
		return nil
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return nil
	}

	return &place.Location{Latitude: lat, Longitude: lon}
}

// clientIP extracts the remote host from the request for IP geolocation.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// loadCatalog returns the active catalog, preferring the cache and
// falling back to the database. Cache failures degrade to a DB read.
func (h *Handlers) loadCatalog(ctx context.Context) ([]place.Place, error) {
	cached, err := h.cache.GetCatalog(ctx)
	if err != nil {
		h.log.Error("catalog cache get failed", "err", err)
	}
	if cached != nil {
		return cached, nil
	}

	places, err := h.repo.ListActivePlaces(ctx)
	if err != nil {
		return nil, err
	}

	if err := h.cache.SetCatalog(ctx, places); err != nil {
		h.log.Warn("catalog cache set failed after db hit", "err", err)
	}

	return places, nil
}

// GetRecommendations handles GET /api/v1/users/{userID}/recommendations.
//
// Optional query parameters: lat/lon (decimal degrees, both required to
// take effect), pages (number of pages loaded so far, default 1). When no
// location is supplied the client IP is geolocated on a best-effort
// basis; ranking proceeds without distances if that fails.
func (h *Handlers) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(chi.URLParam(r, "userID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user id"})
		return
	}

	pages := 1
	if p := r.URL.Query().Get("pages"); p != "" {
		pages, err = strconv.Atoi(p)
		if err != nil || pages < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid pages parameter"})
			return
		}
	}

	snap := h.loader.Load(r.Context(), userID, parseLocation(r), clientIP(r))

	catalog, err := h.loadCatalog(r.Context())
	if err != nil {
		// Missing input degrades to an empty list rather than an error.
		h.log.Error("catalog load failed", "user_id", userID, "err", err)
	}
	snap.Catalog = catalog

	writeJSON(w, http.StatusOK, rank.Rank(snap, pages))
}

// RefreshCatalog handles POST /api/v1/catalog/refresh.
// Drops the cached catalog and repopulates it from the database, so
// catalog edits show up before the TTL would have expired them.
func (h *Handlers) RefreshCatalog(w http.ResponseWriter, r *http.Request) {
	if err := h.cache.InvalidateCatalog(r.Context()); err != nil {
		h.log.Warn("catalog cache invalidate failed", "err", err)
	}

	places, err := h.repo.ListActivePlaces(r.Context())
	if err != nil {
		h.log.Error("catalog refresh failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to refresh catalog"})
		return
	}

	if err := h.cache.SetCatalog(r.Context(), places); err != nil {
		h.log.Warn("catalog cache set failed after refresh", "err", err)
	}

	writeJSON(w, http.StatusOK, map[string]int{"places": len(places)})
}

// ToggleFavorite handles POST /api/v1/users/{userID}/favorites/{placeID}/toggle.
//
// A duplicate-create race gets a distinct 409 so the client can tell the
// user the place was already favorited; everything else is a generic 500.
func (h *Handlers) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(chi.URLParam(r, "userID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user id"})
		return
	}
	placeID, err := strconv.Atoi(chi.URLParam(r, "placeID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid place id"})
		return
	}

	favorited, err := h.repo.ToggleFavorite(r.Context(), userID, placeID)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateFavorite) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "place is already favorited"})
			return
		}
		h.log.Error("favorite toggle failed", "user_id", userID, "place_id", placeID, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update favorite"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"favorited": favorited})
}

// HealthCheck pingers.
type dbPinger interface {
	Ping(ctx context.Context) error
}

type redisPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlerFunc returns an http.HandlerFunc that checks db and redis connectivity.
func HealthHandlerFunc(db dbPinger, redis redisPinger, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		dbStatus := "ok"
		redisStatus := "ok"

		if err := db.Ping(ctx); err != nil {
			log.Error("health check: db ping failed", "err", err)
			dbStatus = "error"
			status = http.StatusServiceUnavailable
		}

		if err := redis.Ping(ctx); err != nil {
			log.Error("health check: redis ping failed", "err", err)
			redisStatus = "error"
			status = http.StatusServiceUnavailable
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}

		writeJSON(w, status, map[string]string{
			"status": overall,
			"db":     dbStatus,
			"redis":  redisStatus,
		})
	}
}
