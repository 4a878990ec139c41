package place

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// profileLoader is the interface satisfied by storage.Repository.
type profileLoader interface {
	GetUserProfile(ctx context.Context, userID int) (*UserProfile, error)
}

// favoritesLoader is the interface satisfied by storage.Repository.
type favoritesLoader interface {
	ListFavoritePlaceIDs(ctx context.Context, userID int) (map[int]struct{}, error)
}

// locator is the interface satisfied by GeoClient.
type locator interface {
	Locate(ctx context.Context, ip string) (*Location, error)
}

// SnapshotLoader assembles the per-request ranking inputs in parallel.
type SnapshotLoader struct {
	profiles  profileLoader
	favorites favoritesLoader
	geo       locator
	log       *slog.Logger
}

// NewSnapshotLoader constructs a SnapshotLoader.
func NewSnapshotLoader(profiles profileLoader, favorites favoritesLoader, geo locator, log *slog.Logger) *SnapshotLoader {
	return &SnapshotLoader{profiles: profiles, favorites: favorites, geo: geo, log: log}
}

// Load fetches the user profile, favorites set, and (when loc is nil and
// ip is non-empty) a geolocation fix, all in parallel. Every branch is
// non-fatal: a failed load leaves its field nil or empty and the ranking
// pass degrades accordingly. The catalog is attached by the caller, which
// owns the cache-or-database decision.
func (l *SnapshotLoader) Load(ctx context.Context, userID int, loc *Location, ip string) Snapshot {
	g, gCtx := errgroup.WithContext(ctx)

	snap := Snapshot{Location: loc}

	g.Go(func() error {
		profile, err := l.profiles.GetUserProfile(gCtx, userID)
		if err != nil {
			l.log.Warn("profile load failed", "user_id", userID, "err", err)
			return nil
		}
		snap.Profile = profile
		return nil
	})

	g.Go(func() error {
		favs, err := l.favorites.ListFavoritePlaceIDs(gCtx, userID)
		if err != nil {
			l.log.Warn("favorites load failed", "user_id", userID, "err", err)
			return nil
		}
		snap.Favorites = favs
		return nil
	})

	if loc == nil && ip != "" {
		g.Go(func() error {
			resolved, err := l.geo.Locate(gCtx, ip)
			if err != nil {
				l.log.Warn("geolocation failed", "ip", ip, "err", err)
				return nil
			}
			snap.Location = resolved
			return nil
		})
	}

	// Branches never return errors; Wait only synchronizes.
	_ = g.Wait()

	return snap
}
