package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kidspot/kidspot-server/internal/place"
)

// ErrDuplicateFavorite reports an insert racing an existing (user, place)
// favorite pair. Callers surface it differently from generic failures.
var ErrDuplicateFavorite = errors.New("favorite already exists")

// uniqueViolation is the Postgres SQLSTATE for unique constraint errors.
const uniqueViolation = "23505"

// Querier abstracts the subset of pgxpool.Pool used by Repository.
// This allows injection of a mock in tests.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository provides database access for the place catalog, user
// profiles, and favorites.
type Repository struct {
	q Querier
}

// NewRepository constructs a Repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{q: pool}
}

// NewRepositoryWithQuerier constructs a Repository with a custom Querier (for tests).
func NewRepositoryWithQuerier(q Querier) *Repository {
	return &Repository{q: q}
}

// ListActivePlaces returns every active place joined with its review
// aggregates and primary photo. Places without reviews carry a zero
// rating and zero review count.
func (r *Repository) ListActivePlaces(ctx context.Context) ([]place.Place, error) {
	const q = `
		SELECT p.id, p.name, p.address, p.latitude, p.longitude, p.place_type,
		       p.min_age, p.max_age,
		       COALESCE(AVG(rv.rating), 0)::float8,
		       COUNT(rv.id)::int,
		       p.price, pm.url, p.created_at, p.updated_at
		FROM places p
		LEFT JOIN reviews rv ON rv.place_id = p.id
		LEFT JOIN place_media pm ON pm.place_id = p.id AND pm.is_primary
		WHERE p.active
		GROUP BY p.id, pm.url
		ORDER BY p.id
	`

	rows, err := r.q.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("querying active places: %w", err)
	}
	defer rows.Close()

	var places []place.Place
	for rows.Next() {
		var p place.Place
		if err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Address,
			&p.Latitude,
			&p.Longitude,
			&p.PlaceType,
			&p.MinAge,
			&p.MaxAge,
			&p.AverageRating,
			&p.TotalReviews,
			&p.Price,
			&p.PhotoURL,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning place row: %w", err)
		}
		places = append(places, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating place rows: %w", err)
	}

	return places, nil
}

// GetUserProfile retrieves a user profile by id.
// Returns nil, nil when the user is not found.
func (r *Repository) GetUserProfile(ctx context.Context, userID int) (*place.UserProfile, error) {
	const q = `
		SELECT id, number_of_kids, address
		FROM users
		WHERE id = $1
	`

	var u place.UserProfile
	err := r.q.QueryRow(ctx, q, userID).Scan(&u.ID, &u.NumberOfKids, &u.Address)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying profile for user %d: %w", userID, err)
	}

	return &u, nil
}

// ListFavoritePlaceIDs returns the set of place ids the user has favorited.
func (r *Repository) ListFavoritePlaceIDs(ctx context.Context, userID int) (map[int]struct{}, error) {
	const q = `
		SELECT place_id
		FROM favorites
		WHERE user_id = $1
	`

	rows, err := r.q.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("querying favorites for user %d: %w", userID, err)
	}
	defer rows.Close()

	ids := make(map[int]struct{})
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning favorite row: %w", err)
		}
		ids[id] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating favorite rows: %w", err)
	}

	return ids, nil
}

// ToggleFavorite flips the favorite state of (userID, placeID): an
// existing pair is deleted, a missing one is created. The returned bool
// is the resulting state — true when the pair is now favorited.
//
// The favorites table carries a UNIQUE (user_id, place_id) constraint, so
// a duplicate insert racing this call fails with ErrDuplicateFavorite
// rather than creating a second row.
func (r *Repository) ToggleFavorite(ctx context.Context, userID, placeID int) (bool, error) {
	const del = `
		DELETE FROM favorites
		WHERE user_id = $1 AND place_id = $2
	`

	tag, err := r.q.Exec(ctx, del, userID, placeID)
	if err != nil {
		return false, fmt.Errorf("deleting favorite (%d,%d): %w", userID, placeID, err)
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	const ins = `
		INSERT INTO favorites (user_id, place_id)
		VALUES ($1, $2)
	`

	if _, err := r.q.Exec(ctx, ins, userID, placeID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return true, ErrDuplicateFavorite
		}
		return false, fmt.Errorf("inserting favorite (%d,%d): %w", userID, placeID, err)
	}

	return true, nil
}
