package place

import "time"

// PlaceType classifies a place as indoor or outdoor.
type PlaceType string

const (
	TypeIndoor  PlaceType = "INDOOR"
	TypeOutdoor PlaceType = "OUTDOOR"
)

// Place is a catalog entry, pre-joined with its review aggregates and
// primary photo.
type Place struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	Address       string    `json:"address"`
	Latitude      *float64  `json:"latitude,omitempty"`
	Longitude     *float64  `json:"longitude,omitempty"`
	PlaceType     PlaceType `json:"place_type"`
	MinAge        int       `json:"min_age"`
	MaxAge        int       `json:"max_age"`
	AverageRating float64   `json:"average_rating"`
	TotalReviews  int       `json:"total_reviews"`
	Price         *float64  `json:"price,omitempty"`
	PhotoURL      *string   `json:"photo_url,omitempty"`
	CreatedAt     time.Time `json:"-"`
	UpdatedAt     time.Time `json:"-"`
}

// UserProfile holds the user attributes the ranking engine reads.
type UserProfile struct {
	ID           int    `json:"id"`
	NumberOfKids int    `json:"number_of_kids"`
	Address      string `json:"address"`
}

// Location is a resolved geographic position in decimal degrees.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// RankedPlace is a Place annotated with its match score and distance for
// one user. Constructed fresh per ranking pass, never persisted.
type RankedPlace struct {
	Place
	MatchScore   int      `json:"match_score"`
	AgeMatch     bool     `json:"age_match"`
	DistanceKm   *float64 `json:"distance_km,omitempty"`
	DistanceText string   `json:"distance_text"`
	IsFavorite   bool     `json:"is_favorite"`
}

// Snapshot is the immutable input tuple for one ranking pass: everything
// the pipeline reads, captured at a single point in time.
type Snapshot struct {
	Catalog   []Place
	Profile   *UserProfile
	Location  *Location
	Favorites map[int]struct{}
}

// Favorite is a persisted user-to-place bookmark.
type Favorite struct {
	UserID    int       `json:"user_id"`
	PlaceID   int       `json:"place_id"`
	CreatedAt time.Time `json:"created_at"`
}
