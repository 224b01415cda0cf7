package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// PlaceCandidate is one eating place normalized from any provider.
type PlaceCandidate struct {
	Title    string   `json:"title"`
	Category string   `json:"category"`
	Address  string   `json:"address"`
	Position Position `json:"position"`
	Distance *float64 `json:"distance,omitempty"` // meters from origin, geodetic only
}

// MarshalJSON adds the position_system tag next to the position.
func (p PlaceCandidate) MarshalJSON() ([]byte, error) {
	type alias PlaceCandidate
	return json.Marshal(struct {
		alias
		PositionSystem PositionSystem `json:"position_system"`
	}{alias(p), p.Position.System()})
}

// RecommendationQuery is built once per request and handed to a searcher.
type RecommendationQuery struct {
	Origin     Coordinate
	RegionHint string // empty when no hint was resolved
	Keyword    string
}

// Strategy decides how many candidates a recommendation returns.
type Strategy string

const (
	StrategyAll       Strategy = "ALL"
	StrategyRandomOne Strategy = "RANDOM_ONE"
)

// ParseStrategy accepts the API spellings of a strategy. An empty value yields def.
func ParseStrategy(raw string, def Strategy) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return def, nil
	case "all":
		return StrategyAll, nil
	case "random", "random_one", "one":
		return StrategyRandomOne, nil
	default:
		return "", NewBadInput("strategy must be one of: all, random")
	}
}

// State is a step of the recommendation pipeline.
type State string

const (
	StateStart      State = "START"
	StateGeocoding  State = "GEOCODING"
	StateSearching  State = "SEARCHING"
	StateValidating State = "VALIDATING"
	StateSelecting  State = "SELECTING"
	StateEmpty      State = "EMPTY"
	StateDone       State = "DONE"
	StateFailed     State = "FAILED"
)

// Terminal reports whether the pipeline stops in s.
func (s State) Terminal() bool {
	return s == StateEmpty || s == StateDone || s == StateFailed
}

// Recommendation is the outcome of one request. Items is never nil.
type Recommendation struct {
	ID         string           `json:"id"`
	State      State            `json:"state"`
	Strategy   Strategy         `json:"strategy"`
	Provider   string           `json:"provider"`
	Origin     Coordinate       `json:"origin"`
	RegionHint string           `json:"region_hint,omitempty"`
	Items      []PlaceCandidate `json:"items"`
}

// RecommendationEvent is published after every terminal state.
// The origin is reduced to a coarse H3 cell.
type RecommendationEvent struct {
	ID         string    `json:"id"`
	Time       time.Time `json:"time"`
	State      State     `json:"state"`
	Strategy   Strategy  `json:"strategy"`
	Provider   string    `json:"provider"`
	OriginCell string    `json:"origin_cell,omitempty"`
	Items      int       `json:"items"`
	Cause      ErrorKind `json:"cause,omitempty"`
}
