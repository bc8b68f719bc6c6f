// README: Place search results and provider/cache contracts.
package geocoding

import (
	"context"
	"time"
)

// MinQueryLength is the shortest query forwarded to a provider.
const MinQueryLength = 3

type Place struct {
	DisplayName string  `json:"displayName"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	PlaceID     string  `json:"placeId"`
}

// Result is never an error: provider failures surface as a Notice.
type Result struct {
	Places []Place `json:"places"`
	Notice string  `json:"notice,omitempty"`
}

// Suggestion is a Result for a per-session autocomplete query. Stale is true
// when a newer query from the same session superseded this one.
type Suggestion struct {
	Result
	Stale bool `json:"stale"`
}

type Provider interface {
	Search(ctx context.Context, query, country string, limit int) ([]Place, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
}
