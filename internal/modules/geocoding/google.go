// README: Google Geocoding API search provider.
package geocoding

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"
)

type GoogleProvider struct {
	client *maps.Client
}

func NewGoogleProvider(client *maps.Client) *GoogleProvider {
	return &GoogleProvider{client: client}
}

func (p *GoogleProvider) Search(ctx context.Context, query, country string, limit int) ([]Place, error) {
	r := &maps.GeocodingRequest{Address: query}
	if country != "" {
		r.Components = map[maps.Component]string{maps.ComponentCountry: country}
		r.Region = country
	}
	results, err := p.client.Geocode(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("geocoding api error: %w", err)
	}
	out := make([]Place, 0, len(results))
	for _, res := range results {
		out = append(out, Place{
			DisplayName: res.FormattedAddress,
			Lat:         res.Geometry.Location.Lat,
			Lon:         res.Geometry.Location.Lng,
			PlaceID:     res.PlaceID,
		})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
