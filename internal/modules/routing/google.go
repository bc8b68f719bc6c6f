// README: Google Directions provider.
package routing

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"cabsys/internal/types"
)

type GoogleProvider struct {
	client *maps.Client
	region string
}

func NewGoogleProvider(client *maps.Client, region string) *GoogleProvider {
	return &GoogleProvider{client: client, region: region}
}

func (p *GoogleProvider) Route(ctx context.Context, from, to types.Point) (Leg, error) {
	r := &maps.DirectionsRequest{
		Origin:      fmt.Sprintf("%f,%f", from.Lat, from.Lng),
		Destination: fmt.Sprintf("%f,%f", to.Lat, to.Lng),
		Mode:        maps.TravelModeDriving,
		Region:      p.region,
	}
	routes, _, err := p.client.Directions(ctx, r)
	if err != nil {
		return Leg{}, fmt.Errorf("directions api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return Leg{}, fmt.Errorf("directions api returned no routes")
	}

	route := routes[0]
	var out Leg
	for _, l := range route.Legs {
		out.Meters += float64(l.Meters)
		out.Seconds += l.Duration.Seconds()
	}
	path, err := route.OverviewPolyline.Decode()
	if err != nil {
		return Leg{}, fmt.Errorf("decode overview polyline: %w", err)
	}
	out.Geometry = make([]types.Point, 0, len(path))
	for _, ll := range path {
		out.Geometry = append(out.Geometry, types.Point{Lat: ll.Lat, Lng: ll.Lng})
	}
	return out, nil
}
