// README: OSRM driving-route provider.
package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"cabsys/internal/types"
)

type OSRMProvider struct {
	baseURL string
	client  *http.Client
}

func NewOSRMProvider(baseURL string, client *http.Client) *OSRMProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &OSRMProvider{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

func (p *OSRMProvider) Route(ctx context.Context, from, to types.Point) (Leg, error) {
	// OSRM takes lng,lat pairs.
	url := fmt.Sprintf("%s/route/v1/driving/%s,%s;%s,%s?overview=full&geometries=geojson",
		p.baseURL, coord(from.Lng), coord(from.Lat), coord(to.Lng), coord(to.Lat))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Leg{}, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return Leg{}, fmt.Errorf("osrm request: %w", err)
	}
	defer resp.Body.Close()

	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Leg{}, fmt.Errorf("decode osrm response (status %d): %w", resp.StatusCode, err)
	}
	if body.Code != "Ok" {
		return Leg{}, fmt.Errorf("osrm code %q", body.Code)
	}
	if len(body.Routes) == 0 {
		return Leg{}, fmt.Errorf("osrm returned no routes")
	}
	r := body.Routes[0]
	geom := make([]types.Point, 0, len(r.Geometry.Coordinates))
	for _, c := range r.Geometry.Coordinates {
		if len(c) < 2 {
			continue
		}
		geom = append(geom, types.Point{Lat: c[1], Lng: c[0]})
	}
	return Leg{Meters: r.Distance, Seconds: r.Duration, Geometry: geom}, nil
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
