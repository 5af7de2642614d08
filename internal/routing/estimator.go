package routing

import (
	"context"
	"fmt"
	"math"

	"github.com/jaivikpatel2001/sendme/pkg/config"
	"github.com/jaivikpatel2001/sendme/pkg/logger"
	"github.com/jaivikpatel2001/sendme/pkg/models"
	"go.uber.org/zap"
	"googlemaps.github.io/maps"
)

// RouteEstimate holds computed route metrics for a trip
type RouteEstimate struct {
	DistanceKm  float64 `json:"distance_km"`
	DurationMin int     `json:"duration_min"`
	// Fallback indicates the estimate came from the great-circle
	// fallback rather than the routing provider
	Fallback bool `json:"fallback,omitempty"`
}

// Estimator converts two geo-coordinates plus optional waypoints into a
// travel distance and duration estimate
type Estimator interface {
	Estimate(ctx context.Context, origin, destination models.Location, waypoints []models.Location) (RouteEstimate, error)
}

// Provider is the subset of the Google Maps client used by the estimator
type Provider interface {
	Directions(ctx context.Context, r *maps.DirectionsRequest) ([]maps.Route, []maps.GeocodedWaypoint, error)
}

// Service estimates routes via the Google Maps Directions API with a
// deterministic great-circle fallback. The provider call is bounded by
// cfg.Timeout so fare computation always terminates.
type Service struct {
	provider Provider
	cfg      config.RoutingConfig
}

// NewService creates a routing service backed by the Google Maps API.
// With an empty API key the service runs on the fallback only.
func NewService(cfg config.RoutingConfig) (*Service, error) {
	s := &Service{cfg: cfg}

	if cfg.GoogleMapsAPIKey != "" {
		client, err := maps.NewClient(maps.WithAPIKey(cfg.GoogleMapsAPIKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create maps client: %w", err)
		}
		s.provider = client
	}

	return s, nil
}

// NewServiceWithProvider creates a routing service with a custom provider
func NewServiceWithProvider(provider Provider, cfg config.RoutingConfig) *Service {
	return &Service{provider: provider, cfg: cfg}
}

// Estimate returns route metrics for origin -> waypoints... -> destination.
// Provider errors are recovered locally via the fallback and never
// surfaced to the caller.
func (s *Service) Estimate(ctx context.Context, origin, destination models.Location, waypoints []models.Location) (RouteEstimate, error) {
	if s.provider != nil {
		est, err := s.estimateViaProvider(ctx, origin, destination, waypoints)
		if err == nil {
			return est, nil
		}
		logger.Warn("routing provider failed, using great-circle fallback", zap.Error(err))
	}

	return s.fallbackEstimate(origin, destination, waypoints), nil
}

func (s *Service) estimateViaProvider(ctx context.Context, origin, destination models.Location, waypoints []models.Location) (RouteEstimate, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	req := &maps.DirectionsRequest{
		Origin:      latLng(origin),
		Destination: latLng(destination),
		Mode:        maps.TravelModeDriving,
	}
	for _, wp := range waypoints {
		req.Waypoints = append(req.Waypoints, latLng(wp))
	}

	routes, _, err := s.provider.Directions(ctx, req)
	if err != nil {
		return RouteEstimate{}, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return RouteEstimate{}, fmt.Errorf("no route found")
	}

	var meters int
	var seconds float64
	for _, leg := range routes[0].Legs {
		meters += leg.Distance.Meters
		seconds += leg.Duration.Seconds()
	}

	return RouteEstimate{
		DistanceKm:  float64(meters) / 1000,
		DurationMin: int(math.Ceil(seconds / 60)),
	}, nil
}

// fallbackEstimate sums great-circle leg distances, scales by the
// configured road factor, and derives duration from an assumed average
// speed. Deterministic for identical inputs.
func (s *Service) fallbackEstimate(origin, destination models.Location, waypoints []models.Location) RouteEstimate {
	points := make([]models.Location, 0, len(waypoints)+2)
	points = append(points, origin)
	points = append(points, waypoints...)
	points = append(points, destination)

	var km float64
	for i := 1; i < len(points); i++ {
		km += HaversineKm(points[i-1].Latitude, points[i-1].Longitude, points[i].Latitude, points[i].Longitude)
	}

	roadFactor := s.cfg.RoadFactor
	if roadFactor <= 0 {
		roadFactor = 1.25
	}
	speed := s.cfg.FallbackSpeedKmh
	if speed <= 0 {
		speed = 30
	}

	km *= roadFactor

	return RouteEstimate{
		DistanceKm:  km,
		DurationMin: int(math.Ceil(km / speed * 60)),
		Fallback:    true,
	}
}

func latLng(l models.Location) string {
	return fmt.Sprintf("%f,%f", l.Latitude, l.Longitude)
}

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance in kilometres between
// two points specified in decimal degrees.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLng := degreesToRadians(lng2 - lng1)

	rLat1 := degreesToRadians(lat1)
	rLat2 := degreesToRadians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
