package routing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"googlemaps.github.io/maps"

	"github.com/jaivikpatel2001/sendme/pkg/config"
	"github.com/jaivikpatel2001/sendme/pkg/models"
)

type fakeProvider struct {
	routes []maps.Route
	err    error
	calls  int
}

func (f *fakeProvider) Directions(context.Context, *maps.DirectionsRequest) ([]maps.Route, []maps.GeocodedWaypoint, error) {
	f.calls++
	return f.routes, nil, f.err
}

func testRoutingConfig() config.RoutingConfig {
	return config.RoutingConfig{RoadFactor: 1.25, FallbackSpeedKmh: 30}
}

var (
	sfDowntown = models.Location{Latitude: 37.7749, Longitude: -122.4194}
	oakland    = models.Location{Latitude: 37.8044, Longitude: -122.2712}
)

func TestEstimate_UsesProviderWhenAvailable(t *testing.T) {
	provider := &fakeProvider{
		routes: []maps.Route{{
			Legs: []*maps.Leg{
				{Distance: maps.Distance{Meters: 8000}, Duration: 10 * time.Minute},
				{Distance: maps.Distance{Meters: 4000}, Duration: 5 * time.Minute},
			},
		}},
	}
	svc := NewServiceWithProvider(provider, testRoutingConfig())

	est, err := svc.Estimate(context.Background(), sfDowntown, oakland, nil)
	require.NoError(t, err)

	assert.Equal(t, 12.0, est.DistanceKm)
	assert.Equal(t, 15, est.DurationMin)
	assert.False(t, est.Fallback)
}

func TestEstimate_ProviderErrorNeverEscapes(t *testing.T) {
	provider := &fakeProvider{err: errors.New("quota exceeded")}
	svc := NewServiceWithProvider(provider, testRoutingConfig())

	est, err := svc.Estimate(context.Background(), sfDowntown, oakland, nil)
	require.NoError(t, err)
	assert.True(t, est.Fallback)
	assert.Greater(t, est.DistanceKm, 0.0)
	assert.Greater(t, est.DurationMin, 0)
}

func TestEstimate_FallbackIsDeterministic(t *testing.T) {
	svc := NewServiceWithProvider(nil, testRoutingConfig())
	ctx := context.Background()
	waypoints := []models.Location{{Latitude: 37.79, Longitude: -122.39}}

	first, err := svc.Estimate(ctx, sfDowntown, oakland, waypoints)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := svc.Estimate(ctx, sfDowntown, oakland, waypoints)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestEstimate_FallbackAppliesRoadFactor(t *testing.T) {
	svc := NewServiceWithProvider(nil, testRoutingConfig())

	est, err := svc.Estimate(context.Background(), sfDowntown, oakland, nil)
	require.NoError(t, err)

	straight := HaversineKm(sfDowntown.Latitude, sfDowntown.Longitude, oakland.Latitude, oakland.Longitude)
	assert.InDelta(t, straight*1.25, est.DistanceKm, 0.001)
}

func TestEstimate_WaypointsExtendDistance(t *testing.T) {
	svc := NewServiceWithProvider(nil, testRoutingConfig())
	ctx := context.Background()

	direct, err := svc.Estimate(ctx, sfDowntown, oakland, nil)
	require.NoError(t, err)

	detour := []models.Location{{Latitude: 37.60, Longitude: -122.40}}
	viaDetour, err := svc.Estimate(ctx, sfDowntown, oakland, detour)
	require.NoError(t, err)

	assert.Greater(t, viaDetour.DistanceKm, direct.DistanceKm)
}

func TestHaversineKm_KnownDistance(t *testing.T) {
	// SF downtown to Oakland is roughly 13 km great-circle
	km := HaversineKm(sfDowntown.Latitude, sfDowntown.Longitude, oakland.Latitude, oakland.Longitude)
	assert.InDelta(t, 13.0, km, 1.0)

	assert.Equal(t, 0.0, HaversineKm(37.77, -122.41, 37.77, -122.41))
}
