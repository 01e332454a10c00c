package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"todolists/internal/core/domain"
	"todolists/internal/core/port"
)

const (
	geofenceKeyPrefix = "geofence:"
	lastLocationKey   = "location:last"
	earthRadiusMeters = 6371000.0
)

type Coordinates struct {
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

type geofenceEntry struct {
	Location domain.Location `json:"location"`
	Inside   bool            `json:"inside"`
}

// GeofenceMonitor keeps enter-only circular regions that never expire and
// turns reported device locations into transition signals.
type GeofenceMonitor struct {
	cache      port.CacheRepository
	dispatcher port.Dispatcher
	logger     *zap.Logger

	// serializes read-modify-write of the inside flags
	mu sync.Mutex
}

func NewGeofenceMonitor(cache port.CacheRepository, dispatcher port.Dispatcher, logger *zap.Logger) *GeofenceMonitor {
	return &GeofenceMonitor{
		cache:      cache,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

var _ port.GeofenceService = (*GeofenceMonitor)(nil)

// AddGeofence registers the region for key, replacing any previous one. When
// the last known location already lies inside it an enter transition fires.
func (g *GeofenceMonitor) AddGeofence(ctx context.Context, key int64, location domain.Location) error {
	g.mu.Lock()

	entry := geofenceEntry{Location: location}

	last, known, err := g.lastLocation(ctx)
	if err != nil {
		g.mu.Unlock()
		return err
	}

	if known {
		entry.Inside = contains(location, last)
	}

	err = g.save(ctx, key, entry)
	g.mu.Unlock()

	if err != nil {
		return err
	}

	g.logger.Debug("Geofence added", zap.Int64("key", key), zap.Float64("radius", location.Radius))

	if entry.Inside {
		return g.dispatcher.Submit(ctx, domain.GeofenceTransition{
			Transition: domain.GeofenceEnter,
			ListIDs:    []int64{key},
		})
	}

	return nil
}

func (g *GeofenceMonitor) RemoveGeofence(ctx context.Context, key int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.cache.Delete(ctx, geofenceKey(key)); err != nil {
		return fmt.Errorf("remove geofence %d: %w", key, err)
	}

	return nil
}

// Geofences returns the registered regions by key.
func (g *GeofenceMonitor) Geofences(ctx context.Context) (map[int64]domain.Location, error) {
	entries, err := g.entries(ctx)
	if err != nil {
		return nil, err
	}

	regions := make(map[int64]domain.Location, len(entries))
	for key, entry := range entries {
		regions[key] = entry.Location
	}

	return regions, nil
}

// ReportLocation records the device position and submits one signal per
// transition kind for the regions it entered or left.
func (g *GeofenceMonitor) ReportLocation(ctx context.Context, position Coordinates) error {
	g.mu.Lock()

	raw, err := json.Marshal(position)
	if err != nil {
		g.mu.Unlock()
		return err
	}

	if err := g.cache.Set(ctx, lastLocationKey, raw, 0); err != nil {
		g.mu.Unlock()
		return err
	}

	entries, err := g.entries(ctx)
	if err != nil {
		g.mu.Unlock()
		return err
	}

	var entered, exited []int64

	for key, entry := range entries {
		inside := contains(entry.Location, position)
		if inside == entry.Inside {
			continue
		}

		entry.Inside = inside
		if err := g.save(ctx, key, entry); err != nil {
			g.mu.Unlock()
			return err
		}

		if inside {
			entered = append(entered, key)
		} else {
			exited = append(exited, key)
		}
	}

	g.mu.Unlock()

	for _, transition := range []struct {
		kind domain.GeofenceTransitionKind
		keys []int64
	}{{domain.GeofenceEnter, entered}, {domain.GeofenceExit, exited}} {
		if len(transition.keys) == 0 {
			continue
		}

		sort.Slice(transition.keys, func(i, j int) bool { return transition.keys[i] < transition.keys[j] })

		g.logger.Info("Geofence transition",
			zap.String("transition", string(transition.kind)),
			zap.Int64s("list_ids", transition.keys))

		if err := g.dispatcher.Submit(ctx, domain.GeofenceTransition{
			Transition: transition.kind,
			ListIDs:    transition.keys,
		}); err != nil {
			return err
		}
	}

	return nil
}

func (g *GeofenceMonitor) lastLocation(ctx context.Context) (Coordinates, bool, error) {
	raw, err := g.cache.Get(ctx, lastLocationKey)
	if errors.Is(err, port.ErrCacheMiss) {
		return Coordinates{}, false, nil
	}

	if err != nil {
		return Coordinates{}, false, err
	}

	var position Coordinates
	if err := json.Unmarshal(raw, &position); err != nil {
		return Coordinates{}, false, err
	}

	return position, true, nil
}

func (g *GeofenceMonitor) entries(ctx context.Context) (map[int64]geofenceEntry, error) {
	raw, err := g.cache.Scan(ctx, geofenceKeyPrefix)
	if err != nil {
		return nil, err
	}

	entries := make(map[int64]geofenceEntry, len(raw))

	for cacheKey, value := range raw {
		key, err := strconv.ParseInt(strings.TrimPrefix(cacheKey, geofenceKeyPrefix), 10, 64)
		if err != nil {
			g.logger.Warn("Skipping malformed geofence entry", zap.String("key", cacheKey))
			continue
		}

		var entry geofenceEntry
		if err := json.Unmarshal(value, &entry); err != nil {
			g.logger.Warn("Skipping malformed geofence entry", zap.String("key", cacheKey), zap.Error(err))
			continue
		}

		entries[key] = entry
	}

	return entries, nil
}

func (g *GeofenceMonitor) save(ctx context.Context, key int64, entry geofenceEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	if err := g.cache.Set(ctx, geofenceKey(key), raw, 0); err != nil {
		return fmt.Errorf("register geofence %d: %w", key, err)
	}

	return nil
}

func contains(region domain.Location, position Coordinates) bool {
	return Distance(region.Latitude, region.Longitude, position.Latitude, position.Longitude) <= region.Radius
}

// Distance is the great-circle distance in meters between two points.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)

	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

func geofenceKey(key int64) string {
	return geofenceKeyPrefix + strconv.FormatInt(key, 10)
}
