package events

import (
	"slices"
	"sync"
	"time"

	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch/model"
)

// State caches the last snapshot of each category for one device.
// Writers swap whole values under the write lock and readers copy the
// current value under the read lock. Values are copied on the way in and
// on the way out, so a cached snapshot is never modified after Set.
type State struct {
	mu sync.RWMutex

	volume  *model.Volume
	status  *model.Status
	presets []model.Preset
	zone    *model.ZoneStatus
	config  *model.Config

	updated map[Category]time.Time
}

// NewState creates an empty cache.
func NewState() *State {
	return &State{updated: make(map[Category]time.Time)}
}

func (s *State) touch(c Category) {
	s.updated[c] = time.Now()
}

// SetVolume replaces the cached volume.
func (s *State) SetVolume(v model.Volume) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = &v
	s.touch(CategoryVolume)
}

// Volume returns the cached volume, if any.
func (s *State) Volume() (model.Volume, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.volume == nil {
		return model.Volume{}, false
	}
	return *s.volume, true
}

// SetStatus replaces the cached now-playing status.
func (s *State) SetStatus(status *model.Status) {
	status = status.Clone()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	s.touch(CategoryStatus)
}

// Status returns a copy of the cached status or nil.
func (s *State) Status() *model.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status.Clone()
}

// SetPresets replaces the cached preset list. The slice is copied.
func (s *State) SetPresets(presets []model.Preset) {
	presets = slices.Clone(presets)
	if presets == nil {
		presets = []model.Preset{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.presets = presets
	s.touch(CategoryPresets)
}

// Presets returns a copy of the cached presets, nil if never loaded.
func (s *State) Presets() []model.Preset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.presets)
}

// SetZoneStatus replaces the cached zone. nil means the device is not in a
// zone.
func (s *State) SetZoneStatus(zone *model.ZoneStatus) {
	zone = zone.Clone()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zone = zone
	s.touch(CategoryZoneStatus)
}

// ZoneStatus returns a copy of the cached zone or nil.
func (s *State) ZoneStatus() *model.ZoneStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.zone.Clone()
}

// SetConfig replaces the cached device config.
func (s *State) SetConfig(cfg *model.Config) {
	cfg = cfg.Clone()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg
	s.touch(CategoryDeviceInfo)
}

// Config returns a copy of the cached device config or nil.
func (s *State) Config() *model.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config.Clone()
}

// UpdatedAt reports when category was last stored. The zero time means never.
func (s *State) UpdatedAt(c Category) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updated[c]
}
