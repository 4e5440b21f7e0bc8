package events

import (
	"context"
	"errors"
	"log"
	"slices"
	"sync"

	"github.com/beevik/etree"

	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch/model"
	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch/xmlq"
)

// Notification tags understood by the dispatcher.
const (
	EnvelopeTag          = "updates"
	ActionVolumeUpdated  = "volumeUpdated"
	ActionNowPlaying     = "nowPlayingUpdated"
	ActionPresetsUpdated = "presetsUpdated"
	ActionZoneUpdated    = "zoneUpdated"
	ActionInfoUpdated    = "infoUpdated"
)

// StateSink stores published snapshots. *State implements it.
type StateSink interface {
	SetVolume(model.Volume)
	SetStatus(*model.Status)
	SetPresets([]model.Preset)
	SetZoneStatus(*model.ZoneStatus)
	SetConfig(*model.Config)
}

// Refresher fetches the state that zone and info notifications only
// announce. A nil zone means the device is not in a zone.
type Refresher interface {
	FetchZoneStatus(ctx context.Context) (*model.ZoneStatus, error)
	FetchConfig(ctx context.Context) (*model.Config, error)
}

// Stats counts frames seen by a Dispatcher.
type Stats struct {
	Received       uint64            `json:"received"`
	Processed      uint64            `json:"processed"`
	Ignored        uint64            `json:"ignored"`
	Failed         uint64            `json:"failed"`
	ListenerFaults uint64            `json:"listener_faults"`
	ByAction       map[string]uint64 `json:"by_action"`
}

// Dispatcher turns notification frames into cache updates and listener
// calls. It holds no per-frame state.
type Dispatcher struct {
	state     StateSink
	refresher Refresher
	listeners *Listeners
	logger    *log.Logger

	mu    sync.Mutex
	stats Stats
}

// NewDispatcher wires a dispatcher. A nil logger uses log.Default().
func NewDispatcher(state StateSink, refresher Refresher, listeners *Listeners, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{
		state:     state,
		refresher: refresher,
		listeners: listeners,
		logger:    logger,
		stats:     Stats{ByAction: make(map[string]uint64)},
	}
}

// Dispatch processes one frame to completion. Malformed frames and failed
// refreshes are returned without touching the cache. Listener faults are
// returned too, after the cache has been updated.
func (d *Dispatcher) Dispatch(ctx context.Context, frame []byte) error {
	d.count(func(s *Stats) { s.Received++ })

	doc, err := xmlq.Parse(frame)
	if err != nil {
		d.count(func(s *Stats) { s.Failed++ })
		return err
	}

	root := doc.Root()
	if root.Tag != EnvelopeTag {
		d.count(func(s *Stats) { s.Ignored++ })
		return nil
	}

	// Only the first action is handled; devices send one per envelope.
	action := xmlq.FirstChildElement(root)
	if action == nil {
		d.count(func(s *Stats) { s.Ignored++ })
		return nil
	}

	handled, err := d.apply(ctx, doc, action)
	var listenerErr error
	switch {
	case err != nil && isListenerFault(err):
		listenerErr = err
	case err != nil:
		d.count(func(s *Stats) { s.Failed++ })
		return err
	}

	d.count(func(s *Stats) {
		if handled {
			s.Processed++
			s.ByAction[action.Tag]++
		} else {
			s.Ignored++
		}
	})
	return listenerErr
}

func (d *Dispatcher) apply(ctx context.Context, doc *etree.Document, action *etree.Element) (bool, error) {
	switch action.Tag {
	case ActionVolumeUpdated:
		vol, err := model.ParseVolume(xmlq.FirstChildElement(action))
		if err != nil {
			return false, err
		}
		d.state.SetVolume(vol)
		return true, d.fanout(d.listeners.Volume.Dispatch(vol))

	case ActionNowPlaying:
		status, err := model.ParseStatus(action)
		if err != nil {
			return false, err
		}
		d.state.SetStatus(status)
		return true, d.fanout(d.listeners.Status.Dispatch(status))

	case ActionPresetsUpdated:
		// An empty presetsUpdated leaves the cache alone. Whitespace-only
		// content counts as empty.
		if xmlq.FirstChildElement(action) == nil {
			return false, nil
		}
		presets, err := model.ParsePresets(xmlq.DocumentNode(doc))
		if err != nil {
			return false, err
		}
		d.state.SetPresets(presets)
		return true, d.fanout(d.listeners.Presets.Dispatch(slices.Clone(presets)))

	case ActionZoneUpdated:
		zone, err := d.refresher.FetchZoneStatus(ctx)
		if err != nil {
			return false, categoryError(CategoryZoneStatus, err)
		}
		d.state.SetZoneStatus(zone)
		return true, d.fanout(d.listeners.ZoneStatus.Dispatch(zone))

	case ActionInfoUpdated:
		cfg, err := d.refresher.FetchConfig(ctx)
		if err != nil {
			return false, categoryError(CategoryDeviceInfo, err)
		}
		d.state.SetConfig(cfg)
		return true, d.fanout(d.listeners.DeviceInfo.Dispatch(cfg))
	}

	return false, nil
}

// fanout counts listener faults and marks them so Dispatch can tell them
// apart from parse or refresh failures.
func (d *Dispatcher) fanout(err error) error {
	if err == nil {
		return nil
	}
	faults := 1
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		faults = len(joined.Unwrap())
	}
	d.count(func(s *Stats) { s.ListenerFaults += uint64(faults) })
	d.logger.Printf("DISPATCH: %d listener fault(s): %v", faults, err)
	return &listenerFault{err: err}
}

type listenerFault struct{ err error }

func (f *listenerFault) Error() string { return f.err.Error() }
func (f *listenerFault) Unwrap() error { return f.err }

func isListenerFault(err error) bool {
	var fault *listenerFault
	return errors.As(err, &fault)
}

func (d *Dispatcher) count(fn func(*Stats)) {
	d.mu.Lock()
	fn(&d.stats)
	d.mu.Unlock()
}

// Stats returns a copy of the frame counters.
func (d *Dispatcher) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := d.stats
	out.ByAction = make(map[string]uint64, len(d.stats.ByAction))
	for k, v := range d.stats.ByAction {
		out.ByAction[k] = v
	}
	return out
}
