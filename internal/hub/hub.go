// Package hub watches a set of speakers: it keeps their notification
// connections open, resyncs them on a schedule and mirrors changes to MQTT.
package hub

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch"
	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch/apperrors"
	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch/events"
)

// ConnectFunc builds a Device for host and loads its config.
type ConnectFunc func(ctx context.Context, host string) (*soundtouch.Device, error)

// DiscoverFunc returns hosts found on the network.
type DiscoverFunc func(ctx context.Context) ([]string, error)

// Attacher hooks a consumer onto a device's listeners. The returned
// function undoes it.
type Attacher interface {
	Attach(deviceID string, listeners *events.Listeners) func()
}

// Options configures a Hub.
type Options struct {
	Hosts []string
	// ResyncSchedule is a cron spec, seconds optional. Empty disables resync.
	ResyncSchedule string
	Connect        ConnectFunc
	Discover       DiscoverFunc
	Mirror         Attacher
	Logger         *log.Logger
}

// Hub owns the watched devices.
type Hub struct {
	opts   Options
	logger *log.Logger
	cron   *cron.Cron

	mu      sync.RWMutex
	devices map[string]*entry
	order   []string
}

type entry struct {
	device  *soundtouch.Device
	detach  func()
	addedAt time.Time
}

var scheduleParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// New validates opts and creates an idle Hub.
func New(opts Options) (*Hub, error) {
	if opts.Connect == nil {
		return nil, errors.New("hub: Connect is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	h := &Hub{
		opts:    opts,
		logger:  opts.Logger,
		devices: make(map[string]*entry),
	}
	if opts.ResyncSchedule != "" {
		if _, err := scheduleParser.Parse(opts.ResyncSchedule); err != nil {
			return nil, fmt.Errorf("invalid resync schedule %q: %w", opts.ResyncSchedule, err)
		}
		h.cron = cron.New(cron.WithParser(scheduleParser), cron.WithLogger(cron.PrintfLogger(opts.Logger)))
	}
	return h, nil
}

// Start connects to every configured and discovered host, then starts the
// resync schedule. Hosts that fail are logged and skipped; Start fails only
// when no device could be added.
func (h *Hub) Start(ctx context.Context) error {
	hosts := append([]string(nil), h.opts.Hosts...)
	if h.opts.Discover != nil {
		found, err := h.opts.Discover(ctx)
		if err != nil {
			h.logger.Printf("HUB: Discovery failed: %v", err)
		}
		hosts = append(hosts, found...)
	}

	var errs []error
	for _, host := range hosts {
		if err := h.Add(ctx, host); err != nil {
			h.logger.Printf("HUB: Skipping %s: %v", host, err)
			errs = append(errs, fmt.Errorf("%s: %w", host, err))
		}
	}
	if h.Len() == 0 && len(hosts) > 0 {
		return fmt.Errorf("no device reachable: %w", errors.Join(errs...))
	}

	if h.cron != nil {
		_, err := h.cron.AddFunc(h.opts.ResyncSchedule, func() {
			rctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			h.Resync(rctx)
		})
		if err != nil {
			return err
		}
		h.cron.Start()
		h.logger.Printf("HUB: Resync scheduled (%s)", h.opts.ResyncSchedule)
	}
	h.logger.Printf("HUB: Watching %d device(s)", h.Len())
	return nil
}

// Add connects to host and starts watching it. A host already watched under
// the same device id is ignored.
func (h *Hub) Add(ctx context.Context, host string) error {
	device, err := h.opts.Connect(ctx, host)
	if err != nil {
		return err
	}
	cfg := device.Config()
	if cfg == nil || cfg.DeviceID == "" {
		_ = device.Close(ctx)
		return fmt.Errorf("device at %s reported no id", host)
	}
	id := cfg.DeviceID

	h.mu.Lock()
	if _, exists := h.devices[id]; exists {
		h.mu.Unlock()
		_ = device.Close(ctx)
		return nil
	}
	e := &entry{device: device, addedAt: time.Now()}
	h.devices[id] = e
	h.order = append(h.order, id)
	h.mu.Unlock()

	if h.opts.Mirror != nil {
		e.detach = h.opts.Mirror.Attach(id, device.Listeners())
	}
	if err := device.Refresh(ctx); err != nil {
		h.logger.Printf("HUB: Initial refresh of %s (%s) incomplete: %v", cfg.Name, id, err)
	}
	if err := device.StartNotification(ctx); err != nil {
		h.logger.Printf("HUB: Notifications for %s (%s) unavailable: %v", cfg.Name, id, err)
	}
	h.logger.Printf("HUB: Added %s (%s) at %s", cfg.Name, id, host)
	return nil
}

// Remove stops watching the device with id.
func (h *Hub) Remove(ctx context.Context, id string) bool {
	h.mu.Lock()
	e, ok := h.devices[id]
	if ok {
		delete(h.devices, id)
		for i, v := range h.order {
			if v == id {
				h.order = append(h.order[:i], h.order[i+1:]...)
				break
			}
		}
	}
	h.mu.Unlock()
	if !ok {
		return false
	}
	h.close(ctx, id, e)
	return true
}

func (h *Hub) close(ctx context.Context, id string, e *entry) {
	if e.detach != nil {
		e.detach()
	}
	if err := e.device.Close(ctx); err != nil {
		h.logger.Printf("HUB: Closing %s: %v", id, err)
	}
}

// Device returns the watched device with id.
func (h *Hub) Device(id string) (*soundtouch.Device, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	e, ok := h.devices[id]
	if !ok {
		return nil, false
	}
	return e.device, true
}

// Devices returns the watched devices in the order they were added.
func (h *Hub) Devices() []*soundtouch.Device {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*soundtouch.Device, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, h.devices[id].device)
	}
	return out
}

// Len returns the number of watched devices.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.devices)
}

// Resync refreshes every device over HTTP and reopens notification
// connections that have dropped.
func (h *Hub) Resync(ctx context.Context) {
	for _, device := range h.Devices() {
		if err := device.Refresh(ctx); err != nil {
			h.logger.Printf("HUB: Resync of %s failed: %v", device.Host(), err)
			continue
		}
		if device.NotificationRunning() {
			continue
		}
		err := device.StartNotification(ctx)
		switch {
		case err == nil:
			h.logger.Printf("HUB: Reopened notifications for %s", device.Host())
		case errors.Is(err, apperrors.ErrAlreadyRunning):
		default:
			h.logger.Printf("HUB: Reopening notifications for %s failed: %v", device.Host(), err)
		}
	}
}

// Stop halts the schedule and closes every device.
func (h *Hub) Stop(ctx context.Context) {
	if h.cron != nil {
		<-h.cron.Stop().Done()
	}
	h.mu.Lock()
	devices := h.devices
	order := h.order
	h.devices = make(map[string]*entry)
	h.order = nil
	h.mu.Unlock()

	for _, id := range order {
		h.close(ctx, id, devices[id])
	}
	h.logger.Printf("HUB: Stopped")
}
