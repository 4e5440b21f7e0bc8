// Package soundtouch is a client for Bose SoundTouch speakers.
//
// A Device caches the speaker's state, keeps it current from the
// notification websocket once StartNotification is called, and fans
// changes out to registered listeners.
package soundtouch

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch/api"
	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch/apperrors"
	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch/events"
	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch/model"
)

type options struct {
	port       int
	wsPort     int
	dlnaPort   int
	timeout    time.Duration
	httpClient *http.Client
	dialer     *websocket.Dialer
	logger     *log.Logger
	reconnect  bool
	backoff    events.BackoffConfig
}

// Option customizes a Device.
type Option func(*options)

// WithPorts overrides the HTTP, websocket and DLNA ports. Zero keeps the
// default.
func WithPorts(httpPort, wsPort, dlnaPort int) Option {
	return func(o *options) {
		o.port = httpPort
		o.wsPort = wsPort
		o.dlnaPort = dlnaPort
	}
}

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithDialer replaces the websocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(o *options) { o.dialer = d }
}

// WithLogger sets the logger. The default is log.Default().
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithReconnect makes the notification connection redial after it drops.
func WithReconnect(cfg events.BackoffConfig) Option {
	return func(o *options) {
		o.reconnect = true
		o.backoff = cfg
	}
}

// Device is one speaker.
type Device struct {
	host       string
	client     *api.Client
	state      *events.State
	listeners  *events.Listeners
	dispatcher *events.Dispatcher
	notifier   *events.Notifier
	logger     *log.Logger

	mu       sync.Mutex
	snapshot *model.ContentItem
}

// New creates a Device without contacting it.
func New(host string, opts ...Option) *Device {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.Default()
	}

	d := &Device{
		host: host,
		client: api.NewClient(host, api.Config{
			Port:       o.port,
			DLNAPort:   o.dlnaPort,
			Timeout:    o.timeout,
			HTTPClient: o.httpClient,
		}),
		state:     events.NewState(),
		listeners: events.NewListeners(),
		logger:    o.logger,
	}
	d.listeners.SetErrorHook(func(err error) {
		d.logger.Printf("DEVICE: %s listener fault: %v", host, err)
	})
	d.dispatcher = events.NewDispatcher(d.state, d, d.listeners, o.logger)
	d.notifier = events.NewNotifier(events.NotifierConfig{
		Host:      host,
		Port:      o.wsPort,
		Reconnect: o.reconnect,
		Backoff:   o.backoff,
		Dialer:    o.dialer,
		Logger:    o.logger,
	}, d.dispatcher)
	return d
}

// NewDevice creates a Device and loads its config from /info.
func NewDevice(ctx context.Context, host string, opts ...Option) (*Device, error) {
	d := New(host, opts...)
	if _, err := d.FetchConfig(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// Host returns the device host.
func (d *Device) Host() string {
	return d.host
}

// Client exposes the underlying HTTP client.
func (d *Device) Client() *api.Client {
	return d.client
}

// Listeners returns the device's listener registries.
func (d *Device) Listeners() *events.Listeners {
	return d.listeners
}

// Stats returns notification frame counters.
func (d *Device) Stats() events.Stats {
	return d.dispatcher.Stats()
}

// UpdatedAt reports when a category was last stored.
func (d *Device) UpdatedAt(c events.Category) time.Time {
	return d.state.UpdatedAt(c)
}

// Volume returns the cached volume, if any.
func (d *Device) Volume() (model.Volume, bool) {
	return d.state.Volume()
}

// Status returns the cached now-playing status or nil.
func (d *Device) Status() *model.Status {
	return d.state.Status()
}

// Presets returns a copy of the cached presets.
func (d *Device) Presets() []model.Preset {
	return d.state.Presets()
}

// ZoneStatus returns the cached zone or nil.
func (d *Device) ZoneStatus() *model.ZoneStatus {
	return d.state.ZoneStatus()
}

// Config returns the cached device config or nil.
func (d *Device) Config() *model.Config {
	return d.state.Config()
}

// FetchVolume refreshes the cached volume.
func (d *Device) FetchVolume(ctx context.Context) (model.Volume, error) {
	vol, err := d.client.Volume(ctx)
	if err != nil {
		return model.Volume{}, err
	}
	d.state.SetVolume(vol)
	return vol, nil
}

// FetchStatus refreshes the cached now-playing status.
func (d *Device) FetchStatus(ctx context.Context) (*model.Status, error) {
	status, err := d.client.NowPlaying(ctx)
	if err != nil {
		return nil, err
	}
	d.state.SetStatus(status)
	return status, nil
}

// FetchPresets refreshes the cached presets.
func (d *Device) FetchPresets(ctx context.Context) ([]model.Preset, error) {
	presets, err := d.client.Presets(ctx)
	if err != nil {
		return nil, err
	}
	d.state.SetPresets(presets)
	return presets, nil
}

// FetchZoneStatus refreshes the cached zone. A nil zone means the device
// is not in one.
func (d *Device) FetchZoneStatus(ctx context.Context) (*model.ZoneStatus, error) {
	zone, err := d.client.Zone(ctx)
	if err != nil {
		return nil, err
	}
	d.state.SetZoneStatus(zone)
	return zone, nil
}

// FetchConfig refreshes the cached device config.
func (d *Device) FetchConfig(ctx context.Context) (*model.Config, error) {
	cfg, err := d.client.Info(ctx)
	if err != nil {
		return nil, err
	}
	d.state.SetConfig(cfg)
	return cfg, nil
}

// Refresh reloads every snapshot over HTTP and returns the failures joined.
func (d *Device) Refresh(ctx context.Context) error {
	var errs []error
	if _, err := d.FetchConfig(ctx); err != nil {
		errs = append(errs, err)
	}
	if _, err := d.FetchVolume(ctx); err != nil {
		errs = append(errs, err)
	}
	if _, err := d.FetchStatus(ctx); err != nil {
		errs = append(errs, err)
	}
	if _, err := d.FetchPresets(ctx); err != nil {
		errs = append(errs, err)
	}
	if _, err := d.FetchZoneStatus(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// StartNotification opens the notification websocket. It fails with
// ErrAlreadyRunning while a connection is active.
func (d *Device) StartNotification(ctx context.Context) error {
	return d.notifier.Start(ctx)
}

// StopNotification closes the notification websocket and waits for its
// receive loop to exit.
func (d *Device) StopNotification(ctx context.Context) error {
	return d.notifier.Stop(ctx)
}

// NotificationRunning reports whether the notification loop is active.
func (d *Device) NotificationRunning() bool {
	return d.notifier.Running()
}

// NotificationDone is closed when the notification loop exits.
func (d *Device) NotificationDone() <-chan struct{} {
	return d.notifier.Done()
}

// NotificationErr returns the last notification transport error.
func (d *Device) NotificationErr() error {
	return d.notifier.Err()
}

// Close stops notifications, if running, and drops every listener.
func (d *Device) Close(ctx context.Context) error {
	err := d.notifier.Stop(ctx)
	d.listeners.Clear()
	if errors.Is(err, apperrors.ErrNotRunning) {
		return nil
	}
	return err
}
