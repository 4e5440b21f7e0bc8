package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/strefethen/soundtouch-hub-go/internal/api"
	"github.com/strefethen/soundtouch-hub-go/internal/apperrors"
	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch"
	stapi "github.com/strefethen/soundtouch-hub-go/pkg/soundtouch/api"
	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch/events"
	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch/model"
)

// DeviceSummary is the JSON view of a watched device.
type DeviceSummary struct {
	Object              string                     `json:"object"`
	ID                  string                     `json:"id"`
	Name                string                     `json:"name"`
	Type                string                     `json:"type"`
	Host                string                     `json:"host"`
	MACAddress          string                     `json:"mac_address,omitempty"`
	NotificationRunning bool                       `json:"notification_running"`
	UpdatedAt           map[events.Category]string `json:"updated_at"`
	Stats               events.Stats               `json:"stats"`
}

var categories = []events.Category{
	events.CategoryVolume,
	events.CategoryStatus,
	events.CategoryPresets,
	events.CategoryZoneStatus,
	events.CategoryDeviceInfo,
}

func summarize(d *soundtouch.Device) DeviceSummary {
	s := DeviceSummary{
		Object:              "device",
		Host:                d.Host(),
		NotificationRunning: d.NotificationRunning(),
		UpdatedAt:           make(map[events.Category]string),
		Stats:               d.Stats(),
	}
	if cfg := d.Config(); cfg != nil {
		s.ID = cfg.DeviceID
		s.Name = cfg.Name
		s.Type = cfg.Type
		s.MACAddress = cfg.MACAddress()
	}
	for _, c := range categories {
		if at := d.UpdatedAt(c); !at.IsZero() {
			s.UpdatedAt[c] = at.UTC().Format(time.RFC3339Nano)
		}
	}
	return s
}

type deviceHandler func(w http.ResponseWriter, r *http.Request, d *soundtouch.Device) error

func registerDeviceRoutes(router chi.Router, devices DeviceSource, timeout time.Duration) {
	withDevice := func(fn deviceHandler) api.Handler {
		return func(w http.ResponseWriter, r *http.Request) error {
			id := chi.URLParam(r, "id")
			d, ok := devices.Device(id)
			if !ok {
				return apperrors.NewDeviceNotFoundError(id)
			}
			return fn(w, r, d)
		}
	}

	// snapshot serves a cached value, or 404 before the first update.
	snapshot := func(name string, get func(d *soundtouch.Device) (any, bool)) api.Handler {
		return withDevice(func(w http.ResponseWriter, r *http.Request, d *soundtouch.Device) error {
			value, ok := get(d)
			if !ok {
				return apperrors.NewNotFoundResource(name, chi.URLParam(r, "id"))
			}
			return api.WriteResource(w, value)
		})
	}

	router.Method(http.MethodGet, "/v1/devices", api.Handler(func(w http.ResponseWriter, _ *http.Request) error {
		list := devices.Devices()
		out := make([]DeviceSummary, 0, len(list))
		for _, d := range list {
			out = append(out, summarize(d))
		}
		return api.WriteList(w, "/v1/devices", out)
	}))

	router.Method(http.MethodGet, "/v1/devices/{id}", withDevice(func(w http.ResponseWriter, _ *http.Request, d *soundtouch.Device) error {
		return api.WriteResource(w, summarize(d))
	}))

	router.Method(http.MethodGet, "/v1/devices/{id}/volume", snapshot("volume", func(d *soundtouch.Device) (any, bool) {
		return d.Volume()
	}))
	router.Method(http.MethodGet, "/v1/devices/{id}/status", snapshot("status", func(d *soundtouch.Device) (any, bool) {
		s := d.Status()
		return s, s != nil
	}))
	router.Method(http.MethodGet, "/v1/devices/{id}/presets", snapshot("presets", func(d *soundtouch.Device) (any, bool) {
		if d.UpdatedAt(events.CategoryPresets).IsZero() {
			return nil, false
		}
		p := d.Presets()
		if p == nil {
			p = []model.Preset{}
		}
		return p, true
	}))
	router.Method(http.MethodGet, "/v1/devices/{id}/zone", snapshot("zone", func(d *soundtouch.Device) (any, bool) {
		if d.UpdatedAt(events.CategoryZoneStatus).IsZero() {
			return nil, false
		}
		// a device outside any zone reports an empty zone
		if z := d.ZoneStatus(); z != nil {
			return z, true
		}
		return model.ZoneStatus{Slaves: []model.ZoneSlave{}}, true
	}))
	router.Method(http.MethodGet, "/v1/devices/{id}/info", snapshot("info", func(d *soundtouch.Device) (any, bool) {
		c := d.Config()
		return c, c != nil
	}))

	router.Method(http.MethodPost, "/v1/devices/{id}/refresh", withDevice(func(w http.ResponseWriter, r *http.Request, d *soundtouch.Device) error {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		if err := d.Refresh(ctx); err != nil {
			return err
		}
		return api.WriteResource(w, summarize(d))
	}))

	router.Method(http.MethodPost, "/v1/devices/{id}/key", withDevice(func(w http.ResponseWriter, r *http.Request, d *soundtouch.Device) error {
		var body struct {
			Key string `json:"key"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return apperrors.NewValidationError("Invalid JSON body", nil)
		}
		key, ok := stapi.ParseKey(body.Key)
		if !ok {
			return apperrors.NewValidationError("Unknown key", map[string]any{"key": body.Key})
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		if err := d.SendKey(ctx, key); err != nil {
			return err
		}
		return api.WriteJSON(w, http.StatusAccepted, map[string]any{"object": "key_press", "key": key})
	}))

	router.Method(http.MethodPut, "/v1/devices/{id}/volume", withDevice(func(w http.ResponseWriter, r *http.Request, d *soundtouch.Device) error {
		var body struct {
			Level *int `json:"level"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Level == nil {
			return apperrors.NewValidationError("Body must be {\"level\": 0-100}", nil)
		}
		if *body.Level < 0 || *body.Level > 100 {
			return apperrors.NewValidationError("level must be between 0 and 100", map[string]any{"level": *body.Level})
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		if err := d.SetVolume(ctx, *body.Level); err != nil {
			return err
		}
		return api.WriteJSON(w, http.StatusAccepted, map[string]any{"object": "volume_change", "level": *body.Level})
	}))
}
