// Package events keeps a device's cached state in step with the
// notifications it pushes over its websocket.
//
// Frames flow Notifier -> Dispatcher -> State + Listeners. Everything after
// the Notifier runs synchronously on the Notifier's receive goroutine, one
// frame at a time.
package events

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch/apperrors"
	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch/model"
)

// Category names an event category.
type Category string

const (
	CategoryVolume     Category = "volume"
	CategoryStatus     Category = "status"
	CategoryPresets    Category = "presets"
	CategoryZoneStatus Category = "zone_status"
	CategoryDeviceInfo Category = "device_info"
)

// ListenerID identifies one registration. Registering the same function
// twice yields two IDs.
type ListenerID string

// Listener receives a freshly published snapshot. It must not mutate it.
type Listener[T any] func(T)

type registration[T any] struct {
	id ListenerID
	fn Listener[T]
}

// Registry is an ordered set of listeners for one category.
type Registry[T any] struct {
	mu       sync.Mutex
	category Category
	entries  []registration[T]
	onError  func(error)
}

// NewRegistry creates an empty registry for category.
func NewRegistry[T any](category Category) *Registry[T] {
	return &Registry[T]{category: category}
}

// Category returns the registry's category.
func (r *Registry[T]) Category() Category {
	return r.category
}

// Add appends fn and returns its registration ID.
func (r *Registry[T]) Add(fn Listener[T]) ListenerID {
	id := ListenerID(uuid.NewString())
	r.mu.Lock()
	r.entries = append(r.entries, registration[T]{id: id, fn: fn})
	r.mu.Unlock()
	return id
}

// Remove drops the registration with the given ID. Unknown IDs are ignored.
func (r *Registry[T]) Remove(id ListenerID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, entry := range r.entries {
		if entry.id == id {
			r.entries = slices.Delete(slices.Clone(r.entries), i, i+1)
			return true
		}
	}
	return false
}

// Clear removes every registration.
func (r *Registry[T]) Clear() {
	r.mu.Lock()
	r.entries = nil
	r.mu.Unlock()
}

// Len returns the number of registrations.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// IDs returns the current registrations in order.
func (r *Registry[T]) IDs() []ListenerID {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]ListenerID, len(r.entries))
	for i, entry := range r.entries {
		ids[i] = entry.id
	}
	return ids
}

// SetErrorHook installs fn to receive each listener fault. nil disables it.
func (r *Registry[T]) SetErrorHook(fn func(error)) {
	r.mu.Lock()
	r.onError = fn
	r.mu.Unlock()
}

// Dispatch calls every listener registered at call time, in order, on the
// calling goroutine. A panicking listener is reported as a ListenerError
// and the rest still run. The faults are joined into the returned error.
func (r *Registry[T]) Dispatch(value T) error {
	r.mu.Lock()
	entries := r.entries
	onError := r.onError
	r.mu.Unlock()

	var errs []error
	for _, entry := range entries {
		if err := r.invoke(entry, value); err != nil {
			if onError != nil {
				onError(err)
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Registry[T]) invoke(entry registration[T], value T) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &apperrors.ListenerError{
				Category:   string(r.category),
				ListenerID: string(entry.id),
				Recovered:  rec,
			}
		}
	}()
	entry.fn(value)
	return nil
}

// Listeners holds one registry per category for a single device.
type Listeners struct {
	Volume     *Registry[model.Volume]
	Status     *Registry[*model.Status]
	Presets    *Registry[[]model.Preset]
	ZoneStatus *Registry[*model.ZoneStatus]
	DeviceInfo *Registry[*model.Config]
}

// NewListeners creates empty registries for every category.
func NewListeners() *Listeners {
	return &Listeners{
		Volume:     NewRegistry[model.Volume](CategoryVolume),
		Status:     NewRegistry[*model.Status](CategoryStatus),
		Presets:    NewRegistry[[]model.Preset](CategoryPresets),
		ZoneStatus: NewRegistry[*model.ZoneStatus](CategoryZoneStatus),
		DeviceInfo: NewRegistry[*model.Config](CategoryDeviceInfo),
	}
}

// SetErrorHook installs fn on every registry.
func (l *Listeners) SetErrorHook(fn func(error)) {
	l.Volume.SetErrorHook(fn)
	l.Status.SetErrorHook(fn)
	l.Presets.SetErrorHook(fn)
	l.ZoneStatus.SetErrorHook(fn)
	l.DeviceInfo.SetErrorHook(fn)
}

// Clear empties every registry.
func (l *Listeners) Clear() {
	l.Volume.Clear()
	l.Status.Clear()
	l.Presets.Clear()
	l.ZoneStatus.Clear()
	l.DeviceInfo.Clear()
}

// Count returns the number of registrations per category.
func (l *Listeners) Count() map[Category]int {
	return map[Category]int{
		CategoryVolume:     l.Volume.Len(),
		CategoryStatus:     l.Status.Len(),
		CategoryPresets:    l.Presets.Len(),
		CategoryZoneStatus: l.ZoneStatus.Len(),
		CategoryDeviceInfo: l.DeviceInfo.Len(),
	}
}

func (c Category) String() string {
	return string(c)
}

// categoryError tags a refresh failure with its category.
func categoryError(c Category, err error) error {
	return fmt.Errorf("%s: %w", c, err)
}
