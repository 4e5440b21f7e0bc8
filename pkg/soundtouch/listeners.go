package soundtouch

import (
	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch/events"
	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch/model"
)

// AddVolumeListener registers fn for volume changes.
func (d *Device) AddVolumeListener(fn func(model.Volume)) events.ListenerID {
	return d.listeners.Volume.Add(fn)
}

// RemoveVolumeListener drops the volume listener with id. Unknown ids are
// ignored.
func (d *Device) RemoveVolumeListener(id events.ListenerID) bool {
	return d.listeners.Volume.Remove(id)
}

// ClearVolumeListeners drops every volume listener.
func (d *Device) ClearVolumeListeners() {
	d.listeners.Volume.Clear()
}

// AddStatusListener registers fn for now-playing changes.
func (d *Device) AddStatusListener(fn func(*model.Status)) events.ListenerID {
	return d.listeners.Status.Add(fn)
}

// RemoveStatusListener drops the status listener with id.
func (d *Device) RemoveStatusListener(id events.ListenerID) bool {
	return d.listeners.Status.Remove(id)
}

// ClearStatusListeners drops every status listener.
func (d *Device) ClearStatusListeners() {
	d.listeners.Status.Clear()
}

// AddPresetsListener registers fn for preset list rebuilds.
func (d *Device) AddPresetsListener(fn func([]model.Preset)) events.ListenerID {
	return d.listeners.Presets.Add(fn)
}

// RemovePresetsListener drops the presets listener with id.
func (d *Device) RemovePresetsListener(id events.ListenerID) bool {
	return d.listeners.Presets.Remove(id)
}

// ClearPresetsListeners drops every presets listener.
func (d *Device) ClearPresetsListeners() {
	d.listeners.Presets.Clear()
}

// AddZoneStatusListener registers fn for zone changes. fn receives nil when
// the device leaves its zone.
func (d *Device) AddZoneStatusListener(fn func(*model.ZoneStatus)) events.ListenerID {
	return d.listeners.ZoneStatus.Add(fn)
}

// RemoveZoneStatusListener drops the zone listener with id.
func (d *Device) RemoveZoneStatusListener(id events.ListenerID) bool {
	return d.listeners.ZoneStatus.Remove(id)
}

// ClearZoneStatusListeners drops every zone listener.
func (d *Device) ClearZoneStatusListeners() {
	d.listeners.ZoneStatus.Clear()
}

// AddDeviceInfoListener registers fn for device info changes.
func (d *Device) AddDeviceInfoListener(fn func(*model.Config)) events.ListenerID {
	return d.listeners.DeviceInfo.Add(fn)
}

// RemoveDeviceInfoListener drops the device info listener with id.
func (d *Device) RemoveDeviceInfoListener(id events.ListenerID) bool {
	return d.listeners.DeviceInfo.Remove(id)
}

// ClearDeviceInfoListeners drops every device info listener.
func (d *Device) ClearDeviceInfoListeners() {
	d.listeners.DeviceInfo.Clear()
}
