// Package system reports hub runtime information.
package system

import (
	"runtime"
	"time"

	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch"
)

// Version is the hub version, set at build time or defaulted.
var Version = "1.0.0"

// DeviceLister lists the watched devices.
type DeviceLister interface {
	Devices() []*soundtouch.Device
}

// Service reports uptime, memory and notification totals.
type Service struct {
	devices        DeviceLister
	mqttConnected  func() bool
	resyncSchedule string
	startTime      time.Time
}

// NewService creates a system service. mqttConnected may be nil when no
// broker is configured.
func NewService(devices DeviceLister, mqttConnected func() bool, resyncSchedule string) *Service {
	return &Service{
		devices:        devices,
		mqttConnected:  mqttConnected,
		resyncSchedule: resyncSchedule,
		startTime:      time.Now(),
	}
}

// NotificationTotals sums dispatcher counters across devices.
type NotificationTotals struct {
	Received       uint64 `json:"received"`
	Processed      uint64 `json:"processed"`
	Ignored        uint64 `json:"ignored"`
	Failed         uint64 `json:"failed"`
	ListenerFaults uint64 `json:"listener_faults"`
}

// SystemInfo is the body of GET /v1/system/info.
type SystemInfo struct {
	HubVersion       string             `json:"hub_version"`
	Uptime           int64              `json:"uptime_seconds"`
	MemoryUsageMB    float64            `json:"memory_mb"`
	Goroutines       int                `json:"goroutines"`
	DevicesTotal     int                `json:"devices_total"`
	DevicesNotifying int                `json:"devices_notifying"`
	MQTTEnabled      bool               `json:"mqtt_enabled"`
	MQTTConnected    bool               `json:"mqtt_connected"`
	ResyncSchedule   string             `json:"resync_schedule,omitempty"`
	Notifications    NotificationTotals `json:"notifications"`
}

// GetSystemInfo returns current system information.
func (s *Service) GetSystemInfo() SystemInfo {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	info := SystemInfo{
		HubVersion:     Version,
		Uptime:         int64(time.Since(s.startTime).Seconds()),
		MemoryUsageMB:  float64(memStats.Alloc) / 1024 / 1024,
		Goroutines:     runtime.NumGoroutine(),
		ResyncSchedule: s.resyncSchedule,
	}
	if s.mqttConnected != nil {
		info.MQTTEnabled = true
		info.MQTTConnected = s.mqttConnected()
	}
	if s.devices == nil {
		return info
	}

	for _, d := range s.devices.Devices() {
		info.DevicesTotal++
		if d.NotificationRunning() {
			info.DevicesNotifying++
		}
		st := d.Stats()
		info.Notifications.Received += st.Received
		info.Notifications.Processed += st.Processed
		info.Notifications.Ignored += st.Ignored
		info.Notifications.Failed += st.Failed
		info.Notifications.ListenerFaults += st.ListenerFaults
	}
	return info
}
