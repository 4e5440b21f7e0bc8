package mqtt

import (
	"encoding/json"
	"log"

	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch/events"
	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch/model"
)

// Publisher sends one message. *Client implements it.
type Publisher interface {
	Publish(topic string, payload []byte, retained bool) error
}

// Mirror republishes listener events of devices as retained JSON messages.
type Mirror struct {
	pub    Publisher
	topics Topics
	logger *log.Logger
}

// NewMirror creates a Mirror publishing under prefix.
func NewMirror(pub Publisher, prefix string, logger *log.Logger) *Mirror {
	if logger == nil {
		logger = log.Default()
	}
	return &Mirror{pub: pub, topics: Topics{Prefix: prefix}, logger: logger}
}

// Attach registers one listener per category on listeners. The returned
// function removes them again.
func (m *Mirror) Attach(deviceID string, listeners *events.Listeners) func() {
	volumeID := listeners.Volume.Add(func(v model.Volume) {
		m.publish(deviceID, events.CategoryVolume, v)
	})
	statusID := listeners.Status.Add(func(s *model.Status) {
		m.publish(deviceID, events.CategoryStatus, s)
	})
	presetsID := listeners.Presets.Add(func(p []model.Preset) {
		m.publish(deviceID, events.CategoryPresets, p)
	})
	zoneID := listeners.ZoneStatus.Add(func(z *model.ZoneStatus) {
		m.publish(deviceID, events.CategoryZoneStatus, z)
	})
	infoID := listeners.DeviceInfo.Add(func(c *model.Config) {
		m.publish(deviceID, events.CategoryDeviceInfo, c)
	})

	return func() {
		listeners.Volume.Remove(volumeID)
		listeners.Status.Remove(statusID)
		listeners.Presets.Remove(presetsID)
		listeners.ZoneStatus.Remove(zoneID)
		listeners.DeviceInfo.Remove(infoID)
	}
}

func (m *Mirror) publish(deviceID string, category events.Category, value any) {
	payload, err := json.Marshal(value)
	if err != nil {
		m.logger.Printf("MQTT: Encode %s of %s failed: %v", category, deviceID, err)
		return
	}
	topic := m.topics.DeviceState(deviceID, category)
	if err := m.pub.Publish(topic, payload, true); err != nil {
		m.logger.Printf("MQTT: Publish to %s failed: %v", topic, err)
	}
}
