package mqtt

import (
	"strings"

	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch/events"
)

// Topics builds topic names under Prefix.
//
//	<prefix>/hub/status
//	<prefix>/<deviceID>/<category>
type Topics struct {
	Prefix string
}

func (t Topics) prefix() string {
	p := strings.Trim(t.Prefix, "/")
	if p == "" {
		return "soundtouch"
	}
	return p
}

// HubStatus is the retained online/offline topic of the hub itself.
func (t Topics) HubStatus() string {
	return t.prefix() + "/hub/status"
}

// DeviceState is the retained state topic of one category of one device.
func (t Topics) DeviceState(deviceID string, category events.Category) string {
	return t.prefix() + "/" + sanitize(deviceID) + "/" + string(category)
}

// sanitize strips characters MQTT reserves in topic levels.
func sanitize(level string) string {
	return strings.NewReplacer("/", "_", "+", "_", "#", "_").Replace(level)
}
