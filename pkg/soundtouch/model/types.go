package model

import "slices"

// Volume mirrors the device /volume payload and volumeUpdated events.
type Volume struct {
	Actual int  `json:"actual"`
	Target int  `json:"target"`
	Muted  bool `json:"muted"`
}

// ContentItem identifies a playable item on a given source.
type ContentItem struct {
	Name          string `json:"name,omitempty"`
	Source        string `json:"source,omitempty"`
	Type          string `json:"type,omitempty"`
	Location      string `json:"location,omitempty"`
	SourceAccount string `json:"source_account,omitempty"`
	IsPresetable  bool   `json:"is_presetable"`
}

// Status is a now-playing snapshot.
type Status struct {
	Source          string       `json:"source,omitempty"`
	ContentItem     *ContentItem `json:"content_item,omitempty"`
	Track           string       `json:"track,omitempty"`
	Artist          string       `json:"artist,omitempty"`
	Album           string       `json:"album,omitempty"`
	Image           string       `json:"image,omitempty"` // set only when art is IMAGE_PRESENT
	Duration        *int         `json:"duration,omitempty"`
	Position        *int         `json:"position,omitempty"`
	PlayStatus      string       `json:"play_status,omitempty"`
	ShuffleSetting  string       `json:"shuffle_setting,omitempty"`
	RepeatSetting   string       `json:"repeat_setting,omitempty"`
	StreamType      string       `json:"stream_type,omitempty"`
	TrackID         string       `json:"track_id,omitempty"`
	StationName     string       `json:"station_name,omitempty"`
	Description     string       `json:"description,omitempty"`
	StationLocation string       `json:"station_location,omitempty"`
}

// Preset is one of the six device presets. SourceXML is the serialized
// ContentItem element, posted back verbatim to select the preset.
type Preset struct {
	ID          string      `json:"id"`
	ContentItem ContentItem `json:"content_item"`
	SourceXML   string      `json:"-"`
}

// Name returns the preset's display name.
func (p Preset) Name() string {
	return p.ContentItem.Name
}

// ZoneStatus describes the multi-room zone a device belongs to.
type ZoneStatus struct {
	MasterID string      `json:"master_id"`
	MasterIP string      `json:"master_ip,omitempty"`
	IsMaster bool        `json:"is_master"`
	Slaves   []ZoneSlave `json:"slaves"`
}

// ZoneSlave is a zone member.
type ZoneSlave struct {
	IP   string `json:"ip"`
	Role string `json:"role,omitempty"`
}

// Config is the device identity from /info.
type Config struct {
	DeviceID    string      `json:"device_id"`
	Name        string      `json:"name"`
	Type        string      `json:"type"`
	AccountUUID string      `json:"account_uuid,omitempty"`
	ModuleType  string      `json:"module_type,omitempty"`
	Variant     string      `json:"variant,omitempty"`
	VariantMode string      `json:"variant_mode,omitempty"`
	CountryCode string      `json:"country_code,omitempty"`
	RegionCode  string      `json:"region_code,omitempty"`
	Networks    []Network   `json:"networks"`
	Components  []Component `json:"components"`
}

// Network is one networkInfo entry.
type Network struct {
	Type       string `json:"type"`
	MACAddress string `json:"mac_address,omitempty"`
	IPAddress  string `json:"ip_address,omitempty"`
}

// Component is one hardware/software component of the device.
type Component struct {
	Category        string `json:"category,omitempty"`
	SoftwareVersion string `json:"software_version,omitempty"`
	SerialNumber    string `json:"serial_number,omitempty"`
}

// primaryNetwork prefers the SMSC interface, else the first one.
func (c *Config) primaryNetwork() *Network {
	for i := range c.Networks {
		if c.Networks[i].Type == "SMSC" {
			return &c.Networks[i]
		}
	}
	if len(c.Networks) > 0 {
		return &c.Networks[0]
	}
	return nil
}

// DeviceIP returns the device address advertised in /info.
func (c *Config) DeviceIP() string {
	if n := c.primaryNetwork(); n != nil {
		return n.IPAddress
	}
	return ""
}

// MACAddress returns the MAC address of the primary network.
func (c *Config) MACAddress() string {
	if n := c.primaryNetwork(); n != nil {
		return n.MACAddress
	}
	return ""
}

// Clone returns a deep copy of s. A nil Status clones to nil.
func (s *Status) Clone() *Status {
	if s == nil {
		return nil
	}
	out := *s
	if s.ContentItem != nil {
		item := *s.ContentItem
		out.ContentItem = &item
	}
	out.Duration = cloneInt(s.Duration)
	out.Position = cloneInt(s.Position)
	return &out
}

// Clone returns a deep copy of z. A nil ZoneStatus clones to nil.
func (z *ZoneStatus) Clone() *ZoneStatus {
	if z == nil {
		return nil
	}
	out := *z
	out.Slaves = slices.Clone(z.Slaves)
	return &out
}

// Clone returns a deep copy of c. A nil Config clones to nil.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	out := *c
	out.Networks = slices.Clone(c.Networks)
	out.Components = slices.Clone(c.Components)
	return &out
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}
