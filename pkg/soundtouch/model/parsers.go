package model

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch/apperrors"
	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch/xmlq"
)

// text returns an optional element value, "" when absent.
func text(node *etree.Element, tag string) string {
	value, _ := xmlq.ElementValue(node, tag)
	return value
}

func attr(node *etree.Element, name string) string {
	value, _ := xmlq.Attr(node, name)
	return value
}

func elementAttr(node *etree.Element, tag, name string) string {
	value, _ := xmlq.ElementAttr(node, tag, name)
	return value
}

// ParseVolume reads actualvolume, targetvolume and muteenabled below node.
// Both levels are required: a missing or empty level is a ParseError.
func ParseVolume(node *etree.Element) (Volume, error) {
	actual, err := requiredInt(node, "actualvolume")
	if err != nil {
		return Volume{}, apperrors.NewParseError("volume", err)
	}
	target, err := requiredInt(node, "targetvolume")
	if err != nil {
		return Volume{}, apperrors.NewParseError("volume", err)
	}
	return Volume{
		Actual: actual,
		Target: target,
		Muted:  xmlq.Bool(xmlq.ElementValue(node, "muteenabled")),
	}, nil
}

func requiredInt(node *etree.Element, tag string) (int, error) {
	n, err := xmlq.Int(xmlq.ElementValue(node, tag))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", tag, err)
	}
	if n == nil {
		return 0, fmt.Errorf("%s: missing", tag)
	}
	return *n, nil
}

// ParseContentItem reads a ContentItem element.
func ParseContentItem(item *etree.Element) ContentItem {
	return ContentItem{
		Name:          text(item, "itemName"),
		Source:        attr(item, "source"),
		Type:          attr(item, "type"),
		Location:      attr(item, "location"),
		SourceAccount: attr(item, "sourceAccount"),
		IsPresetable:  xmlq.Bool(xmlq.Attr(item, "isPresetable")),
	}
}

// ParseStatus reads a now-playing snapshot from node, which is either a
// /now_playing document or a nowPlayingUpdated action node.
func ParseStatus(node *etree.Element) (*Status, error) {
	status := &Status{
		Track:           text(node, "track"),
		Artist:          text(node, "artist"),
		Album:           text(node, "album"),
		PlayStatus:      text(node, "playStatus"),
		ShuffleSetting:  text(node, "shuffleSetting"),
		RepeatSetting:   text(node, "repeatSetting"),
		StreamType:      text(node, "streamType"),
		TrackID:         text(node, "trackID"),
		StationName:     text(node, "stationName"),
		Description:     text(node, "description"),
		StationLocation: text(node, "stationLocation"),
	}

	if source, ok := xmlq.ElementAttr(node, "nowPlaying", "source"); ok {
		status.Source = source
	} else if xmlq.Element(node, "nowPlaying") == nil {
		status.Source = attr(node, "source")
	}

	if item := xmlq.Element(node, "ContentItem"); item != nil {
		contentItem := ParseContentItem(item)
		status.ContentItem = &contentItem
	}

	if elementAttr(node, "art", "artImageStatus") == "IMAGE_PRESENT" {
		status.Image = text(node, "art")
	}

	duration, err := xmlq.Int(xmlq.ElementAttr(node, "time", "total"))
	if err != nil {
		return nil, apperrors.NewParseError("status duration", err)
	}
	status.Duration = duration

	position, err := xmlq.Int(xmlq.ElementValue(node, "time"))
	if err != nil {
		return nil, apperrors.NewParseError("status position", err)
	}
	status.Position = position

	return status, nil
}

// ParsePreset reads one preset element.
func ParsePreset(node *etree.Element) (Preset, error) {
	id := attr(node, "id")
	item := xmlq.Element(node, "ContentItem")
	if item == nil {
		return Preset{}, apperrors.NewParseError("preset", fmt.Errorf("preset %q has no ContentItem", id))
	}
	sourceXML, err := xmlq.Serialize(item)
	if err != nil {
		return Preset{}, apperrors.NewParseError("preset", err)
	}
	return Preset{
		ID:          id,
		ContentItem: ParseContentItem(item),
		SourceXML:   sourceXML,
	}, nil
}

// ParsePresets reads every preset element below node, in document order.
func ParsePresets(node *etree.Element) ([]Preset, error) {
	elements := xmlq.Elements(node, "preset")
	presets := make([]Preset, 0, len(elements))
	for _, el := range elements {
		preset, err := ParsePreset(el)
		if err != nil {
			return nil, err
		}
		presets = append(presets, preset)
	}
	return presets, nil
}

// ParseZoneStatus reads a /getZone document. It returns nil when the zone
// has no members, which is how a device outside any zone answers.
func ParseZoneStatus(node *etree.Element) *ZoneStatus {
	members := xmlq.Elements(node, "member")
	if len(members) == 0 {
		return nil
	}

	masterIP, hasMasterIP := xmlq.ElementAttr(node, "zone", "senderIPAddress")
	zone := &ZoneStatus{
		MasterID: elementAttr(node, "zone", "master"),
		MasterIP: masterIP,
		IsMaster: !hasMasterIP,
		Slaves:   make([]ZoneSlave, 0, len(members)),
	}
	for _, member := range members {
		zone.Slaves = append(zone.Slaves, ZoneSlave{
			IP:   attr(member, "ipaddress"),
			Role: attr(member, "role"),
		})
	}
	return zone
}

// ParseConfig reads an /info document.
func ParseConfig(node *etree.Element) *Config {
	cfg := &Config{
		DeviceID:    elementAttr(node, "info", "deviceID"),
		Name:        text(node, "name"),
		Type:        text(node, "type"),
		AccountUUID: text(node, "margeAccountUUID"),
		ModuleType:  text(node, "moduleType"),
		Variant:     text(node, "variant"),
		VariantMode: text(node, "variantMode"),
		CountryCode: text(node, "countryCode"),
		RegionCode:  text(node, "regionCode"),
		Networks:    []Network{},
		Components:  []Component{},
	}
	for _, network := range xmlq.Elements(node, "networkInfo") {
		cfg.Networks = append(cfg.Networks, Network{
			Type:       attr(network, "type"),
			MACAddress: text(network, "macAddress"),
			IPAddress:  text(network, "ipAddress"),
		})
	}
	for _, components := range xmlq.Elements(node, "components") {
		for _, component := range xmlq.Elements(components, "component") {
			cfg.Components = append(cfg.Components, Component{
				Category:        text(component, "componentCategory"),
				SoftwareVersion: text(component, "softwareVersion"),
				SerialNumber:    text(component, "serialNumber"),
			})
		}
	}
	return cfg
}
