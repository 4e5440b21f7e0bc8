package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch/apperrors"
	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch/model"
	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch/xmlq"
)

// Info fetches /info.
func (c *Client) Info(ctx context.Context) (*model.Config, error) {
	doc, err := c.getDocument(ctx, "/info")
	if err != nil {
		return nil, err
	}
	return model.ParseConfig(xmlq.DocumentNode(doc)), nil
}

// NowPlaying fetches /now_playing.
func (c *Client) NowPlaying(ctx context.Context) (*model.Status, error) {
	doc, err := c.getDocument(ctx, "/now_playing")
	if err != nil {
		return nil, err
	}
	return model.ParseStatus(xmlq.DocumentNode(doc))
}

// Volume fetches /volume.
func (c *Client) Volume(ctx context.Context) (model.Volume, error) {
	doc, err := c.getDocument(ctx, "/volume")
	if err != nil {
		return model.Volume{}, err
	}
	return model.ParseVolume(xmlq.DocumentNode(doc))
}

// Presets fetches /presets.
func (c *Client) Presets(ctx context.Context) ([]model.Preset, error) {
	doc, err := c.getDocument(ctx, "/presets")
	if err != nil {
		return nil, err
	}
	return model.ParsePresets(xmlq.DocumentNode(doc))
}

// Zone fetches /getZone. A nil zone means the device is not in one.
func (c *Client) Zone(ctx context.Context) (*model.ZoneStatus, error) {
	doc, err := c.getDocument(ctx, "/getZone")
	if err != nil {
		return nil, err
	}
	return model.ParseZoneStatus(xmlq.DocumentNode(doc)), nil
}

// SendKey presses and releases key.
func (c *Client) SendKey(ctx context.Context, key Key) error {
	for _, state := range []string{"press", "release"} {
		el := etree.NewElement("key")
		el.CreateAttr("state", state)
		el.CreateAttr("sender", "Gabbo")
		el.SetText(string(key))

		body, err := render(el)
		if err != nil {
			return err
		}
		if err := c.post(ctx, "/key", body); err != nil {
			return err
		}
	}
	return nil
}

// SetVolume sets the volume level, clamped to 0..100.
func (c *Client) SetVolume(ctx context.Context, level int) error {
	level = max(0, min(100, level))
	el := etree.NewElement("volume")
	el.SetText(strconv.Itoa(level))
	body, err := render(el)
	if err != nil {
		return err
	}
	return c.post(ctx, "/volume", body)
}

// SelectPreset posts the preset's ContentItem back to /select.
func (c *Client) SelectPreset(ctx context.Context, preset model.Preset) error {
	return c.post(ctx, "/select", preset.SourceXML)
}

// Select posts a ContentItem built from sel to /select.
func (c *Client) Select(ctx context.Context, sel ContentSelection) error {
	el := etree.NewElement("ContentItem")
	el.CreateAttr("source", string(sel.Source))
	if sel.Type != "" {
		el.CreateAttr("type", string(sel.Type))
	}
	if sel.SourceAccount != "" {
		el.CreateAttr("sourceAccount", sel.SourceAccount)
	}
	if sel.Location != "" {
		el.CreateAttr("location", sel.Location)
	}
	if sel.ItemName != "" {
		el.CreateElement("itemName").SetText(sel.ItemName)
	}

	body, err := render(el)
	if err != nil {
		return err
	}
	return c.post(ctx, "/select", body)
}

// SetZone creates a zone.
func (c *Client) SetZone(ctx context.Context, req ZoneRequest) error {
	return c.postZone(ctx, "/setZone", req)
}

// AddZoneSlave adds members to the zone.
func (c *Client) AddZoneSlave(ctx context.Context, req ZoneRequest) error {
	req.SenderIP = ""
	return c.postZone(ctx, "/addZoneSlave", req)
}

// RemoveZoneSlave removes members from the zone.
func (c *Client) RemoveZoneSlave(ctx context.Context, req ZoneRequest) error {
	req.SenderIP = ""
	return c.postZone(ctx, "/removeZoneSlave", req)
}

func (c *Client) postZone(ctx context.Context, path string, req ZoneRequest) error {
	body, err := ZoneBody(req)
	if err != nil {
		return err
	}
	return c.post(ctx, path, body)
}

// ZoneBody renders a zone request. It fails with ErrNoSlaves when req has
// no members.
func ZoneBody(req ZoneRequest) (string, error) {
	if len(req.Members) == 0 {
		return "", apperrors.ErrNoSlaves
	}
	zone := etree.NewElement("zone")
	zone.CreateAttr("master", req.MasterID)
	if req.SenderIP != "" {
		zone.CreateAttr("senderIPAddress", req.SenderIP)
	}
	for _, m := range req.Members {
		member := zone.CreateElement("member")
		member.CreateAttr("ipaddress", m.IP)
		member.SetText(m.DeviceID)
	}
	return render(zone)
}

// PlayURL asks the DLNA renderer to play an http:// URL.
func (c *Client) PlayURL(ctx context.Context, url string) error {
	if !strings.HasPrefix(url, "http://") {
		return apperrors.ErrInvalidURL
	}

	body, err := avTransportEnvelope(url)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, http.MethodPost, c.baseURL(c.dlnaPort)+"/AVTransport/Control", []byte(body), map[string]string{
		"Content-Type": `text/xml; charset="utf-8"`,
		"SOAPACTION":   avTransportType + "#SetAVTransportURI",
	})
	return err
}
