package soundtouch

import (
	"context"
	"fmt"

	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch/api"
	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch/apperrors"
	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch/model"
)

// StandbySource is the now-playing source of a device in standby.
const StandbySource = string(api.SourceStandby)

func (d *Device) key(ctx context.Context, key api.Key) error {
	return d.client.SendKey(ctx, key)
}

// SendKey presses and releases an arbitrary key.
func (d *Device) SendKey(ctx context.Context, key api.Key) error { return d.key(ctx, key) }

func (d *Device) Mute(ctx context.Context) error          { return d.key(ctx, api.KeyMute) }
func (d *Device) VolumeUp(ctx context.Context) error      { return d.key(ctx, api.KeyVolumeUp) }
func (d *Device) VolumeDown(ctx context.Context) error    { return d.key(ctx, api.KeyVolumeDown) }
func (d *Device) NextTrack(ctx context.Context) error     { return d.key(ctx, api.KeyNextTrack) }
func (d *Device) PreviousTrack(ctx context.Context) error { return d.key(ctx, api.KeyPrevTrack) }
func (d *Device) Play(ctx context.Context) error          { return d.key(ctx, api.KeyPlay) }
func (d *Device) Pause(ctx context.Context) error         { return d.key(ctx, api.KeyPause) }
func (d *Device) PlayPause(ctx context.Context) error     { return d.key(ctx, api.KeyPlayPause) }
func (d *Device) RepeatOff(ctx context.Context) error     { return d.key(ctx, api.KeyRepeatOff) }
func (d *Device) RepeatOne(ctx context.Context) error     { return d.key(ctx, api.KeyRepeatOne) }
func (d *Device) RepeatAll(ctx context.Context) error     { return d.key(ctx, api.KeyRepeatAll) }

// Shuffle turns shuffle on or off.
func (d *Device) Shuffle(ctx context.Context, on bool) error {
	if on {
		return d.key(ctx, api.KeyShuffleOn)
	}
	return d.key(ctx, api.KeyShuffleOff)
}

// SetVolume sets the volume level (0-100).
func (d *Device) SetVolume(ctx context.Context, level int) error {
	return d.client.SetVolume(ctx, level)
}

// PowerOn wakes the device when it is in standby.
func (d *Device) PowerOn(ctx context.Context) error {
	status, err := d.FetchStatus(ctx)
	if err != nil {
		return err
	}
	if status.Source == StandbySource {
		return d.key(ctx, api.KeyPower)
	}
	return nil
}

// PowerOff puts the device in standby unless it already is.
func (d *Device) PowerOff(ctx context.Context) error {
	status, err := d.FetchStatus(ctx)
	if err != nil {
		return err
	}
	if status.Source != StandbySource {
		return d.key(ctx, api.KeyPower)
	}
	return nil
}

// SelectPreset plays a preset.
func (d *Device) SelectPreset(ctx context.Context, preset model.Preset) error {
	return d.client.SelectPreset(ctx, preset)
}

// SelectContentItem selects content by source, account, location and type.
// Empty values are left out of the request.
func (d *Device) SelectContentItem(ctx context.Context, source api.Source, sourceAccount, location string, mediaType api.MediaType) error {
	return d.client.Select(ctx, api.ContentSelection{
		Source:        source,
		SourceAccount: sourceAccount,
		Location:      location,
		Type:          mediaType,
	})
}

// SelectSourceAux switches to the AUX input.
func (d *Device) SelectSourceAux(ctx context.Context) error {
	return d.SelectContentItem(ctx, api.SourceAux, string(api.SourceAux), "", "")
}

// SelectSourceBluetooth switches to bluetooth.
func (d *Device) SelectSourceBluetooth(ctx context.Context) error {
	return d.SelectContentItem(ctx, api.SourceBluetooth, "", "", "")
}

// PlayMedia plays location from source. An empty mediaType means uri.
func (d *Device) PlayMedia(ctx context.Context, source api.Source, location, sourceAccount string, mediaType api.MediaType) error {
	if mediaType == "" {
		mediaType = api.MediaURI
	}
	return d.client.Select(ctx, api.ContentSelection{
		Source:        source,
		Type:          mediaType,
		SourceAccount: sourceAccount,
		Location:      location,
		ItemName:      "Select using API",
	})
}

// PlayURL plays an http:// URL through the DLNA renderer.
func (d *Device) PlayURL(ctx context.Context, url string) error {
	return d.client.PlayURL(ctx, url)
}

// Snapshot remembers what is playing now so Restore can return to it.
func (d *Device) Snapshot(ctx context.Context) error {
	status, err := d.FetchStatus(ctx)
	if err != nil {
		return err
	}
	if status != nil && status.ContentItem != nil {
		item := *status.ContentItem
		d.mu.Lock()
		d.snapshot = &item
		d.mu.Unlock()
	}
	return nil
}

// Restore selects the content saved by Snapshot. Without a snapshot it does
// nothing.
func (d *Device) Restore(ctx context.Context) error {
	d.mu.Lock()
	snap := d.snapshot
	d.mu.Unlock()
	if snap == nil {
		return nil
	}
	return d.SelectContentItem(ctx, api.Source(snap.Source), snap.SourceAccount, snap.Location, api.MediaType(snap.Type))
}

// CreateZone makes d the master of a new zone playing on slaves.
func (d *Device) CreateZone(ctx context.Context, slaves ...*Device) error {
	if len(slaves) == 0 {
		return apperrors.ErrNoSlaves
	}
	master, err := d.identity(ctx)
	if err != nil {
		return err
	}
	members, err := zoneMembers(ctx, slaves)
	if err != nil {
		return err
	}

	d.logger.Printf("DEVICE: Creating zone with master %s (%d slaves)", master.Name, len(members))
	return d.client.SetZone(ctx, api.ZoneRequest{
		MasterID: master.DeviceID,
		SenderIP: master.DeviceIP(),
		Members:  members,
	})
}

// AddZoneSlave adds slaves to the zone d already masters.
func (d *Device) AddZoneSlave(ctx context.Context, slaves ...*Device) error {
	req, err := d.zoneChange(ctx, slaves)
	if err != nil {
		return err
	}
	d.logger.Printf("DEVICE: Adding %d slave(s) to zone %s", len(req.Members), req.MasterID)
	return d.client.AddZoneSlave(ctx, req)
}

// RemoveZoneSlave removes slaves from the zone. Removing the last slave
// dissolves the zone.
func (d *Device) RemoveZoneSlave(ctx context.Context, slaves ...*Device) error {
	req, err := d.zoneChange(ctx, slaves)
	if err != nil {
		return err
	}
	d.logger.Printf("DEVICE: Removing %d slave(s) from zone %s", len(req.Members), req.MasterID)
	return d.client.RemoveZoneSlave(ctx, req)
}

func (d *Device) zoneChange(ctx context.Context, slaves []*Device) (api.ZoneRequest, error) {
	zone, err := d.FetchZoneStatus(ctx)
	if err != nil {
		return api.ZoneRequest{}, err
	}
	if zone == nil {
		return api.ZoneRequest{}, apperrors.ErrNoExistingZone
	}
	if len(slaves) == 0 {
		return api.ZoneRequest{}, apperrors.ErrNoSlaves
	}
	master, err := d.identity(ctx)
	if err != nil {
		return api.ZoneRequest{}, err
	}
	members, err := zoneMembers(ctx, slaves)
	if err != nil {
		return api.ZoneRequest{}, err
	}
	return api.ZoneRequest{MasterID: master.DeviceID, Members: members}, nil
}

// identity returns the cached config, loading it on first use.
func (d *Device) identity(ctx context.Context) (*model.Config, error) {
	if cfg := d.Config(); cfg != nil {
		return cfg, nil
	}
	cfg, err := d.FetchConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config of %s: %w", d.host, err)
	}
	return cfg, nil
}

func zoneMembers(ctx context.Context, slaves []*Device) ([]api.ZoneMember, error) {
	members := make([]api.ZoneMember, 0, len(slaves))
	for _, slave := range slaves {
		cfg, err := slave.identity(ctx)
		if err != nil {
			return nil, err
		}
		members = append(members, api.ZoneMember{DeviceID: cfg.DeviceID, IP: cfg.DeviceIP()})
	}
	return members, nil
}
