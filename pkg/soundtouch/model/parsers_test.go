package model

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/require"

	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch/apperrors"
	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch/xmlq"
)

func document(t *testing.T, payload string) *etree.Element {
	t.Helper()
	doc, err := xmlq.Parse([]byte(payload))
	require.NoError(t, err)
	return xmlq.DocumentNode(doc)
}

func TestParseVolume(t *testing.T) {
	t.Run("full payload", func(t *testing.T) {
		node := document(t, `<volume deviceID="A1"><targetvolume>30</targetvolume><actualvolume>25</actualvolume><muteenabled>true</muteenabled></volume>`)
		vol, err := ParseVolume(node)
		require.NoError(t, err)
		require.Equal(t, Volume{Actual: 25, Target: 30, Muted: true}, vol)
	})

	t.Run("mute absent is false", func(t *testing.T) {
		node := document(t, `<volume><targetvolume>5</targetvolume><actualvolume>5</actualvolume></volume>`)
		vol, err := ParseVolume(node)
		require.NoError(t, err)
		require.False(t, vol.Muted)
	})

	t.Run("missing actual volume", func(t *testing.T) {
		node := document(t, `<volume><targetvolume>5</targetvolume></volume>`)
		_, err := ParseVolume(node)
		require.True(t, apperrors.IsParse(err))
	})

	t.Run("empty actual volume", func(t *testing.T) {
		node := document(t, `<volume><targetvolume>5</targetvolume><actualvolume></actualvolume></volume>`)
		_, err := ParseVolume(node)
		require.True(t, apperrors.IsParse(err))
	})

	t.Run("non integral target", func(t *testing.T) {
		node := document(t, `<volume><targetvolume>loud</targetvolume><actualvolume>5</actualvolume></volume>`)
		_, err := ParseVolume(node)
		require.True(t, apperrors.IsParse(err))
	})
}

func TestParseStatus(t *testing.T) {
	t.Run("time total and position", func(t *testing.T) {
		node := document(t, `<nowPlaying source="SPOTIFY"><time total="237">42</time></nowPlaying>`)
		status, err := ParseStatus(node)
		require.NoError(t, err)
		require.NotNil(t, status.Duration)
		require.NotNil(t, status.Position)
		require.Equal(t, 237, *status.Duration)
		require.Equal(t, 42, *status.Position)
	})

	t.Run("missing total keeps position", func(t *testing.T) {
		node := document(t, `<nowPlaying source="SPOTIFY"><time>42</time></nowPlaying>`)
		status, err := ParseStatus(node)
		require.NoError(t, err)
		require.Nil(t, status.Duration)
		require.Equal(t, 42, *status.Position)
	})

	t.Run("no time element", func(t *testing.T) {
		node := document(t, `<nowPlaying source="STANDBY"/>`)
		status, err := ParseStatus(node)
		require.NoError(t, err)
		require.Equal(t, "STANDBY", status.Source)
		require.Nil(t, status.Duration)
		require.Nil(t, status.Position)
		require.Nil(t, status.ContentItem)
	})

	t.Run("non integral position", func(t *testing.T) {
		node := document(t, `<nowPlaying source="SPOTIFY"><time total="237">soon</time></nowPlaying>`)
		_, err := ParseStatus(node)
		require.True(t, apperrors.IsParse(err))
	})

	t.Run("art present", func(t *testing.T) {
		node := document(t, `<nowPlaying source="TUNEIN"><art artImageStatus="IMAGE_PRESENT">http://img/1.jpg</art></nowPlaying>`)
		status, err := ParseStatus(node)
		require.NoError(t, err)
		require.Equal(t, "http://img/1.jpg", status.Image)
	})

	t.Run("art not present ignores text", func(t *testing.T) {
		node := document(t, `<nowPlaying source="TUNEIN"><art artImageStatus="IMAGE_NOT_PRESENT">http://img/1.jpg</art></nowPlaying>`)
		status, err := ParseStatus(node)
		require.NoError(t, err)
		require.Empty(t, status.Image)
	})

	t.Run("notification action node", func(t *testing.T) {
		doc, err := xmlq.Parse([]byte(`<updates><nowPlayingUpdated source="SPOTIFY"><ContentItem source="SPOTIFY" type="track" location="abc" isPresetable="true"><itemName>Song</itemName></ContentItem><track>Song</track><artist>Artist</artist></nowPlayingUpdated></updates>`))
		require.NoError(t, err)

		status, err := ParseStatus(xmlq.FirstChildElement(doc.Root()))
		require.NoError(t, err)
		require.Equal(t, "SPOTIFY", status.Source)
		require.Equal(t, "Song", status.Track)
		require.Equal(t, "Artist", status.Artist)
		require.Equal(t, &ContentItem{
			Name:         "Song",
			Source:       "SPOTIFY",
			Type:         "track",
			Location:     "abc",
			IsPresetable: true,
		}, status.ContentItem)
	})

	t.Run("wrapped nowPlaying wins", func(t *testing.T) {
		doc, err := xmlq.Parse([]byte(`<updates><nowPlayingUpdated deviceID="A1"><nowPlaying source="BLUETOOTH"><playStatus>PLAY_STATE</playStatus></nowPlaying></nowPlayingUpdated></updates>`))
		require.NoError(t, err)

		status, err := ParseStatus(xmlq.FirstChildElement(doc.Root()))
		require.NoError(t, err)
		require.Equal(t, "BLUETOOTH", status.Source)
		require.Equal(t, "PLAY_STATE", status.PlayStatus)
	})
}

func TestParseContentItem(t *testing.T) {
	node := document(t, `<ContentItem source="TUNEIN" type="stationurl" location="/v1/s1" sourceAccount="acct" isPresetable="false"><itemName>Jazz</itemName></ContentItem>`)
	item := ParseContentItem(xmlq.Element(node, "ContentItem"))
	require.Equal(t, ContentItem{
		Name:          "Jazz",
		Source:        "TUNEIN",
		Type:          "stationurl",
		Location:      "/v1/s1",
		SourceAccount: "acct",
	}, item)
}

func TestParsePresets(t *testing.T) {
	t.Run("document order", func(t *testing.T) {
		node := document(t, `<presets>
  <preset id="2"><ContentItem source="TUNEIN" location="/b"><itemName>B</itemName></ContentItem></preset>
  <preset id="1"><ContentItem source="TUNEIN" location="/a"><itemName>A</itemName></ContentItem></preset>
</presets>`)
		presets, err := ParsePresets(node)
		require.NoError(t, err)
		require.Len(t, presets, 2)
		require.Equal(t, "2", presets[0].ID)
		require.Equal(t, "B", presets[0].Name())
		require.Equal(t, "1", presets[1].ID)
		require.Equal(t, `<ContentItem source="TUNEIN" location="/a"><itemName>A</itemName></ContentItem>`, presets[1].SourceXML)
	})

	t.Run("empty list", func(t *testing.T) {
		presets, err := ParsePresets(document(t, `<presets/>`))
		require.NoError(t, err)
		require.Empty(t, presets)
	})

	t.Run("preset without content item", func(t *testing.T) {
		_, err := ParsePresets(document(t, `<presets><preset id="1"/></presets>`))
		require.True(t, apperrors.IsParse(err))
	})
}

func TestParseZoneStatus(t *testing.T) {
	t.Run("slave view", func(t *testing.T) {
		zone := ParseZoneStatus(document(t, `<zone master="M1" senderIPAddress="10.0.0.1"><member ipaddress="10.0.0.2" role="NORMAL">S1</member><member ipaddress="10.0.0.3">S2</member></zone>`))
		require.NotNil(t, zone)
		require.Equal(t, "M1", zone.MasterID)
		require.Equal(t, "10.0.0.1", zone.MasterIP)
		require.False(t, zone.IsMaster)
		require.Equal(t, []ZoneSlave{{IP: "10.0.0.2", Role: "NORMAL"}, {IP: "10.0.0.3"}}, zone.Slaves)
	})

	t.Run("master view", func(t *testing.T) {
		zone := ParseZoneStatus(document(t, `<zone master="M1"><member ipaddress="10.0.0.2">S1</member></zone>`))
		require.NotNil(t, zone)
		require.True(t, zone.IsMaster)
		require.Empty(t, zone.MasterIP)
	})

	t.Run("no members", func(t *testing.T) {
		require.Nil(t, ParseZoneStatus(document(t, `<zone/>`)))
	})
}

func TestParseConfig(t *testing.T) {
	cfg := ParseConfig(document(t, `<info deviceID="689E19B8BB8A">
  <name>Living Room</name>
  <type>SoundTouch 10</type>
  <margeAccountUUID>1234</margeAccountUUID>
  <components>
    <component><componentCategory>SCM</componentCategory><softwareVersion>13.0.9</softwareVersion><serialNumber>XYZ</serialNumber></component>
    <component><componentCategory>PackagedProduct</componentCategory></component>
  </components>
  <moduleType>sm2</moduleType>
  <variant>rhino</variant>
  <variantMode>normal</variantMode>
  <countryCode>GB</countryCode>
  <regionCode>GB</regionCode>
  <networkInfo type="SCM"><macAddress>AA</macAddress><ipAddress>192.168.1.2</ipAddress></networkInfo>
  <networkInfo type="SMSC"><macAddress>BB</macAddress><ipAddress>192.168.1.3</ipAddress></networkInfo>
</info>`))

	require.Equal(t, "689E19B8BB8A", cfg.DeviceID)
	require.Equal(t, "Living Room", cfg.Name)
	require.Equal(t, "SoundTouch 10", cfg.Type)
	require.Equal(t, "1234", cfg.AccountUUID)
	require.Equal(t, "sm2", cfg.ModuleType)
	require.Equal(t, "rhino", cfg.Variant)
	require.Equal(t, "GB", cfg.CountryCode)
	require.Len(t, cfg.Components, 2)
	require.Equal(t, "13.0.9", cfg.Components[0].SoftwareVersion)
	require.Empty(t, cfg.Components[1].SerialNumber)
	require.Len(t, cfg.Networks, 2)
	require.Equal(t, "192.168.1.3", cfg.DeviceIP())
	require.Equal(t, "BB", cfg.MACAddress())

	t.Run("falls back to first network", func(t *testing.T) {
		cfg := &Config{Networks: []Network{{Type: "SCM", IPAddress: "1.2.3.4", MACAddress: "CC"}}}
		require.Equal(t, "1.2.3.4", cfg.DeviceIP())
		require.Equal(t, "CC", cfg.MACAddress())
		require.Empty(t, (&Config{}).DeviceIP())
	})
}
