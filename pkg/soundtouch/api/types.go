package api

import "strings"

// Key is a remote-control key accepted by /key.
type Key string

const (
	KeyPlay           Key = "PLAY"
	KeyPause          Key = "PAUSE"
	KeyPlayPause      Key = "PLAY_PAUSE"
	KeyPrevTrack      Key = "PREV_TRACK"
	KeyNextTrack      Key = "NEXT_TRACK"
	KeyMute           Key = "MUTE"
	KeyShuffleOn      Key = "SHUFFLE_ON"
	KeyShuffleOff     Key = "SHUFFLE_OFF"
	KeyRepeatOne      Key = "REPEAT_ONE"
	KeyRepeatAll      Key = "REPEAT_ALL"
	KeyRepeatOff      Key = "REPEAT_OFF"
	KeyAddFavorite    Key = "ADD_FAVORITE"
	KeyRemoveFavorite Key = "REMOVE_FAVORITE"
	KeyThumbsUp       Key = "THUMBS_UP"
	KeyThumbsDown     Key = "THUMBS_DOWN"
	KeyBookmark       Key = "BOOKMARK"
	KeyPower          Key = "POWER"
	KeyVolumeUp       Key = "VOLUME_UP"
	KeyVolumeDown     Key = "VOLUME_DOWN"
	KeyPreset1        Key = "PRESET_1"
	KeyPreset2        Key = "PRESET_2"
	KeyPreset3        Key = "PRESET_3"
	KeyPreset4        Key = "PRESET_4"
	KeyPreset5        Key = "PRESET_5"
	KeyPreset6        Key = "PRESET_6"
	KeyAuxInput       Key = "AUX_INPUT"
)

var knownKeys = map[Key]struct{}{
	KeyPlay: {}, KeyPause: {}, KeyPlayPause: {}, KeyPrevTrack: {}, KeyNextTrack: {},
	KeyMute: {}, KeyShuffleOn: {}, KeyShuffleOff: {}, KeyRepeatOne: {}, KeyRepeatAll: {},
	KeyRepeatOff: {}, KeyAddFavorite: {}, KeyRemoveFavorite: {}, KeyThumbsUp: {},
	KeyThumbsDown: {}, KeyBookmark: {}, KeyPower: {}, KeyVolumeUp: {}, KeyVolumeDown: {},
	KeyPreset1: {}, KeyPreset2: {}, KeyPreset3: {}, KeyPreset4: {}, KeyPreset5: {},
	KeyPreset6: {}, KeyAuxInput: {},
}

// ParseKey returns the Key named s, matched case-insensitively.
func ParseKey(s string) (Key, bool) {
	k := Key(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := knownKeys[k]
	return k, ok
}

// Source is a content source name.
type Source string

const (
	SourceSlave         Source = "SLAVE_SOURCE"
	SourceInternetRadio Source = "INTERNET_RADIO"
	SourcePandora       Source = "PANDORA"
	SourceAirplay       Source = "AIRPLAY"
	SourceStoredMusic   Source = "STORED_MUSIC"
	SourceAux           Source = "AUX"
	SourceOff           Source = "OFF_SOURCE"
	SourceCuratedRadio  Source = "CURRATED_RADIO"
	SourceStandby       Source = "STANDBY"
	SourceDeezer        Source = "DEEZER"
	SourceSpotify       Source = "SPOTIFY"
	SourceIHeart        Source = "IHEART"
	SourceBluetooth     Source = "BLUETOOTH"
	SourceTuneIn        Source = "TUNEIN"
	SourceAmazon        Source = "AMAZON"
	SourceLocalMusic    Source = "LOCAL_MUSIC"
	SourceUPnP          Source = "UPNP"
)

// MediaType is the type attribute of a ContentItem.
type MediaType string

const (
	MediaURI      MediaType = "uri"
	MediaTrack    MediaType = "track"
	MediaAlbum    MediaType = "album"
	MediaPlaylist MediaType = "playlist"
)

// ContentSelection describes a ContentItem to post to /select. Empty
// fields are left out.
type ContentSelection struct {
	Source        Source
	SourceAccount string
	Location      string
	Type          MediaType
	ItemName      string
}

// ZoneMember is a device taking part in a zone.
type ZoneMember struct {
	DeviceID string
	IP       string
}

// ZoneRequest is the body of /setZone, /addZoneSlave and /removeZoneSlave.
// SenderIP is only sent when creating a zone.
type ZoneRequest struct {
	MasterID string
	SenderIP string
	Members  []ZoneMember
}
