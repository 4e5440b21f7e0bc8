package server

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/strefethen/soundtouch-hub-go/internal/api"
	"github.com/strefethen/soundtouch-hub-go/internal/apperrors"
	"github.com/strefethen/soundtouch-hub-go/internal/auth"
	"github.com/strefethen/soundtouch-hub-go/internal/config"
	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch"
	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch/model"
)

type fakeSource struct {
	order   []string
	devices map[string]*soundtouch.Device
}

func (f *fakeSource) Devices() []*soundtouch.Device {
	out := make([]*soundtouch.Device, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.devices[id])
	}
	return out
}

func (f *fakeSource) Device(id string) (*soundtouch.Device, bool) {
	d, ok := f.devices[id]
	return d, ok
}

func (f *fakeSource) add(id string, d *soundtouch.Device) {
	if f.devices == nil {
		f.devices = make(map[string]*soundtouch.Device)
	}
	f.order = append(f.order, id)
	f.devices[id] = d
}

type speakerAPI struct {
	mu    sync.Mutex
	posts []string
	host  string
	port  int
}

func newSpeakerAPI(t *testing.T) *speakerAPI {
	t.Helper()
	s := &speakerAPI{}
	replies := map[string]string{
		"/info":        `<info deviceID="ABC"><name>Kitchen</name><type>SoundTouch 20</type><networkInfo type="SMSC"><macAddress>08DF1F0A1B2C</macAddress><ipAddress>10.0.0.5</ipAddress></networkInfo></info>`,
		"/volume":      `<volume><targetvolume>33</targetvolume><actualvolume>33</actualvolume><muteenabled>false</muteenabled></volume>`,
		"/now_playing": `<nowPlaying source="SPOTIFY"><ContentItem source="SPOTIFY" type="uri" location="spotify:track:1" isPresetable="true"><itemName>Song</itemName></ContentItem><track>Song</track><artist>Band</artist></nowPlaying>`,
		"/presets":     `<presets><preset id="1"><ContentItem source="TUNEIN" location="/v1/playback/station/s1" isPresetable="true"><itemName>Radio</itemName></ContentItem></preset></presets>`,
		"/getZone":     `<zone/>`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			body, _ := io.ReadAll(r.Body)
			s.mu.Lock()
			s.posts = append(s.posts, r.URL.Path+" "+string(body))
			s.mu.Unlock()
			return
		}
		_, _ = io.WriteString(w, replies[r.URL.Path])
	}))
	t.Cleanup(srv.Close)
	addr := srv.Listener.Addr().(*net.TCPAddr)
	s.host, s.port = addr.IP.String(), addr.Port
	return s
}

func (s *speakerAPI) posted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.posts...)
}

func (s *speakerAPI) device(t *testing.T) *soundtouch.Device {
	t.Helper()
	d, err := soundtouch.NewDevice(context.Background(), s.host,
		soundtouch.WithPorts(s.port, s.port, s.port),
		soundtouch.WithTimeout(2*time.Second),
		soundtouch.WithLogger(log.New(io.Discard, "", 0)))
	require.NoError(t, err)
	return d
}

// closedPort returns a local port nothing listens on.
func closedPort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

type fixture struct {
	handler http.Handler
	speaker *speakerAPI
	source  *fakeSource
}

func newFixture(t *testing.T, cfg config.Config) *fixture {
	t.Helper()
	s := newSpeakerAPI(t)
	source := &fakeSource{}
	source.add("ABC", s.device(t))
	source.add("EMPTY", soundtouch.New("127.0.0.1",
		soundtouch.WithPorts(closedPort(t), 0, 0),
		soundtouch.WithTimeout(time.Second),
		soundtouch.WithLogger(log.New(io.Discard, "", 0))))
	return &fixture{
		handler: NewHandler(cfg, source, nil, log.New(io.Discard, "", 0)),
		speaker: s,
		source:  source,
	}
}

func (f *fixture) do(t *testing.T, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func TestHealth(t *testing.T) {
	f := newFixture(t, config.Config{})

	rec := f.do(t, http.MethodGet, "/v1/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	require.Equal(t, "healthy", body["status"])
	require.EqualValues(t, 2, body["devices"])
	require.NotEmpty(t, rec.Header().Get(api.RequestIDHeader))

	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/v1/health/ready/", "").Code)

	empty := NewHandler(config.Config{}, &fakeSource{}, nil, log.New(io.Discard, "", 0))
	rec = httptest.NewRecorder()
	empty.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/health/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestListDevices(t *testing.T) {
	f := newFixture(t, config.Config{})

	rec := f.do(t, http.MethodGet, "/v1/devices", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[struct {
		Object string          `json:"object"`
		Data   []DeviceSummary `json:"data"`
	}](t, rec)
	require.Equal(t, "list", body.Object)
	require.Len(t, body.Data, 2)
	require.Equal(t, "ABC", body.Data[0].ID)
	require.Equal(t, "Kitchen", body.Data[0].Name)
	require.Equal(t, "08DF1F0A1B2C", body.Data[0].MACAddress)
	require.Contains(t, body.Data[0].UpdatedAt, "device_info")
	require.False(t, body.Data[0].NotificationRunning)
	require.Empty(t, body.Data[1].ID)
}

func TestSnapshots(t *testing.T) {
	f := newFixture(t, config.Config{})

	t.Run("before refresh", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/v1/devices/ABC/volume", "")
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, apperrors.ErrorCodeNotFound, decode[api.ErrorResponse](t, rec).Error.Code)

		rec = f.do(t, http.MethodGet, "/v1/devices/ABC/info", "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "Kitchen", decode[model.Config](t, rec).Name)
	})

	t.Run("unknown device", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/v1/devices/NOPE/status", "")
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, apperrors.ErrorCodeDeviceNotFound, decode[api.ErrorResponse](t, rec).Error.Code)
	})

	t.Run("after refresh", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/v1/devices/ABC/refresh", "")
		require.Equal(t, http.StatusOK, rec.Code)
		summary := decode[DeviceSummary](t, rec)
		require.Len(t, summary.UpdatedAt, 5)

		rec = f.do(t, http.MethodGet, "/v1/devices/ABC/volume", "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, 33, decode[model.Volume](t, rec).Actual)

		rec = f.do(t, http.MethodGet, "/v1/devices/ABC/status", "")
		status := decode[model.Status](t, rec)
		require.Equal(t, "SPOTIFY", status.Source)
		require.Equal(t, "Band", status.Artist)

		rec = f.do(t, http.MethodGet, "/v1/devices/ABC/presets", "")
		presets := decode[[]model.Preset](t, rec)
		require.Len(t, presets, 1)
		require.Equal(t, "Radio", presets[0].Name())

		rec = f.do(t, http.MethodGet, "/v1/devices/ABC/zone", "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Empty(t, decode[model.ZoneStatus](t, rec).MasterID)
	})

	t.Run("refresh failure maps to gateway error", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/v1/devices/EMPTY/refresh", "")
		require.Equal(t, http.StatusBadGateway, rec.Code)
		require.Equal(t, apperrors.ErrorCodeDeviceOffline, decode[api.ErrorResponse](t, rec).Error.Code)
	})
}

func TestCommands(t *testing.T) {
	f := newFixture(t, config.Config{})

	rec := f.do(t, http.MethodPost, "/v1/devices/ABC/key", `{"key":"next_track"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, []string{
		`/key <key state="press" sender="Gabbo">NEXT_TRACK</key>`,
		`/key <key state="release" sender="Gabbo">NEXT_TRACK</key>`,
	}, f.speaker.posted())

	rec = f.do(t, http.MethodPost, "/v1/devices/ABC/key", `{"key":"LOUDER"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPut, "/v1/devices/ABC/volume", `{"level":25}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, `/volume <volume>25</volume>`, f.speaker.posted()[2])

	rec = f.do(t, http.MethodPut, "/v1/devices/ABC/volume", `{"level":250}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = f.do(t, http.MethodPut, "/v1/devices/ABC/volume", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSystemAndOpenAPI(t *testing.T) {
	f := newFixture(t, config.Config{ResyncSchedule: "@every 5m"})

	rec := f.do(t, http.MethodGet, "/v1/system/info", "")
	require.Equal(t, http.StatusOK, rec.Code)
	info := decode[map[string]any](t, rec)
	require.EqualValues(t, 2, info["devices_total"])
	require.Equal(t, "@every 5m", info["resync_schedule"])
	require.Equal(t, false, info["mqtt_enabled"])

	rec = f.do(t, http.MethodGet, "/v1/openapi.json", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/v1/nowhere", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, apperrors.ErrorCodeNotFound, decode[api.ErrorResponse](t, rec).Error.Code)
	require.Equal(t, http.StatusMethodNotAllowed, f.do(t, http.MethodDelete, "/v1/devices", "").Code)
}

func TestAuthRequiredWithSecret(t *testing.T) {
	secret := "0123456789abcdef0123456789abcdef"
	f := newFixture(t, config.Config{JWTSecret: secret})

	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/v1/health", "").Code)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/v1/openapi", "").Code)
	require.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/v1/devices", "").Code)
	require.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/v1/system/info", "").Code)

	token, err := auth.IssueToken(secret, "panel", "", time.Hour)
	require.NoError(t, err)
	rec := f.do(t, http.MethodGet, "/v1/devices", "", "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)
}
