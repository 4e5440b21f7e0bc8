package system

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch"
)

type staticDevices []*soundtouch.Device

func (s staticDevices) Devices() []*soundtouch.Device { return s }

func TestGetSystemInfoWithoutBroker(t *testing.T) {
	info := NewService(nil, nil, "").GetSystemInfo()

	require.Equal(t, Version, info.HubVersion)
	require.GreaterOrEqual(t, info.Uptime, int64(0))
	require.Positive(t, info.Goroutines)
	require.False(t, info.MQTTEnabled)
	require.False(t, info.MQTTConnected)
	require.Zero(t, info.DevicesTotal)
}

func TestGetSystemInfoCountsDevices(t *testing.T) {
	quiet := soundtouch.WithLogger(log.New(io.Discard, "", 0))
	devices := staticDevices{
		soundtouch.New("10.0.0.5", quiet),
		soundtouch.New("10.0.0.6", quiet),
	}
	info := NewService(devices, func() bool { return true }, "@every 5m").GetSystemInfo()

	require.Equal(t, 2, info.DevicesTotal)
	require.Zero(t, info.DevicesNotifying)
	require.True(t, info.MQTTEnabled)
	require.True(t, info.MQTTConnected)
	require.Equal(t, "@every 5m", info.ResyncSchedule)
	require.Zero(t, info.Notifications.Received)
}

func TestSystemInfoRoute(t *testing.T) {
	router := chi.NewRouter()
	RegisterRoutes(router, NewService(staticDevices{}, nil, ""))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/system/info", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, Version, body["hub_version"])
	require.Contains(t, body, "notifications")
	require.NotContains(t, body, "resync_schedule")
}
