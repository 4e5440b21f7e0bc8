package discovery

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/enbility/zeroconf/v3"
	"github.com/stretchr/testify/require"

	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch/model"
)

func TestParseSSDPResponse(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\n" +
		"CACHE-CONTROL: max-age=1800\r\n" +
		"Location: http://192.168.1.20:8091/XD/BO5EBO5E-F00D-F00D-FEED-08DF1F0A1B2C.xml\r\n" +
		"SERVER: Linux UPnP/1.0 Bose\r\n" +
		"USN: uuid:BO5EBO5E-F00D-F00D-FEED-08DF1F0A1B2C::urn:schemas-upnp-org:device:MediaRenderer:1\r\n" +
		"\r\n"

	resp := parseSSDPResponse(raw)
	require.Equal(t, "http://192.168.1.20:8091/XD/BO5EBO5E-F00D-F00D-FEED-08DF1F0A1B2C.xml", resp.Location)
	require.Equal(t, "Linux UPnP/1.0 Bose", resp.Server)
	require.True(t, strings.HasPrefix(resp.USN, "uuid:BO5EBO5E"))
	require.Equal(t, "max-age=1800", resp.Headers["CACHE-CONTROL"])
	require.Equal(t, "192.168.1.20", resp.Host())
}

func TestSSDPResponseHostWithoutLocation(t *testing.T) {
	require.Empty(t, SSDPResponse{}.Host())
	require.Empty(t, parseSSDPResponse("HTTP/1.1 200 OK\r\n\r\n").Host())
}

func TestSearchRequest(t *testing.T) {
	req := string(searchRequest())
	require.True(t, strings.HasPrefix(req, "M-SEARCH * HTTP/1.1\r\n"))
	require.Contains(t, req, "ST: urn:schemas-upnp-org:device:MediaRenderer:1\r\n")
	require.Contains(t, req, "MAN: \"ssdp:discover\"\r\n")
	require.True(t, strings.HasSuffix(req, "\r\n\r\n"))
}

func TestParseText(t *testing.T) {
	txt := parseText([]string{"MAC=08DF1F0A1B2C", "MANUFACTURER=Bose Corporation", "flag", ""})
	require.Equal(t, "08DF1F0A1B2C", txt["MAC"])
	require.Equal(t, "Bose Corporation", txt["MANUFACTURER"])
	require.Contains(t, txt, "flag")
	require.Len(t, txt, 3)
}

func newEntry(instance string, v4 ...string) *zeroconf.ServiceEntry {
	entry := zeroconf.NewServiceEntry(instance, ServiceType, Domain)
	entry.HostName = "speaker.local."
	entry.Port = 8090
	for _, addr := range v4 {
		entry.AddrIPv4 = append(entry.AddrIPv4, net.ParseIP(addr))
	}
	return entry
}

func TestEntryToService(t *testing.T) {
	entry := newEntry("Kitchen", "192.168.1.20")
	entry.AddrIPv6 = []net.IP{net.ParseIP("fe80::1")}
	entry.Text = []string{"DESCRIPTION=SoundTouch"}

	svc := entryToService(entry)
	require.Equal(t, "Kitchen", svc.Instance)
	require.Equal(t, 8090, svc.Port)
	require.Equal(t, []string{"192.168.1.20", "fe80::1"}, svc.Addresses)
	require.Equal(t, "SoundTouch", svc.Text["DESCRIPTION"])
}

func TestServiceHostPrefersIPv4(t *testing.T) {
	svc := &Service{Addresses: []string{"fe80::1", "192.168.1.20"}}
	require.Equal(t, "192.168.1.20", svc.Host())

	svc = &Service{Addresses: []string{"fe80::1"}}
	require.Equal(t, "fe80::1", svc.Host())

	svc = &Service{HostName: "speaker.local."}
	require.Equal(t, "speaker.local", svc.Host())
}

func TestMergeAndRemoveAddresses(t *testing.T) {
	merged := mergeAddresses([]string{"192.168.1.20"}, []string{"192.168.1.20", "10.0.0.5"})
	require.Equal(t, []string{"192.168.1.20", "10.0.0.5"}, merged)

	left := removeAddresses(merged, newEntry("Kitchen", "10.0.0.5"))
	require.Equal(t, []string{"192.168.1.20"}, left)

	require.Empty(t, removeAddresses(left, newEntry("Kitchen", "192.168.1.20")))
}

func TestCollectKeepsOrder(t *testing.T) {
	services := map[string]*Service{
		"b": {Instance: "b"},
		"a": {Instance: "a"},
	}
	out := collect(services, []string{"b", "gone", "a"})
	require.Len(t, out, 2)
	require.Equal(t, "b", out[0].Instance)
	require.Equal(t, "a", out[1].Instance)
}

func TestDiscoverProbesKnownHostsOnce(t *testing.T) {
	var buf bytes.Buffer
	probed := make([]string, 0)
	probe := func(_ context.Context, host string) (*model.Config, error) {
		probed = append(probed, host)
		if host == "10.0.0.9" {
			return nil, errors.New("connection refused")
		}
		return &model.Config{DeviceID: "ID-" + host, Name: "Speaker " + host}, nil
	}

	found, err := discover(context.Background(), Options{
		KnownHosts: []string{"10.0.0.5", "10.0.0.9", "10.0.0.5", ""},
		Logger:     log.New(&buf, "", 0),
	}, probe)
	require.NoError(t, err)

	require.Equal(t, []string{"10.0.0.5", "10.0.0.9"}, probed)
	require.Len(t, found, 1)
	require.Equal(t, "10.0.0.5", found[0].Host)
	require.Equal(t, MethodKnown, found[0].Method)
	require.Equal(t, "ID-10.0.0.5", found[0].Config.DeviceID)
	require.False(t, found[0].DiscoveredAt.IsZero())

	require.Contains(t, buf.String(), "DISCOVERY: Probe of 10.0.0.9 (known) failed")
	require.Contains(t, buf.String(), "DISCOVERY: Complete, 1 speaker(s) found")
}

func TestDiscoverProbeGetsDeadline(t *testing.T) {
	var hadDeadline bool
	probe := func(ctx context.Context, _ string) (*model.Config, error) {
		_, hadDeadline = ctx.Deadline()
		return &model.Config{}, nil
	}
	_, err := discover(context.Background(), Options{
		KnownHosts:   []string{"10.0.0.5"},
		ProbeTimeout: time.Second,
		Logger:       log.New(&bytes.Buffer{}, "", 0),
	}, probe)
	require.NoError(t, err)
	require.True(t, hadDeadline)
}

func TestProbeInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/info", r.URL.Path)
		_, _ = w.Write([]byte(`<info deviceID="08DF1F0A1B2C"><name>Kitchen</name><type>SoundTouch 10</type></info>`))
	}))
	defer srv.Close()

	// ProbeInfo targets the default port, so go through a client bound to
	// the test server instead.
	addr := srv.Listener.Addr().(*net.TCPAddr)
	cfg, err := probeAt(context.Background(), addr.IP.String(), addr.Port)
	require.NoError(t, err)
	require.Equal(t, "08DF1F0A1B2C", cfg.DeviceID)
	require.Equal(t, "Kitchen", cfg.Name)
}

func TestDiscoverDevicesKnownHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<info deviceID="ABC"><name>Den</name></info>`))
	}))
	defer srv.Close()

	addr := srv.Listener.Addr().(*net.TCPAddr)
	found, err := DiscoverDevices(context.Background(), Options{
		KnownHosts: []string{addr.IP.String()},
		Port:       addr.Port,
		Logger:     log.New(&bytes.Buffer{}, "", 0),
	})
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "Den", found[0].Config.Name)
}
