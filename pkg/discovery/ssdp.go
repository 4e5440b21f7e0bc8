package discovery

import (
	"bufio"
	"context"
	"net"
	"net/url"
	"strings"
	"time"
)

const (
	ssdpAddr = "239.255.255.250:1900"
	// Speakers answer as DLNA media renderers.
	ssdpTarget = "urn:schemas-upnp-org:device:MediaRenderer:1"
)

// SSDPResponse is one answer to an M-SEARCH.
type SSDPResponse struct {
	Location string
	USN      string
	Server   string
	Headers  map[string]string
}

// Host returns the host part of Location.
func (r SSDPResponse) Host() string {
	if r.Location == "" {
		return ""
	}
	parsed, err := url.Parse(r.Location)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(parsed.Hostname())
}

// SearchSSDP sends passes M-SEARCH requests and collects answers until
// timeout. Answers are deduplicated by USN.
func SearchSSDP(ctx context.Context, passes int, passInterval, timeout time.Duration) ([]SSDPResponse, error) {
	if passes < 1 {
		passes = 1
	}
	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	addr, err := net.ResolveUDPAddr("udp4", ssdpAddr)
	if err != nil {
		return nil, err
	}

	responses := make(map[string]SSDPResponse)
	order := make([]string, 0)

	for pass := 0; pass < passes; pass++ {
		if _, err := conn.WriteTo(searchRequest(), addr); err != nil {
			return nil, err
		}
		if pass < passes-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(passInterval):
			}
		}
	}

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}

	buf := make([]byte, 2048)
	for {
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				break
			}
			return ordered(responses, order), err
		}

		resp := parseSSDPResponse(string(buf[:n]))
		if resp.Location == "" || resp.USN == "" {
			continue
		}
		if _, exists := responses[resp.USN]; !exists {
			responses[resp.USN] = resp
			order = append(order, resp.USN)
		}
	}

	return ordered(responses, order), nil
}

func searchRequest() []byte {
	return []byte(strings.Join([]string{
		"M-SEARCH * HTTP/1.1",
		"HOST: " + ssdpAddr,
		"MAN: \"ssdp:discover\"",
		"MX: 2",
		"ST: " + ssdpTarget,
		"",
		"",
	}, "\r\n"))
}

func parseSSDPResponse(raw string) SSDPResponse {
	scanner := bufio.NewScanner(strings.NewReader(raw))
	headers := make(map[string]string)

	// status line
	scanner.Scan()

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			break
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		headers[strings.ToUpper(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}

	return SSDPResponse{
		Location: headers["LOCATION"],
		USN:      headers["USN"],
		Server:   headers["SERVER"],
		Headers:  headers,
	}
}

func ordered(responses map[string]SSDPResponse, order []string) []SSDPResponse {
	out := make([]SSDPResponse, 0, len(order))
	for _, usn := range order {
		out = append(out, responses[usn])
	}
	return out
}
