package discovery

import (
	"context"
	"log"
	"time"

	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch/api"
	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch/model"
)

// Method names how a speaker was found.
type Method string

const (
	MethodMDNS  Method = "mdns"
	MethodSSDP  Method = "ssdp"
	MethodKnown Method = "known"
)

// Found is a speaker that answered /info.
type Found struct {
	Host         string
	Method       Method
	Config       *model.Config
	DiscoveredAt time.Time
}

// Options controls DiscoverDevices.
type Options struct {
	Timeout      time.Duration
	MDNS         bool
	SSDP         bool
	SSDPPasses   int
	Interface    string
	KnownHosts   []string
	ProbeTimeout time.Duration
	// Port is the HTTP API port probed on each candidate. Zero means 8090.
	Port   int
	Logger *log.Logger
}

// Prober loads the identity of a candidate host.
type Prober func(ctx context.Context, host string) (*model.Config, error)

// ProbeInfo asks host for /info on the default port.
func ProbeInfo(ctx context.Context, host string) (*model.Config, error) {
	return probeAt(ctx, host, 0)
}

func probeAt(ctx context.Context, host string, port int) (*model.Config, error) {
	return api.NewClient(host, api.Config{Port: port}).Info(ctx)
}

// DiscoverDevices browses mDNS and SSDP, then probes every candidate and
// the known hosts not seen on the network. Hosts that do not answer /info
// are skipped.
func DiscoverDevices(ctx context.Context, opts Options) ([]*Found, error) {
	return discover(ctx, opts, func(ctx context.Context, host string) (*model.Config, error) {
		return probeAt(ctx, host, opts.Port)
	})
}

func discover(ctx context.Context, opts Options, probe Prober) ([]*Found, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 3 * time.Second
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = 5 * time.Second
	}

	type candidate struct {
		host   string
		method Method
	}
	var candidates []candidate
	seen := make(map[string]struct{})
	add := func(host string, method Method) {
		if host == "" {
			return
		}
		if _, ok := seen[host]; ok {
			return
		}
		seen[host] = struct{}{}
		candidates = append(candidates, candidate{host: host, method: method})
	}

	if opts.MDNS {
		browseCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
		services, err := BrowseMDNS(browseCtx, opts.Interface)
		cancel()
		if err != nil {
			logger.Printf("DISCOVERY: mDNS browse failed: %v", err)
		}
		for _, svc := range services {
			add(svc.Host(), MethodMDNS)
		}
	}

	if opts.SSDP {
		responses, err := SearchSSDP(ctx, opts.SSDPPasses, 500*time.Millisecond, opts.Timeout)
		if err != nil {
			logger.Printf("DISCOVERY: SSDP search failed: %v", err)
		}
		for _, resp := range responses {
			add(resp.Host(), MethodSSDP)
		}
	}

	for _, host := range opts.KnownHosts {
		add(host, MethodKnown)
	}

	found := make([]*Found, 0, len(candidates))
	for _, c := range candidates {
		// each probe gets its own deadline
		probeCtx, cancel := context.WithTimeout(ctx, opts.ProbeTimeout)
		cfg, err := probe(probeCtx, c.host)
		cancel()
		if err != nil {
			logger.Printf("DISCOVERY: Probe of %s (%s) failed: %v", c.host, c.method, err)
			continue
		}
		found = append(found, &Found{
			Host:         c.host,
			Method:       c.method,
			Config:       cfg,
			DiscoveredAt: time.Now(),
		})
		logger.Printf("DISCOVERY: Found %s at %s via %s", cfg.Name, c.host, c.method)
	}

	logger.Printf("DISCOVERY: Complete, %d speaker(s) found", len(found))
	return found, nil
}
