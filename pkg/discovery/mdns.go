// Package discovery finds SoundTouch speakers on the local network.
package discovery

import (
	"context"
	"net"
	"slices"
	"strings"

	"github.com/enbility/zeroconf/v3"
)

const (
	// ServiceType is the mDNS service speakers advertise.
	ServiceType = "_soundtouch._tcp"
	// Domain is the mDNS browse domain.
	Domain = "local."
)

// Service is one speaker seen over mDNS. Addresses from every interface the
// announcement arrived on are merged.
type Service struct {
	Instance  string
	HostName  string
	Port      int
	Addresses []string
	Text      map[string]string
}

// Host returns the address to contact the speaker at, preferring IPv4.
func (s *Service) Host() string {
	for _, addr := range s.Addresses {
		if ip := net.ParseIP(addr); ip != nil && ip.To4() != nil {
			return addr
		}
	}
	if len(s.Addresses) > 0 {
		return s.Addresses[0]
	}
	return strings.TrimSuffix(s.HostName, ".")
}

// BrowseMDNS collects speakers until ctx ends. iface, when set, limits the
// browse to one network interface.
func BrowseMDNS(ctx context.Context, iface string) ([]*Service, error) {
	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	var opts []zeroconf.ClientOption
	if iface != "" {
		ifi, err := net.InterfaceByName(iface)
		if err != nil {
			return nil, err
		}
		opts = append(opts, zeroconf.SelectIfaces([]net.Interface{*ifi}))
	}

	browseErr := make(chan error, 1)
	go func() {
		browseErr <- zeroconf.Browse(ctx, ServiceType, Domain, entries, removed, opts...)
	}()

	services := make(map[string]*Service)
	var order []string

	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				entries = nil
				continue
			}
			svc := entryToService(entry)
			if existing, found := services[svc.Instance]; found {
				existing.Addresses = mergeAddresses(existing.Addresses, svc.Addresses)
				continue
			}
			if !slices.Contains(order, svc.Instance) {
				order = append(order, svc.Instance)
			}
			services[svc.Instance] = svc

		case entry, ok := <-removed:
			if !ok {
				removed = nil
				continue
			}
			if existing, found := services[entry.Instance]; found {
				existing.Addresses = removeAddresses(existing.Addresses, entry)
				if len(existing.Addresses) == 0 {
					delete(services, entry.Instance)
				}
			}

		case <-ctx.Done():
			return collect(services, order), nil

		case err := <-browseErr:
			if err != nil && ctx.Err() == nil {
				return collect(services, order), err
			}
			browseErr = nil
		}
	}
}

func collect(services map[string]*Service, order []string) []*Service {
	out := make([]*Service, 0, len(order))
	for _, name := range order {
		if svc, ok := services[name]; ok {
			out = append(out, svc)
		}
	}
	return out
}

func entryToService(entry *zeroconf.ServiceEntry) *Service {
	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}
	return &Service{
		Instance:  entry.Instance,
		HostName:  entry.HostName,
		Port:      entry.Port,
		Addresses: addrs,
		Text:      parseText(entry.Text),
	}
}

// parseText turns key=value TXT strings into a map.
func parseText(records []string) map[string]string {
	out := make(map[string]string, len(records))
	for _, record := range records {
		key, value, _ := strings.Cut(record, "=")
		if key != "" {
			out[key] = value
		}
	}
	return out
}

func mergeAddresses(existing, add []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, addr := range existing {
		seen[addr] = true
	}
	for _, addr := range add {
		if !seen[addr] {
			existing = append(existing, addr)
			seen[addr] = true
		}
	}
	return existing
}

func removeAddresses(addresses []string, entry *zeroconf.ServiceEntry) []string {
	drop := make(map[string]bool)
	for _, ip := range entry.AddrIPv4 {
		drop[ip.String()] = true
	}
	for _, ip := range entry.AddrIPv6 {
		drop[ip.String()] = true
	}
	result := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		if !drop[addr] {
			result = append(result, addr)
		}
	}
	return result
}
