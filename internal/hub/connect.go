package hub

import (
	"context"
	"net"
	"strconv"

	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch"
)

// Connector returns a ConnectFunc that applies opts to every device. A host
// given as host:port overrides the HTTP port only.
func Connector(opts ...soundtouch.Option) ConnectFunc {
	return func(ctx context.Context, host string) (*soundtouch.Device, error) {
		deviceOpts := append([]soundtouch.Option(nil), opts...)
		if h, p, err := net.SplitHostPort(host); err == nil {
			if port, err := strconv.Atoi(p); err == nil {
				host = h
				deviceOpts = append(deviceOpts, soundtouch.WithPorts(port, 0, 0))
			}
		}
		return soundtouch.NewDevice(ctx, host, deviceOpts...)
	}
}
