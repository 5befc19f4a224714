//go:build linux

package netaddr

import (
	"fmt"
	"net"
	"os"
)

var procNetRoute = "/proc/net/route"

type procRouteSource struct{}

// SystemRoutes returns the IPv4 forwarding table of the host
func SystemRoutes() RouteSource {
	return procRouteSource{}
}

func (procRouteSource) Routes() ([]RouteRow, error) {
	f, err := os.Open(procNetRoute)
	if err != nil {
		return nil, fmt.Errorf("failed to open route table: %w", err)
	}
	defer f.Close()

	return ParseProcRoute(f, func(name string) (int, error) {
		iface, err := net.InterfaceByName(name)
		if err != nil {
			return 0, err
		}
		return iface.Index, nil
	})
}
