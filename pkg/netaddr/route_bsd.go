//go:build darwin || dragonfly || freebsd || netbsd || openbsd

package netaddr

import (
	"fmt"
	"net/netip"
	"syscall"

	"golang.org/x/net/route"
)

type ribSource struct{}

// SystemRoutes returns the IPv4 forwarding table of the host. BSD kernels
// keep no per-route metric, so default routes rank 0 and all others 1.
func SystemRoutes() RouteSource {
	return ribSource{}
}

func (ribSource) Routes() ([]RouteRow, error) {
	rib, err := route.FetchRIB(syscall.AF_INET, route.RIBTypeRoute, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch routing table: %w", err)
	}
	msgs, err := route.ParseRIB(route.RIBTypeRoute, rib)
	if err != nil {
		return nil, fmt.Errorf("failed to parse routing table: %w", err)
	}

	var rows []RouteRow
	for _, msg := range msgs {
		rm, ok := msg.(*route.RouteMessage)
		if !ok || rm.Flags&syscall.RTF_UP == 0 || rm.Index == 0 {
			continue
		}

		row := RouteRow{
			Destination:    ribAddr(rm.Addrs, syscall.RTAX_DST),
			Mask:           ribAddr(rm.Addrs, syscall.RTAX_NETMASK),
			InterfaceIndex: rm.Index,
			Metric:         1,
		}
		if !row.Destination.IsValid() {
			continue
		}
		if row.IsDefault() {
			row.Metric = 0
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func ribAddr(addrs []route.Addr, i int) netip.Addr {
	if i >= len(addrs) {
		return netip.Addr{}
	}
	if a, ok := addrs[i].(*route.Inet4Addr); ok {
		return netip.AddrFrom4(a.IP)
	}
	return netip.Addr{}
}
