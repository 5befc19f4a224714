// Package netaddr selects the local IPv4 address a host should advertise to
// a device on the same network. The choice is driven by the OS routing
// table: the interface with the lowest route metric wins.
package netaddr

import (
	"fmt"
	"net"
	"net/netip"
)

// InterfaceType classifies a network interface
type InterfaceType string

const (
	TypeWiFi     InterfaceType = "wifi"
	TypeEthernet InterfaceType = "ethernet"
	TypeOther    InterfaceType = "other"
)

// InterfaceState is the operational state of an interface
type InterfaceState string

const (
	StateUp   InterfaceState = "up"
	StateDown InterfaceState = "down"
)

// InterfaceRecord describes one network interface at enumeration time
type InterfaceRecord struct {
	Name  string
	Index int
	Type  InterfaceType
	State InterfaceState
	IPv4  []netip.Addr
}

// Active reports whether the interface is up and carries an IPv4 address
func (r InterfaceRecord) Active() bool {
	return r.State == StateUp && len(r.IPv4) > 0
}

// Enumerator lists the host's network interfaces
type Enumerator interface {
	Interfaces() ([]InterfaceRecord, error)
}

// EnumeratorFunc adapts a function to an Enumerator
type EnumeratorFunc func() ([]InterfaceRecord, error)

func (f EnumeratorFunc) Interfaces() ([]InterfaceRecord, error) {
	return f()
}

// SystemEnumerator enumerates interfaces through the net package.
// Loopback interfaces are never reported.
type SystemEnumerator struct{}

func (SystemEnumerator) Interfaces() ([]InterfaceRecord, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list network interfaces: %w", err)
	}

	records := make([]InterfaceRecord, 0, len(ifaces))
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		rec := InterfaceRecord{
			Name:  iface.Name,
			Index: iface.Index,
			Type:  classifyInterface(iface.Name),
			State: StateDown,
		}
		if iface.Flags&net.FlagUp != 0 && iface.Flags&net.FlagRunning != 0 {
			rec.State = StateUp
		}

		// An interface whose addresses can't be read is kept with none
		addrs, err := iface.Addrs()
		if err == nil {
			rec.IPv4 = unicastIPv4(addrs)
		}

		records = append(records, rec)
	}
	return records, nil
}

func unicastIPv4(addrs []net.Addr) []netip.Addr {
	var out []netip.Addr
	for _, a := range addrs {
		var ip net.IP
		switch v := a.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		default:
			continue
		}

		ip4 := ip.To4()
		if ip4 == nil {
			continue
		}
		addr, ok := netip.AddrFromSlice(ip4)
		if !ok || addr.IsLoopback() || addr.IsUnspecified() || addr.IsMulticast() {
			continue
		}
		out = append(out, addr)
	}
	return out
}
