package netaddr

import (
	"bufio"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"net/netip"
	"strconv"
	"strings"
)

// RouteRow is one IPv4 forwarding table entry
type RouteRow struct {
	Destination    netip.Addr
	Mask           netip.Addr
	InterfaceIndex int
	Metric         uint32
}

// IsDefault reports whether the row is a default route
func (r RouteRow) IsDefault() bool {
	return r.Destination.IsUnspecified() && (!r.Mask.IsValid() || r.Mask.IsUnspecified())
}

// RouteSource fetches a snapshot of the IPv4 forwarding table
type RouteSource interface {
	Routes() ([]RouteRow, error)
}

// RouteSourceFunc adapts a function to a RouteSource
type RouteSourceFunc func() ([]RouteRow, error)

func (f RouteSourceFunc) Routes() ([]RouteRow, error) {
	return f()
}

// Unreachable is the metric of an interface with no usable route
const Unreachable = math.MaxInt

// MetricProbe computes per-interface route metrics
type MetricProbe struct {
	source RouteSource
}

// NewMetricProbe creates a probe over source (the system table when nil)
func NewMetricProbe(source RouteSource) *MetricProbe {
	if source == nil {
		source = SystemRoutes()
	}
	return &MetricProbe{source: source}
}

// MetricFor returns the lowest metric among the rows routed through the
// interface with the given index. A failed fetch or an interface without
// rows yields Unreachable.
func (p *MetricProbe) MetricFor(index int) int {
	rows, err := p.source.Routes()
	if err != nil {
		return Unreachable
	}
	return minMetric(rows, index)
}

func minMetric(rows []RouteRow, index int) int {
	best := Unreachable
	for _, row := range rows {
		if row.InterfaceIndex != index {
			continue
		}
		m := clampMetric(row.Metric)
		if m < best {
			best = m
		}
	}
	return best
}

// clampMetric keeps a real metric strictly below Unreachable on 32-bit platforms
func clampMetric(m uint32) int {
	if uint64(m) >= uint64(Unreachable) {
		return Unreachable - 1
	}
	return int(m)
}

const (
	forwardTableHeaderSize = 4
	forwardRowSize         = 56
	forwardRowIfIndex      = 16
	forwardRowMetric1      = 36
)

// ParseForwardTable decodes a Windows MIB_IPFORWARDTABLE buffer: a
// little-endian entry count followed by fixed-size MIB_IPFORWARDROW records
func ParseForwardTable(buf []byte) ([]RouteRow, error) {
	if len(buf) < forwardTableHeaderSize {
		return nil, fmt.Errorf("forwarding table truncated: %d bytes", len(buf))
	}

	count := binary.LittleEndian.Uint32(buf[0:4])
	need := uint64(forwardTableHeaderSize) + uint64(count)*forwardRowSize
	if uint64(len(buf)) < need {
		return nil, fmt.Errorf("forwarding table truncated: %d entries need %d bytes, have %d", count, need, len(buf))
	}

	rows := make([]RouteRow, 0, count)
	for i := uint32(0); i < count; i++ {
		rec := buf[forwardTableHeaderSize+int(i)*forwardRowSize:][:forwardRowSize]
		rows = append(rows, RouteRow{
			Destination:    netip.AddrFrom4([4]byte(rec[0:4])),
			Mask:           netip.AddrFrom4([4]byte(rec[4:8])),
			InterfaceIndex: int(binary.LittleEndian.Uint32(rec[forwardRowIfIndex:])),
			Metric:         binary.LittleEndian.Uint32(rec[forwardRowMetric1:]),
		})
	}
	return rows, nil
}

// ParseProcRoute decodes the Linux /proc/net/route format. indexOf maps an
// interface name to its index; rows for interfaces it cannot resolve are
// dropped.
func ParseProcRoute(r io.Reader, indexOf func(name string) (int, error)) ([]RouteRow, error) {
	scanner := bufio.NewScanner(r)

	// Header: Iface Destination Gateway Flags RefCnt Use Metric Mask ...
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read route table: %w", err)
		}
		return nil, nil
	}

	var rows []RouteRow
	for line := 2; scanner.Scan(); line++ {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 8 {
			return nil, fmt.Errorf("route table line %d: expected at least 8 columns, got %d", line, len(fields))
		}

		dest, err := parseHexIPv4(fields[1])
		if err != nil {
			return nil, fmt.Errorf("route table line %d: destination: %w", line, err)
		}
		mask, err := parseHexIPv4(fields[7])
		if err != nil {
			return nil, fmt.Errorf("route table line %d: mask: %w", line, err)
		}
		metric, err := strconv.ParseUint(fields[6], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("route table line %d: metric: %w", line, err)
		}

		index, err := indexOf(fields[0])
		if err != nil {
			continue
		}

		rows = append(rows, RouteRow{
			Destination:    dest,
			Mask:           mask,
			InterfaceIndex: index,
			Metric:         uint32(metric),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read route table: %w", err)
	}
	return rows, nil
}

// parseHexIPv4 decodes the host-order hex form used by /proc/net/route
func parseHexIPv4(s string) (netip.Addr, error) {
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 4 {
		return netip.Addr{}, fmt.Errorf("invalid address %q", s)
	}
	return netip.AddrFrom4([4]byte{b[3], b[2], b[1], b[0]}), nil
}
