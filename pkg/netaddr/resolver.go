package netaddr

import (
	"context"
	"errors"
	"fmt"
	"net/netip"

	"github.com/sdejongh/devsync/pkg/logging"
)

var (
	// ErrNoActiveInterfaces means no interface is up with an IPv4 address
	ErrNoActiveInterfaces = errors.New("no active network interface with an IPv4 address")

	// ErrNoRoutableInterface means active interfaces exist but none has a route
	ErrNoRoutableInterface = errors.New("no active network interface has a route")
)

// ResolvedAddress is the address a host advertises to its peer
type ResolvedAddress struct {
	Address       netip.Addr
	InterfaceName string
	InterfaceType InterfaceType
	Metric        int
}

func (a ResolvedAddress) String() string {
	return a.Address.String()
}

// Resolver picks the IPv4 address of the active interface with the lowest
// route metric
type Resolver struct {
	enum   Enumerator
	probe  *MetricProbe
	logger logging.Logger
}

// NewResolver creates a resolver. Nil arguments select the system
// enumerator, the system route table and a discarding logger.
func NewResolver(enum Enumerator, routes RouteSource, logger logging.Logger) *Resolver {
	if enum == nil {
		enum = SystemEnumerator{}
	}
	return &Resolver{
		enum:   enum,
		probe:  NewMetricProbe(routes),
		logger: logging.OrNull(logger).WithFields(logging.Fields{"component": "netaddr"}),
	}
}

// Resolve selects the advertised address. Interfaces are visited in
// enumeration order and a later candidate replaces the current one only
// with a strictly lower metric, so ties keep the first seen.
func (r *Resolver) Resolve(ctx context.Context) (*ResolvedAddress, error) {
	records, err := r.enum.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoActiveInterfaces, err)
	}

	active := make([]InterfaceRecord, 0, len(records))
	for _, rec := range records {
		if rec.Active() {
			active = append(active, rec)
		}
	}
	if len(active) == 0 {
		return nil, ErrNoActiveInterfaces
	}

	var best *ResolvedAddress
	bestMetric := Unreachable

	for _, rec := range active {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		metric := r.probe.MetricFor(rec.Index)
		r.logger.Debug(ctx, "interface metric", logging.Fields{
			"interface": rec.Name,
			"index":     rec.Index,
			"type":      string(rec.Type),
			"metric":    metric,
		})

		for _, addr := range rec.IPv4 {
			if metric < bestMetric {
				bestMetric = metric
				best = &ResolvedAddress{
					Address:       addr,
					InterfaceName: rec.Name,
					InterfaceType: rec.Type,
					Metric:        metric,
				}
			}
		}
	}

	if best == nil {
		return nil, ErrNoRoutableInterface
	}

	r.logger.Info(ctx, "resolved local address", logging.Fields{
		"address":   best.Address.String(),
		"interface": best.InterfaceName,
		"metric":    best.Metric,
	})
	return best, nil
}
