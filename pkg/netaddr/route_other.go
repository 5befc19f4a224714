//go:build !windows && !linux && !darwin && !dragonfly && !freebsd && !netbsd && !openbsd

package netaddr

import (
	"errors"
	"runtime"
)

// SystemRoutes returns a source that always fails on this platform, so
// every interface ranks as unreachable
func SystemRoutes() RouteSource {
	return RouteSourceFunc(func() ([]RouteRow, error) {
		return nil, errors.New("route table not supported on " + runtime.GOOS)
	})
}
