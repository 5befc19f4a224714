//go:build windows

package netaddr

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modiphlpapi           = windows.NewLazySystemDLL("iphlpapi.dll")
	procGetIpForwardTable = modiphlpapi.NewProc("GetIpForwardTable")
)

// fetchAttempts bounds the size/fetch loop when the table grows in between
const fetchAttempts = 3

type forwardTableSource struct{}

// SystemRoutes returns the IPv4 forwarding table of the host
func SystemRoutes() RouteSource {
	return forwardTableSource{}
}

func (forwardTableSource) Routes() ([]RouteRow, error) {
	if err := procGetIpForwardTable.Find(); err != nil {
		return nil, fmt.Errorf("GetIpForwardTable unavailable: %w", err)
	}

	var size uint32
	r, _, _ := procGetIpForwardTable.Call(0, uintptr(unsafe.Pointer(&size)), 0)
	switch errno := windows.Errno(r); {
	case errno == windows.ERROR_NO_DATA:
		// An empty table is not an error; every interface then ranks Unreachable
		return nil, nil
	case errno != windows.ERROR_INSUFFICIENT_BUFFER:
		return nil, fmt.Errorf("GetIpForwardTable size query: %w", errno)
	}

	for i := 0; i < fetchAttempts; i++ {
		buf := make([]byte, size)
		r, _, _ = procGetIpForwardTable.Call(
			uintptr(unsafe.Pointer(&buf[0])),
			uintptr(unsafe.Pointer(&size)),
			0,
		)
		switch errno := windows.Errno(r); {
		case r == 0:
			return ParseForwardTable(buf)
		case errno == windows.ERROR_INSUFFICIENT_BUFFER:
			continue
		default:
			return nil, fmt.Errorf("GetIpForwardTable: %w", errno)
		}
	}
	return nil, errors.New("GetIpForwardTable: table kept growing")
}
