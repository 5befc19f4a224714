//go:build linux

package netaddr

import (
	"os"
	"path/filepath"
	"strings"
)

var sysClassNet = "/sys/class/net"

// classifyInterface reads the interface type from sysfs, falling back to
// the name when sysfs is unavailable
func classifyInterface(name string) InterfaceType {
	dir := filepath.Join(sysClassNet, name)
	if _, err := os.Stat(filepath.Join(dir, "wireless")); err == nil {
		return TypeWiFi
	}
	if _, err := os.Stat(filepath.Join(dir, "phy80211")); err == nil {
		return TypeWiFi
	}

	data, err := os.ReadFile(filepath.Join(dir, "type"))
	if err != nil {
		return classifyByName(name)
	}
	// ARPHRD_ETHER; virtual bridges and veths also report 1
	if strings.TrimSpace(string(data)) == "1" {
		if _, err := os.Stat(filepath.Join(dir, "device")); err == nil {
			return TypeEthernet
		}
		return classifyByName(name)
	}
	return TypeOther
}
