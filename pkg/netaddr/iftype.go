package netaddr

import "strings"

var (
	wifiPrefixes     = []string{"wl", "wlan", "wifi", "wi-fi", "ath", "wireless"}
	ethernetPrefixes = []string{"eth", "en", "em", "eno", "ens", "enp", "ethernet", "local area connection"}
)

// classifyByName guesses the interface type from its name
func classifyByName(name string) InterfaceType {
	lower := strings.ToLower(name)
	for _, p := range wifiPrefixes {
		if strings.HasPrefix(lower, p) {
			return TypeWiFi
		}
	}
	for _, p := range ethernetPrefixes {
		if strings.HasPrefix(lower, p) {
			return TypeEthernet
		}
	}
	return TypeOther
}
