//go:build linux

package netwatch

import (
	"bufio"
	"os"
	"strings"
)

// probeWifi reports whether the default-route interface is wireless.
// The default route is read from /proc/net/route (destination 00000000);
// an interface is wireless when /sys/class/net/<iface>/wireless exists.
func probeWifi() bool {
	iface := defaultRouteInterface()
	if iface == "" {
		return false
	}
	_, err := os.Stat("/sys/class/net/" + iface + "/wireless")
	return err == nil
}

func defaultRouteInterface() string {
	file, err := os.Open("/proc/net/route")
	if err != nil {
		return ""
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	// Skip header line
	if !scanner.Scan() {
		return ""
	}
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		// iface destination gateway flags ...
		if fields[1] == "00000000" {
			return fields[0]
		}
	}
	return ""
}
