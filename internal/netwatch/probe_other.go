//go:build !linux

package netwatch

// probeWifi has no reliable detection off Linux; assume the preferred
// network so downloads are not silently blocked.
func probeWifi() bool {
	return true
}
