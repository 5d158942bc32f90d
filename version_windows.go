//go:build windows

package edgedriver

import (
	"fmt"

	"golang.org/x/sys/windows/registry"
)

// regVersionKey is where the Edge updater records the installed version.
const regVersionKey = `Software\Microsoft\Edge\BLBeacon`

// RegistryDetector reads the installed Edge version from the per-user
// BLBeacon registry key.
type RegistryDetector struct {
	// Key overrides the registry path, for tests.
	Key string
}

func (d RegistryDetector) DetectVersion() (string, error) {
	path := d.Key
	if path == "" {
		path = regVersionKey
	}
	k, err := registry.OpenKey(registry.CURRENT_USER, path, registry.QUERY_VALUE)
	if err != nil {
		return "", fmt.Errorf(`opening HKCU\%s: %v`, path, err)
	}
	defer k.Close()
	v, _, err := k.GetStringValue("version")
	if err != nil {
		return "", fmt.Errorf(`reading HKCU\%s\version: %v`, path, err)
	}
	return v, nil
}

func defaultDetector(browserPath string) VersionDetector {
	return RegistryDetector{}
}
