//go:build !windows

package edgedriver

func defaultDetector(browserPath string) VersionDetector {
	return ExecDetector{Path: browserPath}
}
