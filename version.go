package edgedriver

import (
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/blang/semver"
)

// VersionDetector reports the version of the locally installed browser.
// Detection failure is fatal to a provisioning run: without it no driver
// version can be targeted.
type VersionDetector interface {
	DetectVersion() (string, error)
}

// Version is a parsed browser or driver version. Edge versions carry
// four components ("103.0.1264.37"); semver covers the first three and
// the raw string is kept verbatim.
type Version struct {
	Raw string
	sv  semver.Version
}

// ParseVersion parses a dotted version string.
func ParseVersion(raw string) (Version, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Version{}, fmt.Errorf("empty version string")
	}
	norm := raw
	if parts := strings.Split(raw, "."); len(parts) > 3 {
		norm = strings.Join(parts[:3], ".")
	}
	sv, err := semver.ParseTolerant(norm)
	if err != nil {
		return Version{}, fmt.Errorf("malformed version %q: %v", raw, err)
	}
	return Version{Raw: raw, sv: sv}, nil
}

// Major returns the major component as a decimal string, the form used
// for prefix matching against index entry names.
func (v Version) Major() string {
	return fmt.Sprintf("%d", v.sv.Major)
}

func (v Version) String() string { return v.Raw }

// versionRE matches the dotted version inside "--version" output such as
// "Microsoft Edge 103.0.1264.37 stable".
var versionRE = regexp.MustCompile(`\d+(?:\.\d+)+`)

// ExecDetector obtains the browser version by running the browser binary
// with --version. It is the detector of choice on hosts without a
// registry.
type ExecDetector struct {
	// Path to the browser binary. Defaults to "microsoft-edge".
	Path string
}

func (d ExecDetector) DetectVersion() (string, error) {
	path := d.Path
	if path == "" {
		path = "microsoft-edge"
	}
	out, err := exec.Command(path, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("running %s --version: %v", path, err)
	}
	return parseVersionOutput(string(out))
}

func parseVersionOutput(out string) (string, error) {
	v := versionRE.FindString(out)
	if v == "" {
		return "", fmt.Errorf("no version found in output %q", strings.TrimSpace(out))
	}
	return v, nil
}
