package edgedriver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "properties.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing config file: %s", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
driver_name: msedgedriver.exe
os_type: win64
work_dir: /opt/driver
destination_dirs:
  - /srv/bot-a
  - /srv/bot-b
notify_recipients:
  - ops@example.com
mail:
  tenant_id: tenant
  client_id: client
  client_secret: secret
  sender: robot@example.com
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %s", err)
	}
	if got, want := cfg.DriverName, "msedgedriver.exe"; got != want {
		t.Errorf("DriverName = %q, want %q", got, want)
	}
	if got, want := cfg.DownloadBase, DefaultDownloadBase; got != want {
		t.Errorf("DownloadBase = %q, want default %q", got, want)
	}
	if got, want := cfg.IndexURL, DefaultDownloadBase+"?comp=list"; got != want {
		t.Errorf("IndexURL = %q, want %q", got, want)
	}
	if got, want := cfg.ArtifactName, "edgedriver"; got != want {
		t.Errorf("ArtifactName = %q, want %q", got, want)
	}
	if got, want := cfg.Mail.Host, "graph.microsoft.com"; got != want {
		t.Errorf("Mail.Host = %q, want %q", got, want)
	}
	if diff := cmp.Diff([]string{"/srv/bot-a", "/srv/bot-b"}, cfg.DestDirs); diff != "" {
		t.Errorf("DestDirs returned diff (-want/+got):\n%s", diff)
	}
	if !cfg.Mail.Configured() {
		t.Errorf("Mail.Configured() = false, want true")
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		desc     string
		contents string
	}{
		{
			desc:     "malformed yaml",
			contents: "driver_name: [unclosed",
		},
		{
			desc:     "unknown os type",
			contents: "os_type: solaris",
		},
		{
			desc: "partial mail credentials",
			contents: `
mail:
  tenant_id: tenant
  client_id: client
`,
		},
		{
			desc: "mail without recipients",
			contents: `
mail:
  tenant_id: tenant
  client_id: client
  client_secret: secret
  sender: robot@example.com
`,
		},
	}
	for _, test := range tests {
		path := writeConfig(t, test.contents)
		if _, err := LoadConfig(path); err == nil {
			t.Errorf("%s: LoadConfig returned nil error, want non-nil", test.desc)
		}
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("LoadConfig returned nil error for a missing file")
	}
}

func TestLoadConfigValidationReturnsPartialConfig(t *testing.T) {
	// A config that fails validation should still surface the decoded
	// mail block so the caller can notify the operator.
	path := writeConfig(t, `
os_type: solaris
mail:
  tenant_id: tenant
  client_id: client
  client_secret: secret
  sender: robot@example.com
notify_recipients:
  - ops@example.com
`)
	cfg, err := LoadConfig(path)
	if err == nil {
		t.Fatalf("LoadConfig returned nil error, want validation error")
	}
	if cfg == nil {
		t.Fatalf("LoadConfig returned nil config alongside validation error")
	}
	if !cfg.Mail.Configured() {
		t.Errorf("Mail.Configured() = false, want true for partially valid config")
	}
}
