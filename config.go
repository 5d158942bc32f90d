package edgedriver

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// DefaultDownloadBase is the Azure blob container holding the official
// Edge WebDriver release archives.
const DefaultDownloadBase = "https://msedgewebdriverstorage.blob.core.windows.net/edgewebdriver"

// MailConfig holds the Microsoft Graph credentials used to send
// operator notifications. All fields are required when mail is
// configured; there is no implicit credential lookup.
type MailConfig struct {
	// Host is the Graph API host. Defaults to graph.microsoft.com.
	Host string `yaml:"host"`
	// TenantID identifies the Azure AD tenant to authenticate against.
	TenantID string `yaml:"tenant_id"`
	// ClientID and ClientSecret identify the application registration
	// granted the Mail.Send permission.
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	// Sender is the mailbox the notification is sent from.
	Sender string `yaml:"sender"`
}

// Configured reports whether enough fields are set to attempt a send.
func (m MailConfig) Configured() bool {
	return m.TenantID != "" && m.ClientID != "" && m.ClientSecret != "" && m.Sender != ""
}

// Config is the immutable provisioner configuration, loaded once at
// startup from a YAML properties file.
type Config struct {
	// DriverName is the file name of the driver binary inside the
	// working directory, e.g. "msedgedriver.exe".
	DriverName string `yaml:"driver_name"`
	// ArtifactName is the archive name stem; the matched download URL is
	// {download_base}/{version}/{artifact_name}_{os_type}.zip.
	ArtifactName string `yaml:"artifact_name"`
	// DownloadBase is the blob container base URL for version-addressed
	// archive downloads.
	DownloadBase string `yaml:"download_base"`
	// IndexURL is the container listing endpoint enumerating every
	// available driver build as an XML document.
	IndexURL string `yaml:"index_url"`
	// OSType is the platform tag used in archive names: win64, win32 or
	// linux64.
	OSType string `yaml:"os_type"`
	// WorkDir is the directory archives are downloaded and unpacked
	// into; the verified driver binary lives here.
	WorkDir string `yaml:"work_dir"`
	// DestDirs are the folders the verified binary is copied to.
	DestDirs []string `yaml:"destination_dirs"`
	// BrowserPath optionally points at the Edge binary, for hosts where
	// the version cannot be read from the registry and for the headless
	// smoke-test session.
	BrowserPath string `yaml:"browser_path"`
	// Recipients receive failure notifications.
	Recipients []string `yaml:"notify_recipients"`

	Mail MailConfig `yaml:"mail"`
}

// LoadConfig reads and validates the YAML properties file at path. On a
// validation failure the partially decoded Config is returned alongside
// the error so the caller can still attempt an operator notification.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading properties file: %v", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing properties file %q: %v", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.OSType == "" {
		c.OSType = defaultOSType()
	}
	if c.DriverName == "" {
		c.DriverName = "msedgedriver"
		if runtime.GOOS == "windows" {
			c.DriverName = "msedgedriver.exe"
		}
	}
	if c.ArtifactName == "" {
		c.ArtifactName = "edgedriver"
	}
	if c.DownloadBase == "" {
		c.DownloadBase = DefaultDownloadBase
	}
	if c.IndexURL == "" {
		c.IndexURL = c.DownloadBase + "?comp=list"
	}
	if c.WorkDir == "" {
		c.WorkDir = "."
	}
	if c.Mail.Host == "" {
		c.Mail.Host = "graph.microsoft.com"
	}
}

// Validate reports the first problem that would prevent a run.
func (c *Config) Validate() error {
	switch c.OSType {
	case "win64", "win32", "linux64", "mac64", "arm64":
	default:
		return fmt.Errorf("unsupported os_type %q", c.OSType)
	}
	if mailPartiallySet(c.Mail) {
		return fmt.Errorf("mail configuration is incomplete: tenant_id, client_id, client_secret and sender are all required")
	}
	if c.Mail.Configured() && len(c.Recipients) == 0 {
		return fmt.Errorf("mail is configured but notify_recipients is empty")
	}
	return nil
}

// mailPartiallySet catches configs that name some credentials but not
// all of them, which would otherwise fail silently at send time.
func mailPartiallySet(m MailConfig) bool {
	any := m.TenantID != "" || m.ClientID != "" || m.ClientSecret != "" || m.Sender != ""
	return any && !m.Configured()
}

func defaultOSType() string {
	switch runtime.GOOS {
	case "windows":
		if runtime.GOARCH == "386" {
			return "win32"
		}
		return "win64"
	case "darwin":
		if runtime.GOARCH == "arm64" {
			return "arm64"
		}
		return "mac64"
	default:
		return "linux64"
	}
}
