package edgedriver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/wanmail/edgedriver/internal/download"
)

// Result classifies the outcome of a provisioning run.
type Result int

const (
	// NotAttempted means the run stopped before any driver could be
	// tried, e.g. the browser version could not be detected.
	NotAttempted Result = iota
	// Provisioned means a driver binary passed the smoke test.
	Provisioned
	// ManualReviewRequired means every stage of the ladder failed and an
	// operator has been notified.
	ManualReviewRequired
)

func (r Result) String() string {
	switch r {
	case Provisioned:
		return "provisioned"
	case ManualReviewRequired:
		return "manual review required"
	default:
		return "not attempted"
	}
}

// Outcome is what a provisioning run produced.
type Outcome struct {
	Result Result
	// Version is the driver version that passed the smoke test, when
	// Result is Provisioned.
	Version string
}

// Provisioner executes the acquire, verify and distribute sequence
// exactly once per Provision call. All collaborators are injected at
// construction; a Provisioner holds no global state.
type Provisioner struct {
	cfg      *Config
	detector VersionDetector
	runner   Runner
	notifier Notifier
	log      Logger
	client   *http.Client
}

// ProvisionerOption configures a Provisioner.
type ProvisionerOption func(*Provisioner)

// WithDetector replaces the platform-default browser version detector.
func WithDetector(d VersionDetector) ProvisionerOption {
	return func(p *Provisioner) { p.detector = d }
}

// WithRunner replaces the subprocess smoke-test runner.
func WithRunner(r Runner) ProvisionerOption {
	return func(p *Provisioner) { p.runner = r }
}

// WithNotifier sets the operator notification channel. Without one,
// failures are only logged.
func WithNotifier(n Notifier) ProvisionerOption {
	return func(p *Provisioner) { p.notifier = n }
}

// WithLogger replaces the glog-backed default logger.
func WithLogger(l Logger) ProvisionerOption {
	return func(p *Provisioner) { p.log = l }
}

// WithHTTPClient replaces the HTTP client used for index and archive
// requests.
func WithHTTPClient(c *http.Client) ProvisionerOption {
	return func(p *Provisioner) { p.client = c }
}

// New builds a Provisioner for the given configuration.
func New(cfg *Config, opts ...ProvisionerOption) *Provisioner {
	p := &Provisioner{
		cfg:      cfg,
		detector: defaultDetector(cfg.BrowserPath),
		runner:   serviceRunner{browserPath: cfg.BrowserPath},
		log:      GLog(),
		client:   &http.Client{Timeout: 5 * time.Minute},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Provision runs the escalation ladder:
//
//	existing binary → matched download → alternative builds → give up.
//
// Later stages run only when earlier ones fail, each candidate is tried
// exactly once and there is no backtracking. A non-nil error is
// returned only for failures that make the run impossible (version
// detection) or leave it incomplete (distribution); everything else is
// expressed in the Outcome.
func (p *Provisioner) Provision(ctx context.Context) (Outcome, error) {
	raw, err := p.detector.DetectVersion()
	if err != nil {
		p.notify(ctx, "Driver provisioning failed",
			fmt.Sprintf("The installed browser version could not be detected, so no driver version can be targeted. Error: %v", err))
		return Outcome{Result: NotAttempted}, fmt.Errorf("detecting browser version: %w", err)
	}
	browser, err := ParseVersion(raw)
	if err != nil {
		p.notify(ctx, "Driver provisioning failed",
			fmt.Sprintf("The detected browser version %q could not be parsed. Error: %v", raw, err))
		return Outcome{Result: NotAttempted}, fmt.Errorf("parsing browser version: %w", err)
	}
	p.log.Infof("browser version %s, os type %s", browser, p.cfg.OSType)

	version := browser.Raw
	ok := p.smokeTest(ctx)
	if ok {
		p.log.Infof("existing driver passes the smoke test")
	} else if p.download(ctx, p.matchedURL(browser.Raw)) {
		ok = p.smokeTest(ctx)
	}
	if !ok {
		altVersion, altOK := p.tryAlternatives(ctx, browser)
		if !altOK {
			p.notify(ctx, "No working driver version found",
				fmt.Sprintf("No driver build compatible with browser version %s could be downloaded and verified. Please review manually.", browser))
			return Outcome{Result: ManualReviewRequired}, nil
		}
		version = altVersion
	}

	if err := p.distribute(); err != nil {
		return Outcome{Result: Provisioned, Version: version}, err
	}
	return Outcome{Result: Provisioned, Version: version}, nil
}

// matchedURL builds the download address for the exact browser version:
// {base}/{version}/{artifact}_{os}.zip.
func (p *Provisioner) matchedURL(version string) string {
	return fmt.Sprintf("%s/%s/%s_%s.zip", p.cfg.DownloadBase, version, p.cfg.ArtifactName, p.cfg.OSType)
}

func (p *Provisioner) archiveName() string {
	return fmt.Sprintf("%s_%s.zip", p.cfg.ArtifactName, p.cfg.OSType)
}

func (p *Provisioner) binaryPath() string {
	return filepath.Join(p.cfg.WorkDir, p.cfg.DriverName)
}

// download fetches an archive into the working directory, converting
// every failure into a logged boolean.
func (p *Provisioner) download(ctx context.Context, url string) bool {
	err := download.Fetch(ctx, p.client, download.File{
		URL:       url,
		Name:      p.archiveName(),
		Directory: p.cfg.WorkDir,
	})
	switch {
	case errors.Is(err, download.ErrNotFound):
		p.log.Warningf("not found: %s", url)
		return false
	case err != nil:
		p.log.Errorf("download failed: %v", err)
		return false
	}
	p.log.Infof("downloaded and unpacked %s", url)
	return true
}

// smokeTest reports whether the binary currently in the working
// directory launches and serves a session. A missing binary is an
// ordinary failure so that stage one falls through to the download.
func (p *Provisioner) smokeTest(ctx context.Context) bool {
	binary := p.binaryPath()
	if _, err := os.Stat(binary); err != nil {
		p.log.Debugf("no driver binary at %s: %v", binary, err)
		return false
	}
	p.log.Infof("smoke testing %s", binary)
	if err := p.runner.Check(ctx, binary); err != nil {
		p.log.Warningf("smoke test failed, will try another driver version: %v", err)
		return false
	}
	return true
}

// tryAlternatives scans the index for builds sharing the browser's
// major version and tries each in listing order, stopping at the first
// candidate that downloads and passes the smoke test.
func (p *Provisioner) tryAlternatives(ctx context.Context, browser Version) (string, bool) {
	p.log.Infof("scanning %s for alternative %s.x builds", p.cfg.IndexURL, browser.Major())
	entries, err := fetchIndex(ctx, p.client, p.cfg.IndexURL)
	if err != nil {
		p.log.Errorf("index scan failed: %v", err)
		return "", false
	}
	candidates := filterCandidates(entries, browser.Major(), p.cfg.OSType)
	p.log.Infof("index lists %d matching candidates", len(candidates))
	for _, c := range candidates {
		if !p.download(ctx, c.URL) {
			continue
		}
		if !p.smokeTest(ctx) {
			continue
		}
		p.log.Infof("alternative version %s works", c.Version)
		return c.Version, true
	}
	return "", false
}

// distribute copies the verified binary into every destination folder.
func (p *Provisioner) distribute() error {
	src := p.binaryPath()
	for _, dir := range p.cfg.DestDirs {
		if err := copyFile(src, filepath.Join(dir, p.cfg.DriverName)); err != nil {
			return fmt.Errorf("distributing driver to %q: %w", dir, err)
		}
		p.log.Infof("copied %s to %s", p.cfg.DriverName, dir)
	}
	return nil
}

// notify sends a best-effort operator notification; send failures are
// logged and dropped.
func (p *Provisioner) notify(ctx context.Context, subject, body string) {
	if p.notifier == nil {
		p.log.Warningf("no notifier configured, dropping notification %q", subject)
		return
	}
	p.log.Infof("notifying operator: %s", subject)
	if err := p.notifier.Notify(ctx, subject, body); err != nil {
		p.log.Errorf("sending notification: %v", err)
	}
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	fi, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fi.Mode())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
