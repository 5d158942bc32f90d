/*
Package edgedriver keeps a local Microsoft Edge WebDriver binary in sync
with the locally installed Edge browser.

A Provisioner runs a fixed escalation ladder once per invocation:

 1. Smoke-test the driver binary already present in the working
    directory. If it launches and can serve a WebDriver session, nothing
    is downloaded.
 2. Otherwise download the driver archive matching the detected browser
    version and smoke-test it.
 3. Otherwise scan the remote blob index for builds that share the
    browser's major version, downloading and testing each candidate in
    listing order until one passes.
 4. If everything fails, notify the operator by mail; the run is a
    failure and requires manual review.

On any success the verified binary is copied to the configured
destination folders.

Example usage:

	cfg, err := edgedriver.LoadConfig("properties.yaml")
	if err != nil {
		// handle
	}
	p := edgedriver.New(cfg)
	out, err := p.Provision(context.Background())
	if out.Result == edgedriver.Provisioned {
		fmt.Println("driver version", out.Version)
	}

The Provisioner depends only on small capability interfaces
(VersionDetector, Runner, Notifier, Logger); each has a production
implementation in this package and can be replaced in tests.
*/
package edgedriver
