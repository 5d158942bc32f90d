// Binary edgedriver-provision keeps a local Edge WebDriver binary in
// sync with the installed Edge browser and copies the verified binary
// to the configured destination folders.
//
// Run logs are written to the glog log directory (-log_dir) and
// mirrored to stderr.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/golang/glog"
	"github.com/wanmail/edgedriver"
)

var (
	properties     = flag.String("properties", "properties.yaml", "Path to the provisioner configuration file.")
	osType         = flag.String("os_type", "", "Override the configured OS tag (win64, win32, linux64).")
	skipDistribute = flag.Bool("skip_distribute", false, "If true, do not copy the verified driver to the destination folders.")
)

func main() {
	// Mirror log output to the console by default; a per-run file still
	// lands under -log_dir.
	flag.Set("alsologtostderr", "true")
	flag.Parse()
	defer glog.Flush()

	ctx := context.Background()

	cfg, err := edgedriver.LoadConfig(*properties)
	if err != nil {
		glog.Errorf("loading configuration: %v", err)
		color.Red("✘ configuration error: %v", err)
		// A partially decoded config may still carry usable mail
		// credentials; tell the operator the job cannot run.
		if cfg != nil && cfg.Mail.Configured() {
			n := edgedriver.NewGraphNotifier(cfg.Mail, cfg.Recipients)
			if nerr := n.Notify(ctx, "Driver provisioning failed",
				fmt.Sprintf("The configuration file %q could not be loaded. Error: %v", *properties, err)); nerr != nil {
				glog.Errorf("sending configuration failure notification: %v", nerr)
			}
		}
		os.Exit(1)
	}
	if *osType != "" {
		cfg.OSType = *osType
	}
	if *skipDistribute {
		cfg.DestDirs = nil
	}

	opts := []edgedriver.ProvisionerOption{}
	if cfg.Mail.Configured() {
		opts = append(opts, edgedriver.WithNotifier(edgedriver.NewGraphNotifier(cfg.Mail, cfg.Recipients)))
	}
	p := edgedriver.New(cfg, opts...)

	out, err := p.Provision(ctx)
	if err != nil {
		glog.Errorf("provisioning: %v", err)
	}
	switch out.Result {
	case edgedriver.Provisioned:
		if err != nil {
			color.Red("✘ driver %s verified but not fully distributed: %v", out.Version, err)
			os.Exit(1)
		}
		color.Green("✔ driver %s verified", out.Version)
	default:
		color.Red("✘ no working driver could be provisioned")
		os.Exit(1)
	}
}
