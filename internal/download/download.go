// Package download fetches driver release archives over HTTP and
// unpacks them into a working directory.
package download

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/fatih/color"
	"github.com/golang/glog"
	"github.com/mattn/go-isatty"
)

// ErrNotFound reports that the remote archive does not exist (HTTP 404),
// which the caller treats as "this version is not published" rather
// than a transport failure.
var ErrNotFound = errors.New("archive not found")

// File describes how to download and unpack one archive.
type File struct {
	// URL is the archive address.
	URL string
	// Name is the local file name for the downloaded archive.
	Name string
	// Directory is where the archive is stored and unpacked. Existing
	// files are overwritten.
	Directory string
}

// Path returns the local path of the downloaded archive.
func (f File) Path() string {
	if f.Directory != "" {
		return filepath.Join(f.Directory, f.Name)
	}
	return f.Name
}

// Fetch downloads the archive and unpacks it into f.Directory. A non-200
// response is an error; 404 specifically is ErrNotFound.
func Fetch(ctx context.Context, client *http.Client, f File) error {
	if client == nil {
		client = http.DefaultClient
	}
	if f.Directory != "" {
		if err := os.MkdirAll(f.Directory, 0o755); err != nil {
			return fmt.Errorf("creating %q: %v", f.Directory, err)
		}
	}

	glog.Infof("Downloading %q from %q", f.Name, f.URL)
	if err := downloadFile(ctx, client, f); err != nil {
		return err
	}

	if strings.EqualFold(filepath.Ext(f.Name), ".zip") {
		glog.Infof("Unzipping %q", f.Path())
		if err := Unzip(f.Path(), f.Directory); err != nil {
			return fmt.Errorf("unzipping %q: %v", f.Name, err)
		}
	}
	return nil
}

func downloadFile(ctx context.Context, client *http.Client, f File) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: error downloading %q: %v", f.Name, f.URL, err)
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %q: %w", f.Name, f.URL, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%s: downloading %q: unexpected status %s", f.Name, f.URL, resp.Status)
	}

	out, err := os.Create(f.Path())
	if err != nil {
		return fmt.Errorf("error creating %q: %v", f.Path(), err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("error closing %q: %v", f.Path(), closeErr)
		}
	}()

	body, finish := progress(resp.Body, resp.ContentLength)
	defer finish()
	if _, err := io.Copy(out, body); err != nil {
		return fmt.Errorf("%s: error downloading %q: %v", f.Name, f.URL, err)
	}
	return nil
}

// Unzip extracts every entry of the archive at path into dir,
// overwriting existing files and preserving file modes. Entries that
// would escape dir are rejected.
func Unzip(path, dir string) error {
	r, err := zip.OpenReader(path)
	if err != nil {
		return err
	}
	defer r.Close()

	if dir == "" {
		dir = "."
	}
	for _, entry := range r.File {
		if err := extractEntry(entry, dir); err != nil {
			return err
		}
	}
	return nil
}

func extractEntry(entry *zip.File, dir string) error {
	dest := filepath.Join(dir, filepath.FromSlash(entry.Name))
	rel, err := filepath.Rel(dir, dest)
	if err != nil || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("archive entry %q escapes %q", entry.Name, dir)
	}
	if entry.FileInfo().IsDir() {
		return os.MkdirAll(dest, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	in, err := entry.Open()
	if err != nil {
		return err
	}
	defer in.Close()

	mode := entry.Mode()
	if mode&0o111 == 0 && !strings.Contains(entry.Name, ".") {
		// Driver binaries in older archives carry no mode bits.
		mode |= 0o755
	}
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// progress wraps the download stream in a progress bar when stderr is a
// terminal. The returned func finalizes the bar.
func progress(reader io.Reader, size int64) (io.Reader, func()) {
	if size <= 0 || (!isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd())) {
		return reader, func() {}
	}
	bar := pb.
		New64(size).
		SetTemplate(
			pb.ProgressBarTemplate(
				color.New(color.FgHiBlack).Sprint(
					`   └ {{counters . }} {{bar . "[" "=" ">" " " "]" }} {{percent . }} {{speed . }}`,
				),
			),
		).
		SetRefreshRate(time.Second / 60).
		SetMaxWidth(100).
		Start()
	return bar.NewProxyReader(reader), func() { bar.Finish() }
}
