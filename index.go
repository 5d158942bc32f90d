package edgedriver

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Candidate is one downloadable driver build discovered in the index.
type Candidate struct {
	// Version is the dotted build version, taken from the leading path
	// element of the blob name.
	Version string
	// URL is the direct download address of the archive.
	URL string
}

// enumerationResults mirrors the XML document returned by an Azure blob
// container listing request.
type enumerationResults struct {
	XMLName xml.Name `xml:"EnumerationResults"`
	Blobs   struct {
		Blob []blobEntry `xml:"Blob"`
	} `xml:"Blobs"`
}

type blobEntry struct {
	Name string `xml:"Name"`
	URL  string `xml:"Url"`
}

// fetchIndex downloads and parses the container listing. The listing is
// fetched in one request; the endpoint returns every blob for the
// container sizes seen in practice.
func fetchIndex(ctx context.Context, client *http.Client, url string) ([]blobEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching index %q: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching index %q: unexpected status %s", url, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading index body: %v", err)
	}
	var listing enumerationResults
	if err := xml.Unmarshal(data, &listing); err != nil {
		return nil, fmt.Errorf("parsing index listing: %v", err)
	}
	return listing.Blobs.Blob, nil
}

// filterCandidates keeps the entries whose name starts with the given
// major version and contains the platform tag, preserving listing order.
// Blob names look like "103.0.1264.51/edgedriver_win64.zip".
func filterCandidates(entries []blobEntry, major, osType string) []Candidate {
	var out []Candidate
	for _, e := range entries {
		if entryMajor(e.Name) != major {
			continue
		}
		if !strings.Contains(e.Name, osType) {
			continue
		}
		version := e.Name
		if i := strings.IndexByte(version, '/'); i >= 0 {
			version = version[:i]
		}
		out = append(out, Candidate{Version: version, URL: e.URL})
	}
	return out
}

func entryMajor(name string) string {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return name
}
