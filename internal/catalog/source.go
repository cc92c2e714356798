package catalog

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// maxResourceBytes caps a single data file. The largest frequency lists in
// circulation are a few tens of megabytes.
const maxResourceBytes = 64 << 20

// Fetcher reads a data resource by location. Locations beginning with
// http:// or https:// are fetched over HTTP; anything else is a file path.
type Fetcher struct {
	httpClient *http.Client
}

// NewFetcher creates a Fetcher with a bounded HTTP timeout.
func NewFetcher() *Fetcher {
	return &Fetcher{httpClient: &http.Client{Timeout: 30 * time.Second}}
}

// Fetch returns the full contents of the resource at loc.
func (f *Fetcher) Fetch(ctx context.Context, loc string) ([]byte, error) {
	if loc == "" {
		return nil, fmt.Errorf("empty resource location")
	}
	if !isRemote(loc) {
		data, err := os.ReadFile(loc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", loc, err)
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc, nil)
	if err != nil {
		return nil, fmt.Errorf("create request for %s: %w", loc, err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", loc, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", loc, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResourceBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", loc, err)
	}
	return data, nil
}

// FetchFirst tries each location in order and returns the first success,
// along with the location it came from. The error of the last attempt is
// returned when all fail.
func (f *Fetcher) FetchFirst(ctx context.Context, locs ...string) ([]byte, string, error) {
	var lastErr error
	for _, loc := range locs {
		if loc == "" {
			continue
		}
		data, err := f.Fetch(ctx, loc)
		if err == nil {
			return data, loc, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no resource locations configured")
	}
	return nil, "", lastErr
}

func isRemote(loc string) bool {
	return strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://")
}

// parseNameList reads a newline-delimited list into lowercase names,
// skipping blank lines.
func parseNameList(data []byte) []string {
	var names []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		name := strings.ToLower(strings.TrimSpace(sc.Text()))
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}
