// Package aur provides an AUR (Arch User Repository) RPC client.
package aur

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"archpm/pkg/manager"
)

const (
	// DefaultBaseURL is the default AUR RPC API endpoint
	DefaultBaseURL = "https://aur.archlinux.org/rpc/v5"

	// DefaultTimeout is the default HTTP timeout
	DefaultTimeout = 30 * time.Second

	// MaxInfoArgs is the number of names sent per info request.
	MaxInfoArgs = 100
)

// ErrNotFound is returned by GetPackage for unknown packages.
var ErrNotFound = errors.New("package not found in the AUR")

// Client is an AUR RPC API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// Package represents an AUR package from the RPC API.
type Package struct {
	ID             int     `json:"ID"`
	Name           string  `json:"Name"`
	PackageBaseID  int     `json:"PackageBaseID"`
	PackageBase    string  `json:"PackageBase"`
	Version        string  `json:"Version"`
	Description    string  `json:"Description"`
	URL            string  `json:"URL"`
	NumVotes       int     `json:"NumVotes"`
	Popularity     float64 `json:"Popularity"`
	OutOfDate      *int64  `json:"OutOfDate"` // Unix timestamp, nil if not out of date
	Maintainer     string  `json:"Maintainer"`
	Submitter      string  `json:"Submitter"`
	FirstSubmitted int64   `json:"FirstSubmitted"`
	LastModified   int64   `json:"LastModified"`
	URLPath        string  `json:"URLPath"`

	Depends     []string `json:"Depends"`
	MakeDepends []string `json:"MakeDepends"`
	OptDepends  []string `json:"OptDepends"`
	Conflicts   []string `json:"Conflicts"`
	Provides    []string `json:"Provides"`

	License  []string `json:"License"`
	Keywords []string `json:"Keywords"`
}

// Response is the AUR RPC API response structure.
type Response struct {
	Version     int       `json:"version"`
	Type        string    `json:"type"`
	ResultCount int       `json:"resultcount"`
	Results     []Package `json:"results"`
	Error       string    `json:"error,omitempty"`
}

// NewClient creates a new AUR client with default settings.
func NewClient() *Client {
	return NewClientWithOptions(DefaultBaseURL, DefaultTimeout)
}

// NewClientWithOptions creates a new AUR client with custom settings.
func NewClientWithOptions(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: "archpm/1.0",
	}
}

// SearchPackages searches package names and descriptions for query.
func (c *Client) SearchPackages(ctx context.Context, query string) ([]Package, error) {
	return c.searchBy(ctx, "name-desc", query)
}

func (c *Client) searchBy(ctx context.Context, by, query string) ([]Package, error) {
	endpoint := fmt.Sprintf("%s/search/%s?by=%s", c.baseURL, url.PathEscape(query), url.QueryEscape(by))

	resp, err := c.doRequest(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	return resp.Results, nil
}

// InfoPackages retrieves detailed information about one or more packages.
// Names are sent in batches of MaxInfoArgs.
func (c *Client) InfoPackages(ctx context.Context, names ...string) ([]Package, error) {
	var packages []Package

	for start := 0; start < len(names); start += MaxInfoArgs {
		end := start + MaxInfoArgs
		if end > len(names) {
			end = len(names)
		}

		params := url.Values{}
		for _, name := range names[start:end] {
			params.Add("arg[]", name)
		}

		resp, err := c.doRequest(ctx, c.baseURL+"/info?"+params.Encode())
		if err != nil {
			return nil, err
		}
		packages = append(packages, resp.Results...)
	}

	return packages, nil
}

// GetPackage retrieves detailed information about a single package.
func (c *Client) GetPackage(ctx context.Context, name string) (*Package, error) {
	packages, err := c.InfoPackages(ctx, name)
	if err != nil {
		return nil, err
	}

	for i := range packages {
		if packages[i].Name == name {
			return &packages[i], nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Search implements manager.Remote.
func (c *Client) Search(ctx context.Context, query string) ([]manager.PackageInfo, error) {
	packages, err := c.SearchPackages(ctx, query)
	if err != nil {
		return nil, err
	}
	return ToPackageInfos(packages), nil
}

// Info implements manager.Remote.
func (c *Client) Info(ctx context.Context, names ...string) ([]manager.PackageInfo, error) {
	packages, err := c.InfoPackages(ctx, names...)
	if err != nil {
		return nil, err
	}
	return ToPackageInfos(packages), nil
}

// doRequest performs an HTTP GET request to the AUR API.
func (c *Client) doRequest(ctx context.Context, endpoint string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var aurResp Response
	jsonErr := json.Unmarshal(body, &aurResp)

	// The RPC reports errors such as "Too many package results." in the
	// body, sometimes with a non-200 status.
	if jsonErr == nil && aurResp.Error != "" {
		return nil, fmt.Errorf("AUR API error: %s", aurResp.Error)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("AUR API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if jsonErr != nil {
		return nil, fmt.Errorf("failed to parse response: %w", jsonErr)
	}

	return &aurResp, nil
}

// ToPackageInfo converts an RPC package into the shared package type.
func ToPackageInfo(p Package) manager.PackageInfo {
	info := manager.PackageInfo{
		Name:        p.Name,
		Version:     p.Version,
		Description: p.Description,
		Repository:  manager.RepoAUR,
		Maintainer:  p.Maintainer,
		UpstreamURL: p.URL,
		DependList:  manager.DependNames(p.Depends),
		LastUpdated: manager.FormatUnix(p.LastModified),
		Orphan:      p.IsOrphan(),
	}
	if p.IsOutOfDate() {
		info.OutOfDate = manager.FormatUnix(*p.OutOfDate)
	}
	return info
}

// ToPackageInfos converts a slice of RPC packages.
func ToPackageInfos(packages []Package) []manager.PackageInfo {
	infos := make([]manager.PackageInfo, 0, len(packages))
	for _, p := range packages {
		infos = append(infos, ToPackageInfo(p))
	}
	return infos
}

// IsOutOfDate returns true if the package is marked out of date.
func (p *Package) IsOutOfDate() bool {
	return p.OutOfDate != nil
}

// IsOrphan returns true if the package has no maintainer.
func (p *Package) IsOrphan() bool {
	return p.Maintainer == ""
}
