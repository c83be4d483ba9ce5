// Package alyx is a small client for the Alyx REST service that backs the
// IBL "ONE" data interface. It lists the datasets of a session, downloads them
// into an on-disk cache and decodes ALF objects from their .npy files.
package alyx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/banshee-data/motion-energy/internal/fsutil"
	"github.com/banshee-data/motion-energy/internal/httputil"
	"github.com/banshee-data/motion-energy/internal/monitoring"
	"github.com/banshee-data/motion-energy/internal/timeutil"
)

const (
	// DefaultBaseURL is the public IBL Alyx instance.
	DefaultBaseURL = "https://openalyx.internationalbrainlab.org"
	// DefaultUsername and DefaultPassword are the published read-only
	// credentials for DefaultBaseURL.
	DefaultUsername = "intbrainlab"
	DefaultPassword = "international"
	// DefaultCollection is the collection holding processed ALF datasets.
	DefaultCollection = "alf"
)

// Config describes how to reach an Alyx instance and where to cache files.
type Config struct {
	BaseURL  string
	Username string
	Password string
	// Silent suppresses download progress logging.
	Silent   bool
	CacheDir string
	// Timeout bounds each HTTP request. Zero means no limit.
	Timeout time.Duration
}

// DefaultConfig returns the public read-only configuration with silent mode
// on. CacheDir is left empty for the caller to fill in.
func DefaultConfig() Config {
	return Config{
		BaseURL:  DefaultBaseURL,
		Username: DefaultUsername,
		Password: DefaultPassword,
		Silent:   true,
		Timeout:  5 * time.Minute,
	}
}

// Dataset is one entry of the /datasets listing. Hash is the hex MD5 of the
// file. DefaultDataset is nil when the server does not report it.
type Dataset struct {
	Name           string       `json:"name"`
	Collection     string       `json:"collection"`
	Session        string       `json:"session"`
	FileSize       int64        `json:"file_size"`
	Hash           string       `json:"hash"`
	Revision       string       `json:"revision"`
	DefaultDataset *bool        `json:"default_dataset"`
	FileRecords    []FileRecord `json:"file_records"`
}

// IsDefault reports whether d is the default revision of its file. Listings
// without a default_dataset field count as default.
func (d Dataset) IsDefault() bool {
	return d.DefaultDataset == nil || *d.DefaultDataset
}

// FileRecord is a physical copy of a dataset.
type FileRecord struct {
	DataURL string `json:"data_url"`
	Exists  bool   `json:"exists"`
}

// URL returns the first existing download URL, or "" if there is none.
func (d Dataset) URL() string {
	for _, fr := range d.FileRecords {
		if fr.Exists && fr.DataURL != "" {
			return fr.DataURL
		}
	}
	return ""
}

// Client talks to one Alyx instance. A Client is not safe for concurrent use.
type Client struct {
	cfg   Config
	base  *url.URL
	http  httputil.HTTPClient
	fs    fsutil.FileSystem
	clock timeutil.Clock
	token string
	logf  func(format string, v ...interface{})
}

// NewClient creates a client using the given transport and cache filesystem.
func NewClient(cfg Config, hc httputil.HTTPClient, fsys fsutil.FileSystem, clock timeutil.Clock) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("alyx: base URL is required")
	}
	if cfg.CacheDir == "" {
		return nil, fmt.Errorf("alyx: cache directory is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("alyx: invalid base URL %q: %w", cfg.BaseURL, err)
	}
	if hc == nil {
		hc = httputil.NewTimeoutClient(cfg.Timeout)
	}
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Client{
		cfg:   cfg,
		base:  base,
		http:  hc,
		fs:    fsys,
		clock: clock,
		logf:  monitoring.Named("alyx"),
	}, nil
}

// New creates a client with the real network, filesystem and clock.
func New(cfg Config) (*Client, error) {
	return NewClient(cfg, nil, nil, nil)
}

// Config returns the client's configuration.
func (c *Client) Config() Config { return c.cfg }

// Authenticate exchanges the configured credentials for a REST token.
func (c *Client) Authenticate(ctx context.Context) error {
	body, err := json.Marshal(map[string]string{
		"username": c.cfg.Username,
		"password": c.cfg.Password,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("auth-token", nil), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("alyx: authenticate: %w", err)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := httputil.DecodeJSON(resp, &out); err != nil {
		return fmt.Errorf("alyx: authenticate: %w", err)
	}
	if out.Token == "" {
		return fmt.Errorf("alyx: authenticate: empty token for user %q", c.cfg.Username)
	}
	c.token = out.Token
	return nil
}

// ListDatasets returns the datasets of session in collection whose ALF
// object is object. An empty object matches every dataset in the collection.
func (c *Client) ListDatasets(ctx context.Context, session, collection, object string) ([]Dataset, error) {
	q := url.Values{}
	q.Set("session", session)
	if collection != "" {
		q.Set("collection", collection)
	}
	if object != "" {
		q.Set("object", object)
	}

	var all []Dataset
	if err := c.getJSON(ctx, c.endpoint("datasets", q), &all); err != nil {
		return nil, fmt.Errorf("alyx: list datasets for session %s: %w", session, err)
	}

	// The server filter is advisory; older instances ignore unknown params.
	out := all[:0]
	for _, ds := range all {
		if collection != "" && ds.Collection != collection {
			continue
		}
		if object != "" {
			dn, ok := ParseDatasetName(ds.Name)
			if !ok || dn.Object != object {
				continue
			}
		}
		out = append(out, ds)
	}
	return out, nil
}

// LoadObject downloads the default revision of every .npy attribute of
// object in session/collection and returns them keyed by attribute name.
// Datasets already in the cache are not downloaded again.
func (c *Client) LoadObject(ctx context.Context, session, object, collection string) (Object, error) {
	datasets, err := c.ListDatasets(ctx, session, collection, object)
	if err != nil {
		return nil, err
	}

	obj := make(Object)
	for _, ds := range datasets {
		if !ds.IsDefault() {
			continue
		}
		dn, _ := ParseDatasetName(ds.Name)
		if dn.Extension != "npy" {
			if !c.cfg.Silent {
				c.logf("skipping %s: only .npy attributes are loaded", ds.Name)
			}
			continue
		}
		path, err := c.fetch(ctx, session, ds)
		if err != nil {
			return nil, err
		}
		arr, err := c.readArray(path)
		if err != nil {
			return nil, fmt.Errorf("alyx: %s: %w", ds.Name, err)
		}
		obj[dn.Attribute] = arr
	}
	if len(obj) == 0 {
		return nil, fmt.Errorf("%w: %s in %s/%s", ErrObjectNotFound, object, session, collection)
	}
	return obj, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, v interface{}) error {
	resp, err := c.get(ctx, rawURL)
	if err != nil {
		return err
	}
	return httputil.DecodeJSON(resp, v)
}

// get issues an authenticated GET. The token is only sent to the Alyx host,
// never to the file servers that data_url may point at.
func (c *Client) get(ctx context.Context, rawURL string) (*http.Response, error) {
	if c.token == "" && c.isAlyxURL(rawURL) {
		if err := c.Authenticate(ctx); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if c.isAlyxURL(rawURL) {
		req.Header.Set("Authorization", "Token "+c.token)
		req.Header.Set("Accept", "application/json")
	}
	return c.http.Do(req)
}

func (c *Client) isAlyxURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	return err == nil && u.Host == c.base.Host
}

func (c *Client) endpoint(path string, q url.Values) string {
	u := c.base.ResolveReference(&url.URL{Path: path})
	if q != nil {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// resolve turns a possibly relative data_url into an absolute URL.
func (c *Client) resolve(dataURL string) (string, error) {
	u, err := url.Parse(dataURL)
	if err != nil {
		return "", err
	}
	return c.base.ResolveReference(u).String(), nil
}
