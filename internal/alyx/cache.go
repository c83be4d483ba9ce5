package alyx

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/banshee-data/motion-energy/internal/httputil"
	"github.com/banshee-data/motion-energy/internal/security"
)

// ErrChecksumMismatch is returned when a downloaded file does not match the
// MD5 hash in the dataset listing.
var ErrChecksumMismatch = errors.New("alyx: checksum mismatch")

// CachePath returns where a dataset of session/collection is stored locally.
// A non-empty revision gets its own "#revision#" folder so revisions of the
// same file never share a cache entry. Every part comes from the server and
// must stay inside the cache dir.
func (c *Client) CachePath(session, collection, revision, name string) (string, error) {
	elems := []string{session, collection}
	if revision != "" {
		elems = append(elems, "#"+revision+"#")
	}
	return security.SafeJoin(c.cfg.CacheDir, append(elems, name)...)
}

// fetch makes sure ds is present in the cache and returns its local path.
// A cached file is reused when its size and hash match the listing (checks
// the listing leaves empty are skipped). Downloads go to a .part file that is
// renamed on success.
func (c *Client) fetch(ctx context.Context, session string, ds Dataset) (string, error) {
	path, err := c.CachePath(session, ds.Collection, ds.Revision, ds.Name)
	if err != nil {
		return "", fmt.Errorf("alyx: %s: %w", ds.Name, err)
	}
	if info, err := c.fs.Stat(path); err == nil && !info.IsDir() {
		switch {
		case ds.FileSize > 0 && info.Size() != ds.FileSize:
			if !c.cfg.Silent {
				c.logf("%s: cached size %d != %d, downloading again", ds.Name, info.Size(), ds.FileSize)
			}
		case !c.cachedHashMatches(path, ds.Hash):
			if !c.cfg.Silent {
				c.logf("%s: cached file does not match hash %s, downloading again", ds.Name, ds.Hash)
			}
		default:
			return path, nil
		}
	}

	rawURL := ds.URL()
	if rawURL == "" {
		return "", fmt.Errorf("alyx: %s has no downloadable file record", ds.Name)
	}
	rawURL, err = c.resolve(rawURL)
	if err != nil {
		return "", fmt.Errorf("alyx: %s: bad data_url: %w", ds.Name, err)
	}

	if err := c.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("alyx: create cache dir: %w", err)
	}

	start := c.clock.Now()
	n, sum, err := c.download(ctx, rawURL, path)
	if err != nil {
		return "", fmt.Errorf("alyx: download %s: %w", ds.Name, err)
	}
	if ds.FileSize > 0 && n != ds.FileSize {
		c.fs.Remove(path)
		return "", fmt.Errorf("alyx: download %s: got %d bytes, want %d", ds.Name, n, ds.FileSize)
	}
	if ds.Hash != "" && !strings.EqualFold(sum, ds.Hash) {
		c.fs.Remove(path)
		return "", fmt.Errorf("%w: %s has md5 %s, want %s", ErrChecksumMismatch, ds.Name, sum, ds.Hash)
	}
	if !c.cfg.Silent {
		c.logf("downloaded %s (%d bytes) in %s", ds.Name, n, c.clock.Since(start))
	}
	return path, nil
}

// download writes rawURL to path and returns the byte count and hex MD5.
func (c *Client) download(ctx context.Context, rawURL, path string) (int64, string, error) {
	resp, err := c.get(ctx, rawURL)
	if err != nil {
		return 0, "", err
	}
	if err := httputil.CheckStatus(resp); err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	part := path + ".part"
	w, err := c.fs.Create(part)
	if err != nil {
		return 0, "", err
	}
	h := md5.New()
	n, copyErr := io.Copy(io.MultiWriter(w, h), resp.Body)
	closeErr := w.Close()
	if copyErr != nil || closeErr != nil {
		c.fs.Remove(part)
		if copyErr != nil {
			return n, "", copyErr
		}
		return n, "", closeErr
	}
	if err := c.fs.Rename(part, path); err != nil {
		c.fs.Remove(part)
		return n, "", err
	}
	return n, hex.EncodeToString(h.Sum(nil)), nil
}

// cachedHashMatches reports whether the file at path has the MD5 want. An
// empty want always matches; an unreadable file never does.
func (c *Client) cachedHashMatches(path, want string) bool {
	if want == "" {
		return true
	}
	f, err := c.fs.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return false
	}
	return strings.EqualFold(hex.EncodeToString(h.Sum(nil)), want)
}

func (c *Client) readArray(path string) (Array, error) {
	f, err := c.fs.Open(path)
	if err != nil {
		return Array{}, err
	}
	defer f.Close()
	return decodeNPY(f)
}
