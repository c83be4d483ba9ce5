// Package testutil provides shared test utilities and fixtures.
//
// The main fixture is FakeAlyx, an httptest server that speaks enough of the
// Alyx REST API (token auth, dataset listing, file download) for the client
// and converter tests to run without network access.
package testutil

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/banshee-data/motion-energy/internal/httputil"
	"github.com/sbinet/npyio"
)

// NPY encodes v (a slice of a numpy-compatible element type) as a .npy file.
func NPY(t testing.TB, v interface{}) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := npyio.Write(&buf, v); err != nil {
		t.Fatalf("npy encode: %v", err)
	}
	return buf.Bytes()
}

type fakeDataset struct {
	session    string
	collection string
	name       string
	revision   string
	isDefault  bool
	payload    []byte
}

func (ds fakeDataset) path() string {
	return ds.session + "/" + ds.collection + "/" + ds.name
}

// FakeAlyx is an in-process Alyx server.
type FakeAlyx struct {
	Server   *httptest.Server
	Username string
	Password string
	Token    string

	mu        sync.Mutex
	datasets  []fakeDataset
	downloads map[string]int
	authCalls int
}

// NewFakeAlyx starts a fake server that is closed when the test ends.
func NewFakeAlyx(t testing.TB) *FakeAlyx {
	t.Helper()
	f := &FakeAlyx{
		Username:  "intbrainlab",
		Password:  "international",
		Token:     "fake-token",
		downloads: make(map[string]int),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/auth-token", f.handleAuth)
	mux.HandleFunc("/datasets", f.handleDatasets)
	mux.HandleFunc("/files/", f.handleFile)
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the server's base URL.
func (f *FakeAlyx) URL() string { return f.Server.URL }

// AddDataset registers the default, unrevised copy of a file under
// session/collection.
func (f *FakeAlyx) AddDataset(session, collection, name string, payload []byte) {
	f.AddRevision(session, collection, name, "", true, payload)
}

// AddRevision registers one revision of a file. Listings report revision
// and isDefault as the revision and default_dataset fields.
func (f *FakeAlyx) AddRevision(session, collection, name, revision string, isDefault bool, payload []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.datasets = append(f.datasets, fakeDataset{
		session:    session,
		collection: collection,
		name:       name,
		revision:   revision,
		isDefault:  isDefault,
		payload:    payload,
	})
}

// DownloadCount returns how many times the named file was downloaded,
// summed over its revisions.
func (f *FakeAlyx) DownloadCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.downloads[name]
}

// AuthCalls returns how many token requests the server has seen.
func (f *FakeAlyx) AuthCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authCalls
}

func (f *FakeAlyx) handleAuth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.WriteJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		httputil.WriteJSONError(w, http.StatusBadRequest, "bad request")
		return
	}

	f.mu.Lock()
	f.authCalls++
	f.mu.Unlock()

	if creds.Username != f.Username || creds.Password != f.Password {
		httputil.WriteJSONError(w, http.StatusBadRequest, "Unable to log in with provided credentials.")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"token": f.Token})
}

func (f *FakeAlyx) handleDatasets(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Token "+f.Token {
		httputil.WriteJSONError(w, http.StatusUnauthorized, "Invalid token.")
		return
	}
	session := r.URL.Query().Get("session")
	collection := r.URL.Query().Get("collection")

	f.mu.Lock()
	defer f.mu.Unlock()

	// The object parameter is deliberately ignored so clients filter themselves.
	out := []map[string]interface{}{}
	for _, ds := range f.datasets {
		if ds.session != session || (collection != "" && ds.collection != collection) {
			continue
		}
		sum := md5.Sum(ds.payload)
		dataURL := f.Server.URL + "/files/" + ds.path()
		if ds.revision != "" {
			dataURL += "?revision=" + url.QueryEscape(ds.revision)
		}
		out = append(out, map[string]interface{}{
			"name":            ds.name,
			"collection":      ds.collection,
			"session":         ds.session,
			"revision":        ds.revision,
			"default_dataset": ds.isDefault,
			"file_size":       len(ds.payload),
			"hash":            hex.EncodeToString(sum[:]),
			"file_records": []map[string]interface{}{
				{"data_url": "", "exists": false},
				{"data_url": dataURL, "exists": true},
			},
		})
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (f *FakeAlyx) handleFile(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/files/")
	revision := r.URL.Query().Get("revision")

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ds := range f.datasets {
		if rest == ds.path() && revision == ds.revision {
			f.downloads[ds.name]++
			w.Header().Set("Content-Type", "application/octet-stream")
			w.Write(ds.payload)
			return
		}
	}
	httputil.WriteJSONError(w, http.StatusNotFound, "Not found.")
}
