package testutil

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/sbinet/npyio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNPY_RoundTrip(t *testing.T) {
	raw := NPY(t, []float64{1.5, 2.5})

	var got []float64
	if err := npyio.Read(bytes.NewReader(raw), &got); err != nil {
		t.Fatalf("npyio.Read failed: %v", err)
	}
	if len(got) != 2 || got[0] != 1.5 || got[1] != 2.5 {
		t.Errorf("got %v", got)
	}
}

func TestFakeAlyx_AuthAndList(t *testing.T) {
	f := NewFakeAlyx(t)
	f.AddDataset("s1", "alf", "leftCamera.times.npy", []byte("abc"))
	f.AddDataset("s2", "alf", "leftCamera.times.npy", []byte("zzz"))

	resp, err := http.Post(f.URL()+"/auth-token", "application/json",
		strings.NewReader(`{"username":"intbrainlab","password":"international"}`))
	require.NoError(t, err)
	var tok struct {
		Token string `json:"token"`
	}
	json.NewDecoder(resp.Body).Decode(&tok)
	resp.Body.Close()
	if tok.Token != f.Token {
		t.Fatalf("got token %q", tok.Token)
	}
	if f.AuthCalls() != 1 {
		t.Errorf("got %d auth calls, want 1", f.AuthCalls())
	}

	req, _ := http.NewRequest(http.MethodGet, f.URL()+"/datasets?session=s1&collection=alf", nil)
	req.Header.Set("Authorization", "Token "+tok.Token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var list []struct {
		Name     string `json:"name"`
		FileSize int    `json:"file_size"`
	}
	json.NewDecoder(resp.Body).Decode(&list)
	if len(list) != 1 || list[0].Name != "leftCamera.times.npy" || list[0].FileSize != 3 {
		t.Errorf("unexpected listing %+v", list)
	}
}

func TestFakeAlyx_RejectsBadToken(t *testing.T) {
	f := NewFakeAlyx(t)

	req, _ := http.NewRequest(http.MethodGet, f.URL()+"/datasets?session=s1", nil)
	req.Header.Set("Authorization", "Token wrong")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("got status %d, want 401", resp.StatusCode)
	}
}

func TestFakeAlyx_Download(t *testing.T) {
	f := NewFakeAlyx(t)
	f.AddDataset("s1", "alf", "leftCamera.times.npy", []byte("payload"))

	resp, err := http.Get(f.URL() + "/files/s1/alf/leftCamera.times.npy")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if string(body) != "payload" {
		t.Errorf("got body %q", body)
	}
	if f.DownloadCount("leftCamera.times.npy") != 1 {
		t.Errorf("got %d downloads, want 1", f.DownloadCount("leftCamera.times.npy"))
	}

	resp, err = http.Get(f.URL() + "/files/s1/alf/missing.npy")
	require.NoError(t, err)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("got status %d, want 404", resp.StatusCode)
	}
}

func TestFakeAlyx_Revisions(t *testing.T) {
	f := NewFakeAlyx(t)
	f.AddRevision("s1", "alf", "leftCamera.times.npy", "2020-01-01", false, []byte("old"))
	f.AddDataset("s1", "alf", "leftCamera.times.npy", []byte("new!"))

	req, _ := http.NewRequest(http.MethodGet, f.URL()+"/datasets?session=s1", nil)
	req.Header.Set("Authorization", "Token "+f.Token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var list []struct {
		Revision       string `json:"revision"`
		DefaultDataset bool   `json:"default_dataset"`
		Hash           string `json:"hash"`
		FileRecords    []struct {
			DataURL string `json:"data_url"`
		} `json:"file_records"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 2)
	assert.Equal(t, "2020-01-01", list[0].Revision)
	assert.False(t, list[0].DefaultDataset)
	assert.True(t, list[1].DefaultDataset)
	assert.Equal(t, md5Hex([]byte("old")), list[0].Hash)

	for i, want := range []string{"old", "new!"} {
		resp, err := http.Get(list[i].FileRecords[1].DataURL)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		assert.Equal(t, want, string(body))
	}
	assert.Equal(t, 2, f.DownloadCount("leftCamera.times.npy"))
}

func md5Hex(b []byte) string {
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}
