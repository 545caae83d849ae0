package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFeed = `[
  {
    "Name": "ScreenConnect",
    "Description": "Remote support",
    "Category": "RMM",
    "Artifacts": {
      "Network": [
        {"Domains": ["*.screenconnect.com", "control.example.net:443"], "Ports": [443]}
      ]
    }
  },
  {"Name": "NoArtifacts"}
]`

func TestHTTPFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Mozilla/5.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	tools, err := NewHTTPFetcher(srv.URL, time.Second).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 2)
	assert.Equal(t, "ScreenConnect", tools[0].Name)
	assert.Len(t, tools[0].Artifacts.Network[0].Domains, 2)
	assert.Empty(t, tools[1].Artifacts.Network)
}

func TestHTTPFetcher_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewHTTPFetcher(srv.URL, time.Second).Fetch(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestFileFetcher_Fetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleFeed), 0o600))

	tools, err := (&FileFetcher{Path: path}).Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, tools, 2)

	_, err = (&FileFetcher{Path: filepath.Join(t.TempDir(), "missing.json")}).Fetch(context.Background())
	assert.Error(t, err)
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"not": "a list"}`))
	assert.Error(t, err)
}
