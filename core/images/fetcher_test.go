package images

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadWritesFile(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("png-bytes"))
	}))
	defer ts.Close()

	dir := t.TempDir()
	counter := 0

	f := New(nil)
	name, err := f.Download(context.Background(), ts.URL+"/pic.png", dir, "My Page", nil, &counter)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(name, "my-page_image_"), "got %q", name)
	assert.True(t, strings.HasSuffix(name, "_1.png"), "got %q", name)
	assert.Equal(t, 1, counter)

	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestDownloadNamesAreUnique(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("x"))
	}))
	defer ts.Close()

	dir := t.TempDir()
	counter := 0
	f := New(nil)

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		url := fmt.Sprintf("%s/img%d.png", ts.URL, i)
		name, err := f.Download(context.Background(), url, dir, "Page", nil, &counter)
		require.NoError(t, err)
		assert.False(t, seen[name], "duplicate name %q", name)
		seen[name] = true
	}

	// Same URL twice still yields distinct names via the counter.
	counter = 0
	a, err := f.Download(context.Background(), ts.URL+"/same.png", dir, "Other", nil, &counter)
	require.NoError(t, err)
	b, err := f.Download(context.Background(), ts.URL+"/same.png", dir, "Other", nil, &counter)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDownloadInfersExtensionFromContentType(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		if r.Method == http.MethodHead {
			return
		}
		w.Write([]byte("jpeg"))
	}))
	defer ts.Close()

	dir := t.TempDir()
	counter := 0
	f := New(nil)

	// No extension in the URL path forces the HEAD probe.
	name, err := f.Download(context.Background(), ts.URL+"/resource", dir, "p", nil, &counter)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".jpeg"), "got %q", name)
}

func TestDownloadDefaultsToPNG(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Type", "application/octet-stream")
			return
		}
		w.Write([]byte("bytes"))
	}))
	defer ts.Close()

	dir := t.TempDir()
	counter := 0
	f := New(nil)

	name, err := f.Download(context.Background(), ts.URL+"/blob", dir, "p", nil, &counter)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".png"), "got %q", name)
}

func TestDownloadForwardsHeaders(t *testing.T) {
	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte("x"))
	}))
	defer ts.Close()

	dir := t.TempDir()
	counter := 0
	f := New(nil)

	hdr := http.Header{"Authorization": []string{"Bearer tok"}}
	_, err := f.Download(context.Background(), ts.URL+"/a.png", dir, "p", hdr, &counter)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", gotAuth)
}

func TestDownloadErrorProducesNoFile(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	dir := t.TempDir()
	counter := 0
	f := New(nil)

	name, err := f.Download(context.Background(), ts.URL+"/gone.png", dir, "p", nil, &counter)
	assert.Error(t, err)
	assert.Empty(t, name)
}
