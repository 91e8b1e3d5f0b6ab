package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestInstallerURL verifies URL composition, including duplicate slash handling.
func TestInstallerURL(t *testing.T) {
	t.Parallel()

	got, err := installerURL("https://repo.continuum.io/miniconda", "Miniconda3-4.7.12.1-Linux-x86_64.sh")
	require.NoError(t, err)
	require.Equal(t, "https://repo.continuum.io/miniconda/Miniconda3-4.7.12.1-Linux-x86_64.sh", got)

	got, err = installerURL("https://mirror.local/conda/", "installer.sh")
	require.NoError(t, err)
	require.Equal(t, "https://mirror.local/conda/installer.sh", got)
}

// TestDownloadInstaller exercises the full download against a local HTTP server.
func TestDownloadInstaller(t *testing.T) {
	t.Parallel()

	payload := []byte("#!/bin/sh\necho fake installer\n")

	var requestedPath string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedPath = r.URL.Path
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "installer.sh")

	err := DownloadInstaller(context.Background(), server.URL+"/miniconda", "installer.sh", dest, "")
	require.NoError(t, err)
	require.Equal(t, "/miniconda/installer.sh", requestedPath)

	written, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, payload, written)

	// No .old leftovers.
	_, err = os.Stat(dest + ".old")
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestDownloadInstallerChecksum verifies SHA-256 pinning accepts a good digest
// and rejects a bad one.
func TestDownloadInstallerChecksum(t *testing.T) {
	t.Parallel()

	payload := []byte("installer bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	digest := sha256.Sum256(payload)
	dest := filepath.Join(t.TempDir(), "installer.sh")

	err := DownloadInstaller(context.Background(), server.URL, "installer.sh", dest, hex.EncodeToString(digest[:]))
	require.NoError(t, err)

	dest = filepath.Join(t.TempDir(), "installer.sh")
	wrong := sha256.Sum256([]byte("something else"))

	err = DownloadInstaller(context.Background(), server.URL, "installer.sh", dest, hex.EncodeToString(wrong[:]))
	require.Error(t, err)
}

// TestDownloadInstallerBadStatus ensures non-200 responses abort the run.
func TestDownloadInstallerBadStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "installer.sh")

	err := DownloadInstaller(context.Background(), server.URL, "installer.sh", dest, "")
	require.ErrorIs(t, err, errBadHTTPStatus)
}
