package bundler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ccdc-opensource/conda-offline-installer/internal/config"
	"github.com/ccdc-opensource/conda-offline-installer/internal/platform"
)

// newTestBundler builds a bundler rooted in a temporary directory.
func newTestBundler(t *testing.T) *bundler {
	t.Helper()

	dir := t.TempDir()

	cfg := config.Default()
	cfg.BuildDir = filepath.Join(dir, "build_temp")
	cfg.OutputRoot = filepath.Join(dir, "output")

	desc, err := platform.Current()
	require.NoError(t, err)

	installerName := desc.InstallerName(cfg.Distribution, cfg.PythonVersion, cfg.DistributionVersion)

	return &bundler{
		cfg:           cfg,
		desc:          desc,
		installerName: installerName,
		installerPath: filepath.Join(cfg.OutputDir(), installerName),
		knownPackages: make(map[string]struct{}),
	}
}

// TestPackageName verifies logical name extraction from archive filenames.
func TestPackageName(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"name-1.2.3-build.ext":                      "name",
		"numpy-1.17.3-py37h95a1406_0.tar.bz2":       "numpy",
		"python-dateutil-2.8.1-py_0.tar.bz2":        "python-dateutil",
		"pillow-6.2.1-py37hd70f55b_0.conda":         "pillow",
		"py-xgboost-0.90-py37h9dcc311_4.tar.bz2":    "py-xgboost",
		"libstdcxx-ng-9.1.0-hdf63c60_0.tar.bz2":     "libstdcxx-ng",
		"setuptools-41.6.0-py37_1.tar.bz2":          "setuptools",
		"sphinxcontrib-websupport-1.1.2-py_0.conda": "sphinxcontrib-websupport",
	}
	for filename, expected := range cases {
		got, err := packageName(filename)
		require.NoError(t, err)
		require.Equal(t, expected, got, "filename %q", filename)
	}
}

// TestPackageNameGreedyVersionPrefix pins down the greedy prefix match:
// when the version itself contains a -<digit> boundary, the name extends
// through it. Channel contents do not depend on this, the names only feed
// the bundle manifest inventory.
func TestPackageNameGreedyVersionPrefix(t *testing.T) {
	t.Parallel()

	got, err := packageName("ca-certificates-2019.11.27-0.conda")
	require.NoError(t, err)
	require.Equal(t, "ca-certificates-2019.11.27", got)

	got, err = packageName("zstd-1.4.4-0.tar.bz2")
	require.NoError(t, err)
	require.Equal(t, "zstd-1.4.4", got)
}

// TestPackageNameUnrecognized ensures filenames without a version part fail.
func TestPackageNameUnrecognized(t *testing.T) {
	t.Parallel()

	_, err := packageName("urls.txt")
	require.ErrorIs(t, err, errUnrecognizedArchive)
}

// TestMatchesArchivePattern covers the two archive extensions.
func TestMatchesArchivePattern(t *testing.T) {
	t.Parallel()

	require.True(t, matchesArchivePattern("numpy-1.17.3-py37h95a1406_0.tar.bz2"))
	require.True(t, matchesArchivePattern("pillow-6.2.1-py37hd70f55b_0.conda"))
	require.False(t, matchesArchivePattern("urls.txt"))
	require.False(t, matchesArchivePattern("cache.json"))
}

// TestCopyPackages checks that every cached archive is copied into the
// channel arch directory and the logical names land in the manifest set.
func TestCopyPackages(t *testing.T) {
	t.Parallel()

	b := newTestBundler(t)

	pkgsDir := filepath.Join(b.cfg.BuildDir, "pkgs")
	require.NoError(t, os.MkdirAll(filepath.Join(pkgsDir, "numpy-1.17.3-py37h95a1406_0"), 0o755))

	archives := []string{
		"numpy-1.17.3-py37h95a1406_0.tar.bz2",
		"six-1.13.0-py37_0.conda",
		"pillow-6.2.1-py37hd70f55b_0.tar.bz2",
	}
	for _, name := range archives {
		require.NoError(t, os.WriteFile(filepath.Join(pkgsDir, name), []byte(name), 0o644))
	}

	// Non-archive residue in the cache must be ignored.
	require.NoError(t, os.WriteFile(filepath.Join(pkgsDir, "urls.txt"), []byte("x"), 0o644))

	require.NoError(t, b.copyPackages(context.Background()))

	destDir := filepath.Join(b.cfg.ChannelDir(), b.desc.ChannelArch)
	for _, name := range archives {
		contents, err := os.ReadFile(filepath.Join(destDir, name))
		require.NoError(t, err)
		require.Equal(t, name, string(contents))
	}

	_, err := os.Stat(filepath.Join(destDir, "urls.txt"))
	require.ErrorIs(t, err, os.ErrNotExist)

	require.Len(t, b.knownPackages, 3)
	require.Contains(t, b.knownPackages, "numpy")
	require.Contains(t, b.knownPackages, "six")
	require.Contains(t, b.knownPackages, "pillow")
}
