package script

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ccdc-opensource/conda-offline-installer/internal/platform"
)

// TestRenderUnix checks the unix script contains the installer filename and
// the package list, space-separated, in declared order.
func TestRenderUnix(t *testing.T) {
	t.Parallel()

	desc, err := platform.ByGOOS("linux")
	require.NoError(t, err)

	body, err := Render(desc, Params{
		InstallerExe: "Miniconda3-4.7.12.1-Linux-x86_64.sh",
		Packages:     []string{"Pillow", "six"},
	})
	require.NoError(t, err)

	text := string(body)
	require.True(t, strings.HasPrefix(text, "#!/bin/sh\n"))
	require.Contains(t, text, "$INSTALLER_DIR/Miniconda3-4.7.12.1-Linux-x86_64.sh -b -p $1")

	var installLine string

	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "conda install") && strings.Contains(line, "conda_offline_channel") {
			installLine = line
			break
		}
	}

	require.NotEmpty(t, installLine)
	require.True(t, strings.HasSuffix(installLine, "Pillow six"))
}

// TestRenderWindows checks the batch script substitutions.
func TestRenderWindows(t *testing.T) {
	t.Parallel()

	desc, err := platform.ByGOOS("windows")
	require.NoError(t, err)

	body, err := Render(desc, Params{
		InstallerExe: "Miniconda3-4.7.12.1-Windows-x86_64.exe",
		Packages:     []string{"Pillow", "six", "unxutils"},
	})
	require.NoError(t, err)

	text := string(body)
	require.True(t, strings.HasPrefix(text, "@echo off"))
	require.Contains(t, text, `"%installer_dir%Miniconda3-4.7.12.1-Windows-x86_64.exe" /AddToPath=0 /S /D=%~s1`)
	require.Contains(t, text, "--override-channels Pillow six unxutils")
	require.NotContains(t, text, "{{")
}

// TestWrite verifies the emitted file name and, on unix, the executable bit.
func TestWrite(t *testing.T) {
	t.Parallel()

	desc, err := platform.ByGOOS("linux")
	require.NoError(t, err)

	dir := t.TempDir()

	path, err := Write(desc, dir, Params{
		InstallerExe: "Miniconda3-4.7.12.1-Linux-x86_64.sh",
		Packages:     []string{"numpy"},
	})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "install.sh"), path)

	info, err := os.Stat(path)
	require.NoError(t, err)

	if runtime.GOOS != "windows" {
		require.NotZero(t, info.Mode()&0o100)
	}
}
