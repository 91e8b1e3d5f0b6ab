package platform

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
)

// architecture is the only supported machine architecture.
const architecture = "x86_64"

// ErrUnsupportedOS indicates the host OS has no installer variant.
var ErrUnsupportedOS = errors.New("unsupported operating system")

// Descriptor captures everything that differs between installer platforms:
// naming conventions, channel architecture, and where conda lives inside
// the scratch install.
type Descriptor struct {
	// GOOS is the Go name of the platform ("windows", "linux", "darwin").
	GOOS string
	// InstallerToken is the platform token in the installer filename.
	InstallerToken string
	// InstallerExt is the installer filename extension, without the dot.
	InstallerExt string
	// ChannelArch is the conda channel subdirectory for this platform.
	ChannelArch string
	// BinDir is the subdirectory of the install prefix holding executables.
	BinDir string
	// ExeSuffix is appended to executable names.
	ExeSuffix string
	// ScriptName is the filename of the emitted install script.
	ScriptName string
}

// descriptors lists the supported platforms keyed by GOOS.
func descriptors() map[string]Descriptor {
	return map[string]Descriptor{
		"windows": {
			GOOS:           "windows",
			InstallerToken: "Windows",
			InstallerExt:   "exe",
			ChannelArch:    "win-64",
			BinDir:         "Scripts",
			ExeSuffix:      ".exe",
			ScriptName:     "install.bat",
		},
		"linux": {
			GOOS:           "linux",
			InstallerToken: "Linux",
			InstallerExt:   "sh",
			ChannelArch:    "linux-64",
			BinDir:         "bin",
			ExeSuffix:      "",
			ScriptName:     "install.sh",
		},
		"darwin": {
			GOOS:           "darwin",
			InstallerToken: "MacOSX",
			InstallerExt:   "sh",
			ChannelArch:    "osx-64",
			BinDir:         "bin",
			ExeSuffix:      "",
			ScriptName:     "install.sh",
		},
	}
}

// Current returns the descriptor for the host platform.
func Current() (Descriptor, error) {
	return ByGOOS(runtime.GOOS)
}

// ByGOOS returns the descriptor for the provided GOOS value.
func ByGOOS(goos string) (Descriptor, error) {
	desc, ok := descriptors()[goos]
	if !ok {
		return Descriptor{}, fmt.Errorf("%s: %w", goos, ErrUnsupportedOS)
	}

	return desc, nil
}

// InstallerName renders the upstream installer filename:
// (Ana|Mini)conda<PYVER>-<VERSION>-<PLATFORM>-<ARCHITECTURE>.<EXTENSION>.
func (d Descriptor) InstallerName(distribution, pythonVersion, version string) string {
	return fmt.Sprintf("%s%s-%s-%s-%s.%s",
		distribution,
		pythonVersion,
		version,
		d.InstallerToken,
		architecture,
		d.InstallerExt)
}

// InstallerArgs returns the argv for running the installer unattended
// into the provided prefix directory.
func (d Descriptor) InstallerArgs(installerPath, prefix string) ([]string, error) {
	absPrefix, err := filepath.Abs(prefix)
	if err != nil {
		return nil, fmt.Errorf("resolve install prefix: %w", err)
	}

	if d.GOOS == "windows" {
		// /S runs the install in batch mode, /D sets the destination.
		return []string{installerPath, "/S", "/D=" + absPrefix}, nil
	}

	// -b batch mode, -f tolerate an existing prefix, -p destination.
	return []string{"sh", installerPath, "-b", "-f", "-p", absPrefix}, nil
}

// CondaExecutable returns the path to the conda binary inside a scratch install.
func (d Descriptor) CondaExecutable(prefix string) string {
	return filepath.Join(prefix, d.BinDir, "conda"+d.ExeSuffix)
}

// IsWindows reports whether the descriptor targets Windows.
func (d Descriptor) IsWindows() bool {
	return d.GOOS == "windows"
}
