package bundler

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-ps"

	"github.com/ccdc-opensource/conda-offline-installer/internal/logger"
)

// MarkerFilename marks that a bundle build is in progress. The pipeline
// owns its build and output directories exclusively, so concurrent runs on
// the same working directory would corrupt each other.
const MarkerFilename = "offline-installer-marker.bin"

var errBundlerRunning = errors.New("another bundle build is running")

// acquireRunMarker creates the exclusivity marker, recovering from a stale
// marker left behind by a crashed run when no other bundler process exists.
func acquireRunMarker(ctx context.Context) error {
	if _, err := os.Stat(MarkerFilename); err == nil {
		running, checkErr := otherBundlerRunning()
		if checkErr != nil || running {
			return errBundlerRunning
		}

		logger.Info(ctx, "Removing stale run marker from a previous build")

		if err = os.Remove(MarkerFilename); err != nil {
			return errBundlerRunning
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	marker, err := os.Create(MarkerFilename)
	if err != nil {
		return err
	}

	return marker.Close()
}

// releaseRunMarker removes the exclusivity marker.
func releaseRunMarker(ctx context.Context) {
	if err := os.Remove(MarkerFilename); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WarnKV(ctx, "Unable to remove run marker", "error", err)
	}
}

// otherBundlerRunning reports whether a process with our executable name
// other than the current process is alive.
func otherBundlerRunning() (bool, error) {
	executable, err := os.Executable()
	if err != nil {
		return false, err
	}

	executableName := filepath.Base(executable)

	processes, err := ps.Processes()
	if err != nil {
		return false, err
	}

	thisProcessID := os.Getpid()

	for _, process := range processes {
		if process.Pid() == thisProcessID {
			continue
		}

		if process.Executable() == executableName {
			return true, nil
		}
	}

	return false, nil
}
