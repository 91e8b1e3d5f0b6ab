package conda

import (
	"context"
	"os"

	homedir "github.com/mitchellh/go-homedir"

	"github.com/ccdc-opensource/conda-offline-installer/internal/logger"
)

// condarcLocations are the places conda reads configuration from.
// Any of them present on the build machine can affect which packages
// end up in the bundle.
func condarcLocations() []string {
	return []string{
		"/etc/conda/.condarc",
		"/etc/conda/condarc",
		"/etc/conda/condarc.d/",
		"/var/lib/conda/.condarc",
		"/var/lib/conda/condarc",
		"/var/lib/conda/condarc.d/",
		"~/.conda/.condarc",
		"~/.conda/condarc",
		"~/.conda/condarc.d/",
		"~/.condarc",
	}
}

// WarnAboutCondarcFiles logs a warning for every conda configuration file
// found on the build machine. Presence is not fatal: the fetch runs with
// CONDARC overridden, but system-wide condarc.d directories still merge in.
func WarnAboutCondarcFiles(ctx context.Context) {
	for _, location := range condarcLocations() {
		expanded, err := homedir.Expand(location)
		if err != nil {
			logger.WarnKV(ctx, "Unable to expand condarc location", "path", location, "error", err)
			continue
		}

		if _, err := os.Stat(expanded); err == nil {
			logger.WarnKV(ctx,
				"Conda configuration found, this might affect installation of packages",
				"path", expanded)
		}
	}
}
