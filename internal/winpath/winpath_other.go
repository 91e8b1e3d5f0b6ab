//go:build !windows

package winpath

import "context"

// CleanupInstallerEntries is a no-op on platforms where the installer does
// not touch any PATH registry.
func CleanupInstallerEntries(_ context.Context, _ string) error {
	return nil
}
