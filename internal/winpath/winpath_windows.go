//go:build windows

package winpath

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"unsafe"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"

	"github.com/ccdc-opensource/conda-offline-installer/internal/logger"
)

const (
	pathValueName = "PATH"

	hwndBroadcast   = 0xffff
	wmSettingChange = 0x001a
	smtoAbortIfHung = 0x0002

	broadcastTimeoutMilliseconds = 5000
)

// machineEnvironmentKey is where the all-users PATH lives.
const machineEnvironmentKey = `SYSTEM\CurrentControlSet\Control\Session Manager\Environment`

// userEnvironmentKey is where the per-user PATH lives.
const userEnvironmentKey = `Environment`

// CleanupInstallerEntries reverts the PATH mutations the unattended installer
// performs: it removes the install prefix and its Scripts subdirectory from
// the user and (for admin installs) machine PATH registry values, then
// broadcasts the environment change. Missing keys or values are skipped
// silently; a run with no PATH variable is not an error.
func CleanupInstallerEntries(ctx context.Context, prefix string) error {
	absPrefix, err := filepath.Abs(prefix)
	if err != nil {
		return fmt.Errorf("resolve install prefix: %w", err)
	}

	// A .nonadmin marker means the installer ran per-user only.
	allUsers := true
	if _, statErr := os.Stat(filepath.Join(absPrefix, ".nonadmin")); statErr == nil {
		allUsers = false
	}

	targets := []string{absPrefix, filepath.Join(absPrefix, "Scripts")}
	for _, target := range targets {
		removeFromSystemPath(ctx, target, allUsers)
	}

	broadcastEnvironmentChange()

	return nil
}

// removeFromSystemPath removes all PATH entries matching target from the
// per-user environment key and, when allUsers is set, the machine key too.
func removeFromSystemPath(ctx context.Context, target string, allUsers bool) {
	keys := []struct {
		root registry.Key
		path string
	}{
		{registry.CURRENT_USER, userEnvironmentKey},
	}
	if allUsers {
		keys = append(keys, struct {
			root registry.Key
			path string
		}{registry.LOCAL_MACHINE, machineEnvironmentKey})
	}

	for _, key := range keys {
		if err := removeFromRegistryKey(key.root, key.path, target); err != nil {
			// A non-admin install may have no PATH value at all. Skip per key.
			logger.DebugKV(ctx, "Skipping PATH cleanup for registry key",
				"key", key.path, "error", err)
		}
	}
}

// removeFromRegistryKey rewrites the PATH value under root\keyPath without
// the entries matching target, preserving the value type and the unexpanded
// text of surviving entries.
func removeFromRegistryKey(root registry.Key, keyPath, target string) error {
	key, err := registry.OpenKey(root, keyPath, registry.QUERY_VALUE|registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("open %s: %w", keyPath, err)
	}

	defer func() {
		_ = key.Close()
	}()

	value, valueType, err := key.GetStringValue(pathValueName)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return fmt.Errorf("no PATH value under %s: %w", keyPath, err)
		}

		return fmt.Errorf("read PATH under %s: %w", keyPath, err)
	}

	expand := func(entry string) string { return entry }
	if valueType == registry.EXPAND_SZ {
		expand = func(entry string) string {
			expanded, expandErr := registry.ExpandString(entry)
			if expandErr != nil {
				return entry
			}

			return expanded
		}
	}

	modified, changed := FilterPathValue(value, target, expand)
	if !changed {
		return nil
	}

	if valueType == registry.EXPAND_SZ {
		return key.SetExpandStringValue(pathValueName, modified)
	}

	return key.SetStringValue(pathValueName, modified)
}

// broadcastEnvironmentChange tells running processes that the machine
// environment variables changed. This is the only call in the pipeline
// with an explicit timeout.
func broadcastEnvironmentChange() {
	user32 := windows.NewLazySystemDLL("user32.dll")
	sendMessageTimeout := user32.NewProc("SendMessageTimeoutW")

	environment, err := windows.UTF16PtrFromString("Environment")
	if err != nil {
		return
	}

	var result uintptr

	//nolint:errcheck // Best effort: a failed broadcast only delays PATH pickup.
	sendMessageTimeout.Call(
		uintptr(hwndBroadcast),
		uintptr(wmSettingChange),
		0,
		uintptr(unsafe.Pointer(environment)),
		uintptr(smtoAbortIfHung),
		uintptr(broadcastTimeoutMilliseconds),
		uintptr(unsafe.Pointer(&result)),
	)
}
