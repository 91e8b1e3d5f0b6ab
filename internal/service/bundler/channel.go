package bundler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/gobwas/glob"

	"github.com/ccdc-opensource/conda-offline-installer/internal/logger"
)

// archivePatterns match the two conda package archive formats.
//
//nolint:gochecknoglobals // Compiled once, read-only.
var archivePatterns = []glob.Glob{
	glob.MustCompile("*.bz2"),
	glob.MustCompile("*.conda"),
}

// packageNamePattern captures the part of an archive filename before the
// version number starts, e.g. "numpy-1.17.3-py37h95a1406_0.tar.bz2" -> "numpy".
var packageNamePattern = regexp.MustCompile(`^(.*)-\d.*`)

var errUnrecognizedArchive = errors.New("archive filename does not match name-version pattern")

// packageName returns the logical package name encoded in an archive filename.
func packageName(filename string) (string, error) {
	match := packageNamePattern.FindStringSubmatch(filename)
	if match == nil {
		return "", fmt.Errorf("%s: %w", filename, errUnrecognizedArchive)
	}

	return match[1], nil
}

// copyPackages copies every package archive from the scratch install's cache
// into the architecture subdirectory of the offline channel. All cached
// archives are copied unconditionally; knownPackages only records the
// logical names for the bundle manifest.
func (b *bundler) copyPackages(ctx context.Context) error {
	sourceDir := filepath.Join(b.cfg.BuildDir, "pkgs")
	destDir := filepath.Join(b.cfg.ChannelDir(), b.desc.ChannelArch)

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("create channel directory: %w", err)
	}

	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return fmt.Errorf("read package cache: %w", err)
	}

	copied := 0

	for _, entry := range entries {
		if entry.IsDir() || !matchesArchivePattern(entry.Name()) {
			continue
		}

		name, nameErr := packageName(entry.Name())
		if nameErr != nil {
			return nameErr
		}

		b.knownPackages[name] = struct{}{}

		if err = copyFile(filepath.Join(sourceDir, entry.Name()), filepath.Join(destDir, entry.Name())); err != nil {
			return err
		}

		copied++
	}

	logger.InfoKV(ctx, "Copied package archives into channel",
		"count", copied, "packages", len(b.knownPackages), "dest", destDir)

	return nil
}

// matchesArchivePattern reports whether the filename is a conda package archive.
func matchesArchivePattern(filename string) bool {
	for _, pattern := range archivePatterns {
		if pattern.Match(filename) {
			return true
		}
	}

	return false
}

// copyFile copies a regular file, creating or truncating the destination.
func copyFile(source, dest string) error {
	in, err := os.Open(filepath.Clean(source))
	if err != nil {
		return fmt.Errorf("open %s: %w", source, err)
	}

	defer func() {
		_ = in.Close()
	}()

	out, err := os.Create(filepath.Clean(dest))
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}

	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()

		return fmt.Errorf("copy %s: %w", source, err)
	}

	return out.Close()
}
