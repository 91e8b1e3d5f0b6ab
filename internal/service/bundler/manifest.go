package bundler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/ccdc-opensource/conda-offline-installer/internal/logger"
	"github.com/ccdc-opensource/conda-offline-installer/internal/version"
)

// ManifestFilename is the bundle manifest written next to the install script.
const ManifestFilename = "bundle-manifest.yaml"

// manifestFileMode matches the permissions of the other bundle artifacts.
const manifestFileMode os.FileMode = 0o644

// Manifest records what went into a bundle, for traceability of shipped media.
type Manifest struct {
	// BuildID uniquely identifies this build run.
	BuildID string `yaml:"build_id"`
	// ToolVersion is the bundler version that produced the bundle.
	ToolVersion string `yaml:"tool_version"`
	// CreatedAt is the UTC completion time of the build.
	CreatedAt time.Time `yaml:"created_at"`
	// Distribution and DistributionVersion identify the base installer.
	Distribution        string `yaml:"distribution"`
	DistributionVersion string `yaml:"distribution_version"`
	// Installer is the filename of the bundled installer binary.
	Installer string `yaml:"installer"`
	// ChannelArch is the architecture subdirectory of the offline channel.
	ChannelArch string `yaml:"channel_arch"`
	// RequestedPackages is the package list the bundle was built for.
	RequestedPackages []string `yaml:"requested_packages"`
	// ChannelPackages are the logical names of every package in the channel,
	// including transitive dependencies, sorted.
	ChannelPackages []string `yaml:"channel_packages"`
}

// writeManifest persists the bundle manifest into the output directory.
func (b *bundler) writeManifest(ctx context.Context) error {
	channelPackages := make([]string, 0, len(b.knownPackages))
	for name := range b.knownPackages {
		channelPackages = append(channelPackages, name)
	}

	sort.Strings(channelPackages)

	manifest := &Manifest{
		BuildID:             uuid.NewString(),
		ToolVersion:         version.Short(),
		CreatedAt:           time.Now().UTC(),
		Distribution:        b.cfg.Distribution,
		DistributionVersion: b.cfg.DistributionVersion + b.cfg.RevisionSuffix,
		Installer:           b.installerName,
		ChannelArch:         b.desc.ChannelArch,
		RequestedPackages:   b.cfg.Packages(),
		ChannelPackages:     channelPackages,
	}

	contents, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("marshal bundle manifest: %w", err)
	}

	manifestPath := filepath.Join(b.cfg.OutputDir(), ManifestFilename)
	if err := os.WriteFile(manifestPath, contents, manifestFileMode); err != nil {
		return fmt.Errorf("write bundle manifest: %w", err)
	}

	logger.InfoKV(ctx, "Bundle manifest written",
		"path", manifestPath, "build_id", manifest.BuildID)

	return nil
}
