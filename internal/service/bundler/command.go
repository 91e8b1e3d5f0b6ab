package bundler

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/ccdc-opensource/conda-offline-installer/internal/conda"
	"github.com/ccdc-opensource/conda-offline-installer/internal/config"
	"github.com/ccdc-opensource/conda-offline-installer/internal/fetch"
	"github.com/ccdc-opensource/conda-offline-installer/internal/logger"
	"github.com/ccdc-opensource/conda-offline-installer/internal/platform"
	"github.com/ccdc-opensource/conda-offline-installer/internal/script"
	"github.com/ccdc-opensource/conda-offline-installer/internal/winpath"
)

// pinnedFileMode is used for the python version pin file.
const pinnedFileMode os.FileMode = 0o644

// Options contains inputs for the bundler entry point.
type Options struct {
	// ConfigPath is an optional path to a bundle spec YAML file.
	// When empty, the standard bundle is built.
	ConfigPath string
}

// bundler holds the state for a single bundle build.
// It is unexported—callers should use Run, which encapsulates setup.
type bundler struct {
	cfg           *config.Config
	desc          platform.Descriptor
	conda         *conda.Runner
	installerName string
	installerPath string
	// knownPackages collects the logical names of every archive copied into
	// the channel. It does not filter the copy; it feeds the bundle manifest.
	knownPackages map[string]struct{}
}

// Run executes the bundle build workflow.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "offline-installer")

	b, err := newBundler(ctx, opts)
	if err != nil {
		return fmt.Errorf("initialize bundler: %w", err)
	}

	if err = acquireRunMarker(ctx); err != nil {
		return err
	}

	defer releaseRunMarker(ctx)

	if err = b.Build(ctx); err != nil {
		return fmt.Errorf("bundle build failed: %w", err)
	}

	logger.InfoKV(ctx, "Bundle build completed", "output", b.cfg.OutputDir())

	return nil
}

// newBundler loads the bundle spec and resolves the host platform.
func newBundler(_ context.Context, opts *Options) (*bundler, error) {
	var (
		cfg *config.Config
		err error
	)

	if opts.ConfigPath != "" {
		cfg, err = config.Load(opts.ConfigPath)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.Default()
	}

	desc, err := platform.Current()
	if err != nil {
		return nil, err
	}

	installerName := desc.InstallerName(cfg.Distribution, cfg.PythonVersion, cfg.DistributionVersion)

	return &bundler{
		cfg:           cfg,
		desc:          desc,
		conda:         conda.NewRunner(desc, cfg.BuildDir, cfg.CondarcPath),
		installerName: installerName,
		installerPath: filepath.Join(cfg.OutputDir(), installerName),
		knownPackages: make(map[string]struct{}),
	}, nil
}

// Build runs the pipeline: every step must succeed, no step is retried,
// and any failure terminates the run.
func (b *bundler) Build(ctx context.Context) error {
	logger.Info(ctx, "Cleaning up build and output directories")

	if err := b.resetDirectories(); err != nil {
		return err
	}

	logger.Info(ctx, "Getting installer")

	if err := fetch.DownloadInstaller(ctx,
		b.cfg.MirrorURL, b.installerName, b.installerPath, b.cfg.InstallerSHA256); err != nil {
		return err
	}

	logger.Info(ctx, "Checking there are no condarc files around")
	conda.WarnAboutCondarcFiles(ctx)

	logger.Info(ctx, "Installing the runtime into the build directory")

	if err := b.installRuntime(ctx); err != nil {
		return err
	}

	logger.Info(ctx, "Pinning python version")

	if err := b.pinPythonVersion(); err != nil {
		return err
	}

	logger.Info(ctx, "Removing conda packages that were part of the installer")

	if err := b.conda.CleanAll(ctx); err != nil {
		return err
	}

	logger.Info(ctx, "Downloading updates so that we can distribute them consistently")

	if err := b.conda.UpdateAll(ctx); err != nil {
		return err
	}

	logger.Info(ctx, "Fetching packages")

	if err := b.conda.FetchPackages(ctx, b.cfg.Packages()...); err != nil {
		return err
	}

	logger.Info(ctx, "Copying packages to the output directory")

	if err := b.copyPackages(ctx); err != nil {
		return err
	}

	logger.Info(ctx, "Creating index of the offline channel")

	if err := b.indexOfflineChannel(ctx); err != nil {
		return err
	}

	logger.Info(ctx, "Creating install script")

	if err := b.writeInstallScript(ctx); err != nil {
		return err
	}

	logger.Info(ctx, "Writing bundle manifest")

	return b.writeManifest(ctx)
}

// resetDirectories removes residue from previous runs and recreates the
// working directories. Removal failures are ignored: a missing directory is
// the normal case, and anything else surfaces when the directory is recreated.
func (b *bundler) resetDirectories() error {
	_ = os.RemoveAll(b.cfg.OutputDir())
	_ = os.RemoveAll(b.cfg.BuildDir)

	if err := os.MkdirAll(b.cfg.BuildDir, 0o755); err != nil {
		return fmt.Errorf("create build directory: %w", err)
	}

	if err := os.MkdirAll(b.cfg.OutputDir(), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	return nil
}

// installRuntime runs the downloaded installer unattended into the build
// directory. On Windows the installer mutates the PATH registry values, so
// those entries are reverted before the install outcome is inspected.
func (b *bundler) installRuntime(ctx context.Context) error {
	args, err := b.desc.InstallerArgs(b.installerPath, b.cfg.BuildDir)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Running installer", "args", args)

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	runErr := cmd.Run()

	if b.desc.IsWindows() {
		if cleanupErr := winpath.CleanupInstallerEntries(ctx, b.cfg.BuildDir); cleanupErr != nil {
			logger.WarnKV(ctx, "PATH cleanup after install failed", "error", cleanupErr)
		}
	}

	if runErr != nil {
		return fmt.Errorf("run installer %v: %w", args, runErr)
	}

	return nil
}

// pinPythonVersion writes the conda pin file fixing the python major version
// inside the scratch environment.
func (b *bundler) pinPythonVersion() error {
	pinFile := filepath.Join(b.cfg.BuildDir, "conda-meta", "pinned")
	pin := fmt.Sprintf("python %s.*\n", b.cfg.PythonVersion)

	if err := os.WriteFile(pinFile, []byte(pin), pinnedFileMode); err != nil {
		return fmt.Errorf("pin python version: %w", err)
	}

	return nil
}

// indexOfflineChannel installs the channel tooling into the scratch
// environment and indexes the offline channel with the repodata patch.
// The tooling install reports a spurious failure on some installer
// versions even though conda-build ends up usable, so it is tolerated.
func (b *bundler) indexOfflineChannel(ctx context.Context) error {
	if err := b.conda.Install(ctx, b.cfg.BootstrapPackages(b.desc)...); err != nil {
		logger.WarnKV(ctx, "Channel tooling install reported an error, continuing", "error", err)
	}

	return b.conda.Index(ctx, b.cfg.PatchScript, b.cfg.ChannelDir())
}

// writeInstallScript renders the platform install script into the bundle.
func (b *bundler) writeInstallScript(ctx context.Context) error {
	scriptPath, err := script.Write(b.desc, b.cfg.OutputDir(), script.Params{
		InstallerExe: b.installerName,
		Packages:     b.cfg.Packages(),
	})
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Install script written", "path", scriptPath)

	return nil
}
