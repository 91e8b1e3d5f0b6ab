package conda

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ccdc-opensource/conda-offline-installer/internal/logger"
	"github.com/ccdc-opensource/conda-offline-installer/internal/platform"
)

// condarcEnvVar overrides the conda configuration file so the fetch only
// sees the channels we pin for bundle creation.
const condarcEnvVar = "CONDARC"

// Runner invokes the conda binary inside a scratch install prefix with a
// customized environment.
type Runner struct {
	desc        platform.Descriptor
	prefix      string
	condarcPath string
}

// NewRunner returns a Runner for the conda install under prefix.
// condarcPath pins package sources for every invocation.
func NewRunner(desc platform.Descriptor, prefix, condarcPath string) *Runner {
	return &Runner{
		desc:        desc,
		prefix:      prefix,
		condarcPath: condarcPath,
	}
}

// FetchPackages downloads the given package specs and their dependency
// closure into the package cache without linking them into the environment.
func (r *Runner) FetchPackages(ctx context.Context, specs ...string) error {
	args := append([]string{"install", "-y", "--download-only"}, specs...)
	return r.run(ctx, args...)
}

// Install links the given package specs into the scratch environment.
func (r *Runner) Install(ctx context.Context, specs ...string) error {
	args := append([]string{"install", "-y"}, specs...)
	return r.run(ctx, args...)
}

// CleanAll removes all cached package archives from the scratch install.
func (r *Runner) CleanAll(ctx context.Context) error {
	return r.run(ctx, "clean", "-y", "--all")
}

// UpdateAll downloads updates for every package bundled with the installer.
func (r *Runner) UpdateAll(ctx context.Context) error {
	return r.run(ctx, "update", "-y", "--all")
}

// Index builds channel metadata for the given directory, applying the
// repodata patch script.
func (r *Runner) Index(ctx context.Context, patchScript, channelDir string) error {
	absPatch, err := filepath.Abs(patchScript)
	if err != nil {
		return fmt.Errorf("resolve patch script: %w", err)
	}

	return r.run(ctx, "index", "-p", absPatch, channelDir)
}

// run executes a conda subcommand and treats any nonzero exit as fatal,
// dumping the argv and environment for diagnosis first.
func (r *Runner) run(ctx context.Context, args ...string) error {
	env, err := r.environment()
	if err != nil {
		return err
	}

	executable := r.desc.CondaExecutable(r.prefix)

	logger.InfoKV(ctx, "Running conda", "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, executable, args...)
	cmd.Env = env
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		logger.ErrorKV(ctx, "Conda command failed",
			"executable", executable,
			"args", args,
			"env", env)

		return fmt.Errorf("conda %s: %w", args[0], err)
	}

	return nil
}

// environment builds the process environment for conda invocations.
func (r *Runner) environment() ([]string, error) {
	absCondarc, err := filepath.Abs(r.condarcPath)
	if err != nil {
		return nil, fmt.Errorf("resolve condarc: %w", err)
	}

	libraryBin := ""
	if r.desc.IsWindows() {
		// Library\bin must be on PATH so conda can find libcrypto.
		libraryBin = filepath.Join(r.prefix, "Library", "bin")
	}

	return buildEnvironment(os.Environ(), absCondarc, libraryBin), nil
}

// buildEnvironment overrides CONDARC in base and, when libraryBin is
// non-empty, prepends it to PATH. The base slice is not modified.
func buildEnvironment(base []string, condarcPath, libraryBin string) []string {
	env := make([]string, 0, len(base)+1)
	condarcSet := false

	for _, entry := range base {
		key, value, found := strings.Cut(entry, "=")
		if !found {
			env = append(env, entry)
			continue
		}

		switch {
		case key == condarcEnvVar:
			env = append(env, condarcEnvVar+"="+condarcPath)
			condarcSet = true
		case libraryBin != "" && strings.EqualFold(key, "PATH"):
			env = append(env, key+"="+libraryBin+string(os.PathListSeparator)+value)
		default:
			env = append(env, entry)
		}
	}

	if !condarcSet {
		env = append(env, condarcEnvVar+"="+condarcPath)
	}

	return env
}
