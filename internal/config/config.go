package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ccdc-opensource/conda-offline-installer/internal/platform"
)

// Config describes the bundle to build: which distribution to base it on,
// which packages to ship in the offline channel, and where to work.
type Config struct {
	// Distribution is the installer family, either "Miniconda" or "Anaconda".
	Distribution string `yaml:"distribution"`
	// DistributionVersion is the upstream installer version, e.g. "4.7.12.1".
	DistributionVersion string `yaml:"distribution_version"`
	// RevisionSuffix distinguishes rebuilds of the same upstream version, e.g. "-2".
	RevisionSuffix string `yaml:"revision_suffix"`
	// PythonVersion is the python major version baked into the installer name
	// and pinned inside the scratch environment.
	PythonVersion string `yaml:"python_version"`
	// MirrorURL is the base URL the installer binary is downloaded from.
	MirrorURL string `yaml:"mirror_url"`
	// InstallerSHA256 optionally pins the expected hex digest of the installer.
	// When empty, the download is not verified.
	InstallerSHA256 string `yaml:"installer_sha256,omitempty"`
	// BasePackages are shipped for users of the API.
	BasePackages []string `yaml:"base_packages"`
	// ExtraPackages are required by distributed scripts.
	ExtraPackages []string `yaml:"extra_packages"`
	// BuildDir is the scratch directory the temporary runtime is installed into.
	BuildDir string `yaml:"build_dir"`
	// OutputRoot is the directory the finished bundle is written under.
	OutputRoot string `yaml:"output_root"`
	// CondarcPath points at the condarc pinning package sources during the fetch.
	CondarcPath string `yaml:"condarc_path"`
	// PatchScript is the repodata hotfix script passed to the index subcommand.
	PatchScript string `yaml:"patch_script"`
}

const (
	// DefaultConfigFilename is the default filename for the bundle spec.
	DefaultConfigFilename = "offline-installer.yaml"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	distributionMiniconda = "Miniconda"
	distributionAnaconda  = "Anaconda"

	defaultDistributionVersion = "4.7.12.1"
	defaultRevisionSuffix      = "-2"
	defaultPythonVersion       = "3"
	defaultMirrorURL           = "https://repo.continuum.io/miniconda"
	defaultBuildDir            = "build_temp"
	defaultOutputRoot          = "output"
	defaultCondarcPath         = "condarc-for-offline-installer-creation"
	defaultPatchScript         = "repodata-hotfixes/main.py"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errUnknownDistribution is returned for distributions other than Miniconda/Anaconda.
	errUnknownDistribution = errors.New("distribution must be Miniconda or Anaconda")
	// errNoPackages is returned when the bundle would contain no packages at all.
	errNoPackages = errors.New("at least one package must be listed")
)

// defaultBasePackages are recommended for using the API.
func defaultBasePackages() []string {
	return []string{"Pillow", "six", "lxml", "numpy", "matplotlib", "pytest"}
}

// defaultExtraPackages are required by other scripts we distribute.
func defaultExtraPackages() []string {
	return []string{"docxtpl", "pockets", "docutils", "pygments", "sphinx", "pandas", "py-xgboost"}
}

// Default returns a configuration describing the standard bundle.
func Default() *Config {
	cfg := &Config{
		Distribution: distributionMiniconda,
	}
	applyDefaults(cfg)

	return cfg
}

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read bundle spec: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal bundle spec: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal bundle spec: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write bundle spec: %w", err)
	}

	return nil
}

// Validate checks required fields, fills defaults, and rejects malformed values.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	applyDefaults(cfg)

	if cfg.Distribution != distributionMiniconda && cfg.Distribution != distributionAnaconda {
		return fmt.Errorf("%q: %w", cfg.Distribution, errUnknownDistribution)
	}

	if _, err := url.ParseRequestURI(cfg.MirrorURL); err != nil {
		return fmt.Errorf("invalid mirror URL: %w", err)
	}

	if len(cfg.BasePackages) == 0 && len(cfg.ExtraPackages) == 0 {
		return errNoPackages
	}

	return nil
}

// applyDefaults fills empty fields with the standard bundle values.
func applyDefaults(cfg *Config) {
	if cfg.Distribution == "" {
		cfg.Distribution = distributionMiniconda
	}

	if cfg.DistributionVersion == "" {
		cfg.DistributionVersion = defaultDistributionVersion
	}

	if cfg.RevisionSuffix == "" {
		cfg.RevisionSuffix = defaultRevisionSuffix
	}

	if cfg.PythonVersion == "" {
		cfg.PythonVersion = defaultPythonVersion
	}

	if cfg.MirrorURL == "" {
		cfg.MirrorURL = defaultMirrorURL
	}

	if cfg.BasePackages == nil {
		cfg.BasePackages = defaultBasePackages()
	}

	if cfg.ExtraPackages == nil {
		cfg.ExtraPackages = defaultExtraPackages()
	}

	if cfg.BuildDir == "" {
		cfg.BuildDir = defaultBuildDir
	}

	if cfg.OutputRoot == "" {
		cfg.OutputRoot = defaultOutputRoot
	}

	if cfg.CondarcPath == "" {
		cfg.CondarcPath = defaultCondarcPath
	}

	if cfg.PatchScript == "" {
		cfg.PatchScript = defaultPatchScript
	}
}

// Name returns the bundle name derived from the distribution and python version,
// e.g. "miniconda3".
func (c *Config) Name() string {
	return strings.ToLower(c.Distribution) + c.PythonVersion
}

// OutputDir returns the directory the finished bundle is written into,
// e.g. "output/miniconda3-4.7.12.1-2".
func (c *Config) OutputDir() string {
	return filepath.Join(c.OutputRoot, c.Name()+"-"+c.DistributionVersion+c.RevisionSuffix)
}

// ChannelDir returns the offline channel directory inside the output bundle.
func (c *Config) ChannelDir() string {
	return filepath.Join(c.OutputDir(), "conda_offline_channel")
}

// Packages returns the full package list in declared order: base then extra.
func (c *Config) Packages() []string {
	packages := make([]string, 0, len(c.BasePackages)+len(c.ExtraPackages))
	packages = append(packages, c.BasePackages...)
	packages = append(packages, c.ExtraPackages...)

	return packages
}

// BootstrapPackages returns the packages installed into the scratch runtime
// before indexing, e.g. the channel tooling. Windows additionally needs
// unxutils for the tooling's shell helpers.
func (c *Config) BootstrapPackages(desc platform.Descriptor) []string {
	packages := []string{"conda-build", "conda-verify", "jinja2"}
	if desc.IsWindows() {
		packages = append(packages, "unxutils")
	}

	return packages
}
