// Package script emits the end-user install script shipped with the bundle.
// The script runs the bundled installer unattended into a target directory,
// then installs the package set from the offline channel. Extra
// (channel-name, package-spec) argument pairs install from sibling
// "<name>_conda_channel" directories.
package script
