package script

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/ccdc-opensource/conda-offline-installer/internal/platform"
)

//go:embed templates/*.tmpl
var templates embed.FS

const (
	// unixScriptMode makes install.sh directly executable.
	unixScriptMode os.FileMode = 0o755
	// windowsScriptMode is used for install.bat, where the execute bit is meaningless.
	windowsScriptMode os.FileMode = 0o644
)

// Params are the values substituted into the install script template.
type Params struct {
	// InstallerExe is the filename of the bundled distribution installer.
	InstallerExe string
	// Packages is the package list in declared order.
	Packages []string
}

// Render produces the install script body for the given platform.
func Render(desc platform.Descriptor, params Params) ([]byte, error) {
	tmpl, err := template.ParseFS(templates, "templates/"+desc.ScriptName+".tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse install script template: %w", err)
	}

	data := struct {
		InstallerExe string
		Packages     string
	}{
		InstallerExe: params.InstallerExe,
		Packages:     strings.Join(params.Packages, " "),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render install script: %w", err)
	}

	return buf.Bytes(), nil
}

// Write renders the install script into outputDir and returns its path.
// On unix platforms the script is marked executable.
func Write(desc platform.Descriptor, outputDir string, params Params) (string, error) {
	body, err := Render(desc, params)
	if err != nil {
		return "", err
	}

	mode := unixScriptMode
	if desc.IsWindows() {
		mode = windowsScriptMode
	}

	scriptPath := filepath.Join(outputDir, desc.ScriptName)
	if err := os.WriteFile(scriptPath, body, mode); err != nil {
		return "", fmt.Errorf("write install script: %w", err)
	}

	return scriptPath, nil
}
