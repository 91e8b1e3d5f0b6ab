package conda

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestBuildEnvironmentOverridesCondarc checks that an existing CONDARC value is replaced.
func TestBuildEnvironmentOverridesCondarc(t *testing.T) {
	t.Parallel()

	base := []string{"HOME=/home/builder", "CONDARC=/etc/condarc"}
	env := buildEnvironment(base, "/work/condarc-pinned", "")

	require.Contains(t, env, "CONDARC=/work/condarc-pinned")
	require.NotContains(t, env, "CONDARC=/etc/condarc")
	require.Contains(t, env, "HOME=/home/builder")
}

// TestBuildEnvironmentAppendsCondarc checks that CONDARC is added when absent.
func TestBuildEnvironmentAppendsCondarc(t *testing.T) {
	t.Parallel()

	env := buildEnvironment([]string{"HOME=/home/builder"}, "/work/condarc-pinned", "")
	require.Contains(t, env, "CONDARC=/work/condarc-pinned")
}

// TestBuildEnvironmentPrependsLibraryBin checks the PATH prefix used on Windows.
func TestBuildEnvironmentPrependsLibraryBin(t *testing.T) {
	t.Parallel()

	sep := string(os.PathListSeparator)
	base := []string{"PATH=/usr/bin" + sep + "/bin"}
	env := buildEnvironment(base, "/work/condarc-pinned", `build_temp\Library\bin`)

	var pathEntry string

	for _, entry := range env {
		if strings.HasPrefix(entry, "PATH=") {
			pathEntry = entry
		}
	}

	require.True(t, strings.HasPrefix(pathEntry, "PATH="+`build_temp\Library\bin`+sep))
	require.True(t, strings.HasSuffix(pathEntry, "/usr/bin"+sep+"/bin"))
}

// TestBuildEnvironmentKeepsMalformedEntries ensures entries without '=' survive untouched.
func TestBuildEnvironmentKeepsMalformedEntries(t *testing.T) {
	t.Parallel()

	env := buildEnvironment([]string{"WEIRDENTRY"}, "/work/condarc-pinned", "")
	require.Contains(t, env, "WEIRDENTRY")
}
