package winpath

import "strings"

// pathListSeparator separates entries in a Windows PATH registry value.
// It is fixed rather than os.PathListSeparator so the filtering logic can
// be exercised on any platform.
const pathListSeparator = ";"

// FilterPathValue removes every entry of a ;-separated PATH value that
// matches target after normalization. Surviving entries keep their original
// unexpanded text and order. expand maps a raw entry to its comparison form
// (registry %VAR% expansion); pass nil when no expansion applies.
// The second return reports whether anything was removed.
func FilterPathValue(pathValue, target string, expand func(string) string) (string, bool) {
	normalizedTarget := Normalize(target)

	var (
		survivors []string
		changed   bool
	)

	for _, entry := range strings.Split(pathValue, pathListSeparator) {
		expanded := entry
		if expand != nil {
			expanded = expand(entry)
		}

		if Normalize(expanded) == normalizedTarget {
			changed = true
			continue
		}

		survivors = append(survivors, entry)
	}

	return strings.Join(survivors, pathListSeparator), changed
}

// Normalize maps a Windows path to a canonical comparison form: forward
// slashes become backslashes, redundant separators and trailing separators
// are dropped, and comparison is case-insensitive.
func Normalize(p string) string {
	p = strings.ReplaceAll(p, "/", `\`)

	// Collapse runs of backslashes, keeping a leading UNC prefix intact.
	unc := strings.HasPrefix(p, `\\`)
	for strings.Contains(p, `\\`) {
		p = strings.ReplaceAll(p, `\\`, `\`)
	}

	if unc {
		p = `\` + p
	}

	p = strings.TrimRight(p, `\`)

	return strings.ToLower(p)
}
