package upgrade

import "regexp"

// semverPattern matches a "v" followed by 1-3 dot-separated numeric
// groups. The captured group excludes the leading "v".
var semverPattern = regexp.MustCompile(`v(\d+(?:\.\d+){0,2})`)

// ExtractVersion returns the first vN[.N[.N]]-shaped token in s without
// the leading "v", or "" when none is present.
func ExtractVersion(s string) string {
	m := semverPattern.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[1]
}

// preferLonger picks the more specific of two extracted versions.
func preferLonger(a, b string) string {
	if len(b) > len(a) {
		return b
	}
	return a
}
