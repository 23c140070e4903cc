package diag

import "regexp"

// noWorkPattern matches the resolver's report that the installed version
// is already current (upgrade-only runs).
var noWorkPattern = regexp.MustCompile(`(?im)\b(?:is up-to-date|already up to date|is up to date)\b`)

// ReportsNoWork reports whether a successful run's output says nothing was
// downloaded or extracted.
func ReportsNoWork(output string) bool {
	return noWorkPattern.MatchString(output)
}
