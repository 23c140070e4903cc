// Package diag turns the resolver's raw diagnostic text into a structured
// ErrorRecord. Everything here is pure: no I/O, no state.
package diag

import (
	"regexp"
	"strings"
)

// ErrorRecord is the normalized shape of one resolver failure. An empty
// Path or URL means the diagnostic did not carry one.
type ErrorRecord struct {
	Path  string
	URL   string
	Error string
}

// HasURL reports whether the record names a URL to fetch.
func (r ErrorRecord) HasURL() bool {
	return r.URL != ""
}

// rule pairs a matcher with an extractor. Named groups "path", "url" and
// "msg" are copied into the record.
type rule struct {
	name string
	re   *regexp.Regexp
}

// rules are tried in order against the last non-empty line of output.
var rules = []rule{
	{
		// /assets/tool.tgz: Get "https://host/tool.tgz": network access denied
		name: "path-get-url",
		re:   regexp.MustCompile(`^(?P<path>/[^\s:"]*): Get "(?P<url>https?://[^"]+)": (?P<msg>.+)$`),
	},
	{
		// Get "https://api.github.com/...": dial tcp: ...
		name: "get-url",
		re:   regexp.MustCompile(`^Get "(?P<url>https?://[^"]+)": (?P<msg>.+)$`),
	},
	{
		// asset not cached: https://host/tool.tgz
		name: "message-url",
		re:   regexp.MustCompile(`^(?P<msg>.+): (?P<url>https?://[^\s"]+)$`),
	},
	{
		// open /tool.tgz: no such file or directory
		name: "path-error",
		re:   regexp.MustCompile(`^(?:open|stat|lstat|read|write|mkdir|remove|rename|chmod) (?P<path>[^\s:]+): (?P<msg>.+)$`),
	},
	{
		// no binary found: /work/bin
		name: "message-path",
		re:   regexp.MustCompile(`^(?P<msg>.+): (?P<path>/[^\s"]*)$`),
	},
}

// Classify extracts an embedded path and/or URL from raw. When no rule
// matches, the record carries raw verbatim as its Error.
func Classify(raw string) ErrorRecord {
	line := lastLine(raw)
	if line == "" {
		return ErrorRecord{Error: raw}
	}

	for _, r := range rules {
		m := r.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		var rec ErrorRecord
		for i, group := range r.re.SubexpNames() {
			switch group {
			case "path":
				rec.Path = m[i]
			case "url":
				rec.URL = m[i]
			case "msg":
				rec.Error = strings.TrimSpace(m[i])
			}
		}
		if rec.Error == "" {
			rec.Error = line
		}
		return rec
	}

	return ErrorRecord{Error: raw}
}

// lastLine returns the last non-blank line of s, trimmed.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
