package app

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var filenameStripRe = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SecureFilename reduces a client supplied filename to a safe flat name:
// ASCII only, no path separators, whitespace folded to underscores, no
// leading or trailing dots and underscores.
func SecureFilename(name string) string {
	name = norm.NFKD.String(name)

	var b strings.Builder
	for _, r := range name {
		if r < utf8.RuneSelf {
			b.WriteRune(r)
		}
	}

	name = strings.NewReplacer("/", " ", "\\", " ").Replace(b.String())
	name = strings.Join(strings.Fields(name), "_")
	name = filenameStripRe.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")

	if name == "" {
		return "upload"
	}
	return name
}
