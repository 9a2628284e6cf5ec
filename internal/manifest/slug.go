package manifest

import (
	"regexp"
	"strings"
)

var (
	parentheticalRe = regexp.MustCompile(`\(.*?\)`)
	nonAlnumRe      = regexp.MustCompile(`[^a-z0-9]+`)
	dashRunRe       = regexp.MustCompile(`-+`)
)

// Slugify converts a team name to the url/file-name slug used by the content
// layout: lower-cased, parentheticals removed ("Miami (OH)" -> "miami"),
// ampersands spelled out, everything non-alphanumeric collapsed to single
// dashes.
func Slugify(name string) string {
	if name == "" {
		return "team"
	}
	s := strings.ToLower(name)
	s = parentheticalRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "&", " and ")
	s = nonAlnumRe.ReplaceAllString(s, "-")
	s = strings.Trim(dashRunRe.ReplaceAllString(s, "-"), "-")
	if s == "" {
		return "team"
	}
	return s
}
