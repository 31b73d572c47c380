package document

import (
	"regexp"
	"strings"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reMultiBlank = regexp.MustCompile(`\n{3,}`)
	reBoxNoise   = regexp.MustCompile(`(?m)^\s*[_\-=]{3,}\s*$`)
)

var glyphs = strings.NewReplacer(
	"m²", "m2",
	"m³", "m3",
	"M²", "M2",
	"M³", "M3",
	"\u00a0", " ",
	"\u2007", " ",
	"\u202f", " ",
)

// CleanText normalizes line endings, unit superscripts and odd spaces, drops ruler lines and
// trailing blanks. Interior runs of spaces are kept because column detection depends on them.
func CleanText(s string) string {
	if s == "" {
		return s
	}
	s = reCRLF.ReplaceAllString(s, "\n")
	s = glyphs.Replace(s)
	s = reBoxNoise.ReplaceAllString(s, "")
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " \t")
	}
	s = strings.Join(lines, "\n")
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	return strings.Trim(s, "\n")
}
