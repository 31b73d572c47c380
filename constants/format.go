package constants

// Format is the detected layout of a budget document.
type Format string

const (
	FormatTable   Format = "table"
	FormatList    Format = "list"
	FormatMixed   Format = "mixed"
	FormatUnknown Format = "unknown"
)

// Formats lists the closed set of layout labels.
var Formats = []Format{FormatTable, FormatList, FormatMixed, FormatUnknown}

// ParseFormat accepts a user supplied hint; the empty string means "no hint".
func ParseFormat(s string) (Format, bool) {
	for _, f := range Formats {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}
