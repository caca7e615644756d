package dictlist

import (
	"strings"

	"github.com/roach88/recordkit/internal/osutil"
)

// Format names a file encoding for record lists.
type Format string

const (
	// FormatNative is the msgpack encoding. It preserves value types.
	FormatNative Format = "DictList"

	// FormatCSV is comma-separated text with a header row. Values are read
	// back as strings.
	FormatCSV Format = "csv"

	// FormatJSON is a tab-indented array of objects.
	FormatJSON Format = "json"
)

// Formats lists the supported formats.
var Formats = []Format{FormatNative, FormatCSV, FormatJSON}

// ParseFormat maps a format name or extension to a Format. Matching is
// case-insensitive.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	return "", unsupportedFormat("ParseFormat", s)
}

// FormatOf infers the format of path from its extension.
func FormatOf(path string) (Format, error) {
	f, err := ParseFormat(osutil.Ext(path))
	if err != nil {
		return "", unsupportedFormat("FormatOf", osutil.Ext(path))
	}
	return f, nil
}

// resolveFormat returns f when set, otherwise the format of path.
func resolveFormat(op, path string, f Format) (Format, error) {
	if f == "" {
		f = Format(osutil.Ext(path))
	}
	parsed, err := ParseFormat(string(f))
	if err != nil {
		return "", unsupportedFormat(op, string(f))
	}
	return parsed, nil
}
