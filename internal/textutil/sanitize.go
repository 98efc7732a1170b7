package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// tagReplacer neutralizes the characters codec tools re-parse when they split
// their own command line (quotes and backslash escapes).
var tagReplacer = strings.NewReplacer(
	"\"", "'",
	"\\", "/",
)

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
// Slashes, backslashes, colons, and asterisks become dashes; other unsafe
// characters are removed. The result is trimmed of leading/trailing whitespace.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	name = strings.Map(dropControl, name)
	return strings.Trim(strings.TrimSpace(fileNameReplacer.Replace(name)), ".")
}

// SanitizeTag prepares a metadata value for use as a single command-line
// argument. Control characters (including newlines) become spaces, double
// quotes become single quotes, backslashes become forward slashes, and runs of
// whitespace collapse to one space. Shell metacharacters are kept: arguments
// are passed through argv and never interpreted by a shell.
func SanitizeTag(value string) string {
	if value == "" {
		return ""
	}
	value = strings.ToValidUTF8(value, "")
	value = norm.NFC.String(value)
	value = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, value)
	return Simplify(tagReplacer.Replace(value))
}

// Simplify trims the string and collapses every internal whitespace run into
// a single space.
func Simplify(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// SplitParams tokenizes a free-form parameter string on whitespace, dropping
// empty tokens. No quoting rules apply.
func SplitParams(value string) []string {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func dropControl(r rune) rune {
	if unicode.IsControl(r) {
		return -1
	}
	return r
}
