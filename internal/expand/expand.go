// Package expand implements the command template mini-language turning one
// input line plus a template into a concrete shell command.
//
// A template is expanded in four passes, in fixed order: sed-style
// substitution <open>s/PATTERN/REPLACEMENT/FLAGS<close>, field access
// <open>N<close> (with N+ and N- range variants), regex capture
// <open>/PATTERN/G<close> and finally literal replacement of the full
// placeholder string with the line. Each pass matches against the original
// line only, but its replacement text becomes part of the string the next
// pass scans.
package expand

import (
	"regexp"
	"strconv"
	"strings"
)

// Expander expands templates for one fixed placeholder and field separator
// pair. The pass matchers are compiled once in New, so Expand is a pure
// function: identical inputs always produce identical output and malformed
// template fragments degrade instead of failing.
type Expander struct {
	placeholder string
	fieldSep    string
	sedRe       *regexp.Regexp
	fieldRe     *regexp.Regexp
	captureRe   *regexp.Regexp
}

// New compiles the pass matchers for the given placeholder. The first and
// last character of the placeholder become the open and close delimiter; a
// single character placeholder uses that character for both. Delimiters
// which are regex metacharacters are escaped, so placeholders like [], ||
// or $$ work as-is.
func New(placeholder, fieldSeparator string) Expander {
	open, clos := delimiters(placeholder)
	o := regexp.QuoteMeta(open)
	c := regexp.QuoteMeta(clos)

	return Expander{
		placeholder: placeholder,
		fieldSep:    fieldSeparator,
		sedRe:       regexp.MustCompile(o + `\s*s/([^/]+)/([^/]*)/(.*?)` + c),
		fieldRe:     regexp.MustCompile(o + `\s*(\d+)([\+\-]?)\s*` + c),
		captureRe:   regexp.MustCompile(o + `\s*/([^/]+)/(\d+)\s*` + c),
	}
}

func delimiters(placeholder string) (string, string) {
	r := []rune(placeholder)
	switch len(r) {
	case 0:
		return "{", "}"
	case 1:
		return string(r[0]), string(r[0])
	default:
		return string(r[0]), string(r[len(r)-1])
	}
}

// Expand produces the concrete command for line.
func (e Expander) Expand(template, line string) string {
	out := e.sedPass(template, line)
	out = e.fieldPass(out, line)
	out = e.capturePass(out, line)
	return strings.ReplaceAll(out, e.placeholder, line)
}

// sedPass handles <open>s/PATTERN/REPLACEMENT/FLAGS<close>. Flag i makes
// the pattern case-insensitive, flag g replaces all matches instead of the
// first one. A pattern that fails to compile leaves the whole fragment
// untouched in the output.
func (e Expander) sedPass(s, line string) string {
	return e.sedRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := e.sedRe.FindStringSubmatch(m)
		pattern, replacement, flags := sub[1], sub[2], sub[3]

		if strings.Contains(flags, "i") {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return m
		}

		if strings.Contains(flags, "g") {
			return re.ReplaceAllString(line, replacement)
		}
		return replaceFirst(re, line, replacement)
	})
}

// replaceFirst substitutes only the first match, expanding $N group
// references in the replacement text.
func replaceFirst(re *regexp.Regexp, line, replacement string) string {
	loc := re.FindStringSubmatchIndex(line)
	if loc == nil {
		return line
	}
	b := make([]byte, 0, len(line))
	b = append(b, line[:loc[0]]...)
	b = re.ExpandString(b, replacement, line, loc)
	b = append(b, line[loc[1]:]...)
	return string(b)
}

// fieldPass handles <open>N<close>, <open>N+<close> and <open>N-<close>.
// Fields are 1-based substrings of the line split on the literal field
// separator. Index 0 or an index past the last field expands to the empty
// string.
func (e Expander) fieldPass(s, line string) string {
	return e.fieldRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := e.fieldRe.FindStringSubmatch(m)
		n, err := strconv.Atoi(sub[1])
		if err != nil || n == 0 {
			return ""
		}

		fields := strings.Split(line, e.fieldSep)
		if n > len(fields) {
			return ""
		}

		switch sub[2] {
		case "+":
			return strings.Join(fields[n-1:], e.fieldSep)
		case "-":
			return strings.Join(fields[:n], e.fieldSep)
		default:
			return fields[n-1]
		}
	})
}

// capturePass handles <open>/PATTERN/G<close>: group G of the first match
// of PATTERN against the line. A broken pattern, a non-matching pattern or
// a missing group all expand to the empty string.
func (e Expander) capturePass(s, line string) string {
	return e.captureRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := e.captureRe.FindStringSubmatch(m)
		re, err := regexp.Compile(sub[1])
		if err != nil {
			return ""
		}
		g, err := strconv.Atoi(sub[2])
		if err != nil {
			return ""
		}

		match := re.FindStringSubmatch(line)
		if match == nil || g >= len(match) {
			return ""
		}
		return match[g]
	})
}
