// Package directive reads and rewrites the compiler directives embedded in
// script files.
//
// A directive is a line of the form
//
//	{$UNDEF NAME}{$DEFINE NAME := 'VALUE'}
//
// The parser is line oriented and tolerant of extra blanks between tokens
// and of keyword case. Updating a directive only replaces the bytes of its
// value; everything else in the file is preserved exactly.
package directive

import (
	"errors"
	"strconv"
	"strings"
)

// Well-known directive names.
const (
	ScriptID       = "SCRIPT_ID"
	ScriptRevision = "SCRIPT_REVISION"
)

// ErrNegativeRevision is returned by Patch for revisions below zero.
var ErrNegativeRevision = errors.New("revision must not be negative")

// Directive is one parsed directive.
type Directive struct {
	Name  string
	Value string
	// Line is the zero-based line index of the directive.
	Line int

	valueStart int
	valueEnd   int
}

// File is a parsed script file.
type File struct {
	lines      []string
	directives []Directive
}

// Parse splits text into lines and records every directive on each line.
// Line terminators are kept with their lines.
func Parse(text string) *File {
	f := &File{lines: strings.SplitAfter(text, "\n")}
	for i, line := range f.lines {
		for _, d := range parseLine(line) {
			d.Line = i
			f.directives = append(f.directives, d)
		}
	}
	return f
}

// Directives returns the directives in file order.
func (f *File) Directives() []Directive {
	out := make([]Directive, len(f.directives))
	copy(out, f.directives)
	return out
}

// Get returns the value of the first directive named name.
func (f *File) Get(name string) (string, bool) {
	if i := f.index(name); i >= 0 {
		return f.directives[i].Value, true
	}
	return "", false
}

// Set updates the first directive named name in place, or prepends a new
// directive line when the file has none.
func (f *File) Set(name, value string) {
	if i := f.index(name); i >= 0 {
		d := &f.directives[i]
		line := f.lines[d.Line]
		f.lines[d.Line] = line[:d.valueStart] + value + line[d.valueEnd:]
		delta := len(value) - (d.valueEnd - d.valueStart)
		d.Value = value
		d.valueEnd = d.valueStart + len(value)

		// Later directives on the same line moved by the size change.
		for j := i + 1; j < len(f.directives) && f.directives[j].Line == d.Line; j++ {
			f.directives[j].valueStart += delta
			f.directives[j].valueEnd += delta
		}
		return
	}

	line := Line(name, value) + "\n"
	f.lines = append([]string{line}, f.lines...)
	for i := range f.directives {
		f.directives[i].Line++
	}
	f.directives = append(parseLine(line), f.directives...)
}

// String renders the file.
func (f *File) String() string {
	return strings.Join(f.lines, "")
}

func (f *File) index(name string) int {
	for i, d := range f.directives {
		if strings.EqualFold(d.Name, name) {
			return i
		}
	}
	return -1
}

// Line renders the canonical directive line for name and value, without a
// line terminator.
func Line(name, value string) string {
	return "{$UNDEF " + name + "}{$DEFINE " + name + " := '" + value + "'}"
}

// Patch stamps text with the script identifier and revision. The revision is
// applied first and the identifier second, so a file without directives gets
// the identifier line on top followed by the revision line.
func Patch(text, id string, revision int) (string, error) {
	if revision < 0 {
		return "", ErrNegativeRevision
	}
	f := Parse(text)
	f.Set(ScriptRevision, strconv.Itoa(revision))
	f.Set(ScriptID, id)
	return f.String(), nil
}

func parseLine(line string) []Directive {
	var out []Directive
	for from := 0; from < len(line); {
		i := indexFold(line[from:], "{$UNDEF")
		if i < 0 {
			break
		}
		if d, ok := parseAt(line, from+i); ok {
			out = append(out, d)
			from = d.valueEnd
			continue
		}
		from += i + 1
	}
	return out
}

// parseAt parses a directive starting at pos, which points at "{$UNDEF".
func parseAt(s string, pos int) (Directive, bool) {
	p := pos + len("{$UNDEF")
	if p >= len(s) || !isBlank(s[p]) {
		return Directive{}, false
	}
	p = skipBlanks(s, p)
	name, p := ident(s, p)
	if name == "" {
		return Directive{}, false
	}
	p = skipBlanks(s, p)
	if !hasPrefixAt(s, p, "}") {
		return Directive{}, false
	}
	p = skipBlanks(s, p+1)
	if !hasPrefixFoldAt(s, p, "{$DEFINE") {
		return Directive{}, false
	}
	p += len("{$DEFINE")
	if p >= len(s) || !isBlank(s[p]) {
		return Directive{}, false
	}
	p = skipBlanks(s, p)
	defined, p := ident(s, p)
	if !strings.EqualFold(defined, name) {
		return Directive{}, false
	}
	p = skipBlanks(s, p)
	if !hasPrefixAt(s, p, ":=") {
		return Directive{}, false
	}
	p = skipBlanks(s, p+2)
	if !hasPrefixAt(s, p, "'") {
		return Directive{}, false
	}
	start := p + 1

	// The value ends at the first quote followed by the closing brace.
	for q := start; q < len(s); q++ {
		if s[q] != '\'' {
			continue
		}
		if hasPrefixAt(s, skipBlanks(s, q+1), "}") {
			return Directive{
				Name:       strings.ToUpper(name),
				Value:      s[start:q],
				valueStart: start,
				valueEnd:   q,
			}, true
		}
	}
	return Directive{}, false
}

func ident(s string, p int) (string, int) {
	start := p
	for p < len(s) {
		c := s[p]
		if c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') {
			p++
			continue
		}
		break
	}
	return s[start:p], p
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t'
}

func skipBlanks(s string, p int) int {
	for p < len(s) && isBlank(s[p]) {
		p++
	}
	return p
}

func hasPrefixAt(s string, p int, prefix string) bool {
	return p <= len(s) && strings.HasPrefix(s[p:], prefix)
}

func hasPrefixFoldAt(s string, p int, prefix string) bool {
	return p+len(prefix) <= len(s) && strings.EqualFold(s[p:p+len(prefix)], prefix)
}

// indexFold is a byte-offset preserving case-insensitive strings.Index.
func indexFold(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(substr)], substr) {
			return i
		}
	}
	return -1
}
