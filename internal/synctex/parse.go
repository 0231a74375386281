package synctex

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	pagePattern = regexp.MustCompile(`\bPage:(\d+)`)
	xPattern    = regexp.MustCompile(`\bx:([0-9.]+)`)
	yPattern    = regexp.MustCompile(`\by:([0-9.]+)`)

	inputPattern  = regexp.MustCompile(`\bInput:(.+)`)
	linePattern   = regexp.MustCompile(`\bLine:(\d+)`)
	columnPattern = regexp.MustCompile(`\bColumn:(-?\d+)`)
)

// ParseForward extracts a RenderedPosition from the output of synctex view.
// Each field is located independently; when several records are printed
// the first value of each field wins. It reports false when any of Page, x
// or y is missing or malformed.
func ParseForward(output string) (*RenderedPosition, bool) {
	page, ok := matchInt(pagePattern, output)
	if !ok {
		return nil, false
	}
	x, ok := matchFloat(xPattern, output)
	if !ok {
		return nil, false
	}
	y, ok := matchFloat(yPattern, output)
	if !ok {
		return nil, false
	}
	return &RenderedPosition{Page: page, X: x, Y: y}, true
}

// ParseReverse extracts a SourcePosition from the output of synctex edit.
// It reports false when Input or Line is missing. A missing Column is 0,
// and negative columns are floored to 0.
func ParseReverse(output string) (*SourcePosition, bool) {
	m := inputPattern.FindStringSubmatch(output)
	if m == nil {
		return nil, false
	}
	file := norm.NFC.String(strings.TrimSpace(strings.TrimSuffix(m[1], "\r")))
	if file == "" {
		return nil, false
	}

	line, ok := matchInt(linePattern, output)
	if !ok {
		return nil, false
	}

	column, ok := matchInt(columnPattern, output)
	if !ok || column < 0 {
		column = 0
	}

	return &SourcePosition{File: file, Line: line, Column: column}, true
}

func matchInt(re *regexp.Regexp, s string) (int, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func matchFloat(re *regexp.Regexp, s string) (float64, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
