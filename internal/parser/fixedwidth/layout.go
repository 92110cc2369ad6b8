// Package fixedwidth slices fixed-width text lines into per-column raw values.
//
// Two offset layouts are supported. Standard is plain cumulative slicing,
// column i covering bytes [C(i), C(i+1)) where C is the running sum of the
// widths. Legacy reproduces the arithmetic that existing specification files
// were authored against:
//
//	column 0          [0, C1-1)
//	column 1          [C1-1, C2)
//	middle columns    [Ci, Ci+1)
//	last column       [C(n-1), Cn+1)
//
// For three columns that is [0,w0-1), [w0-1,w0+w1), [w0+w1,w0+w1+w2+1).
// When a column is both first and last (one-column specs) the first-column
// rule applies; in two-column specs column 1 takes its start from the
// column 1 rule and its end from the last-column rule.
package fixedwidth

import (
	"errors"
	"fmt"
	"strings"
)

// Layout selects an offset scheme.
type Layout int

const (
	Legacy Layout = iota
	Standard
)

func (l Layout) String() string {
	switch l {
	case Legacy:
		return "legacy"
	case Standard:
		return "standard"
	default:
		return fmt.Sprintf("layout(%d)", int(l))
	}
}

// ParseLayout maps a config value to a Layout. The empty string is Legacy.
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "legacy":
		return Legacy, nil
	case "standard":
		return Standard, nil
	default:
		return Legacy, fmt.Errorf("unknown layout %q (want legacy or standard)", s)
	}
}

// Span is a half-open byte range [Start, End) of a trimmed line.
type Span struct {
	Start int
	End   int
}

// Spans computes the byte range of every column for the given widths.
func Spans(widths []int, layout Layout) ([]Span, error) {
	if len(widths) == 0 {
		return nil, errors.New("fixedwidth: at least one column width is required")
	}
	cum := make([]int, len(widths)+1)
	for i, w := range widths {
		if w <= 0 {
			return nil, fmt.Errorf("fixedwidth: column %d: width must be positive, got %d", i, w)
		}
		cum[i+1] = cum[i] + w
	}

	n := len(widths)
	out := make([]Span, n)
	for i := range widths {
		sp := Span{Start: cum[i], End: cum[i+1]}
		if layout == Legacy {
			switch {
			case i == 0:
				sp.End = cum[1] - 1
			case i == 1:
				sp.Start = cum[1] - 1
				if i == n-1 {
					sp.End = cum[i+1] + 1
				}
			case i == n-1:
				sp.End = cum[i+1] + 1
			}
		}
		out[i] = sp
	}
	return out, nil
}

// Slice trims surrounding whitespace from line, cuts every span out of it and
// trims each value. Spans running past the end of the line are clamped, so a
// short line yields empty trailing values rather than an error.
func Slice(line string, spans []Span) []string {
	line = strings.TrimSpace(line)
	out := make([]string, len(spans))
	for i, sp := range spans {
		out[i] = strings.TrimSpace(cut(line, sp.Start, sp.End))
	}
	return out
}

func cut(s string, start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(s) {
		end = len(s)
	}
	if start >= end {
		return ""
	}
	return s[start:end]
}
