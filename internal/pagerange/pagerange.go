// Package pagerange parses the textual page-range specification attached to
// file grants ("1-7,8-9,15") into a normalized set of inclusive ranges.
// Parsing is pure and deterministic; callers must treat the empty string as
// "entire file" before calling Parse, never as parser input.
package pagerange

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrorKind identifies why a page-range string was rejected.
type ErrorKind int

const (
	// KindMalformedToken covers tokens that are neither "N" nor "N-M",
	// including empty tokens and empty input.
	KindMalformedToken ErrorKind = iota
	// KindInvertedRange covers "N-M" with N > M.
	KindInvertedRange
	// KindNonPositivePage covers 0 or negative page numbers; pages are
	// 1-indexed.
	KindNonPositivePage
)

func (k ErrorKind) String() string {
	switch k {
	case KindMalformedToken:
		return "malformed token"
	case KindInvertedRange:
		return "inverted range"
	case KindNonPositivePage:
		return "non-positive page"
	default:
		return "unknown"
	}
}

// ParseError describes a rejected page-range string. Token carries the
// offending token verbatim.
type ParseError struct {
	Kind  ErrorKind
	Token string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid page range: %s %q", e.Kind, e.Token)
}

// Range is an inclusive 1-indexed page interval. Start <= End always holds
// for ranges produced by Parse.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Set is a normalized collection of ranges: sorted by Start, with
// overlapping and adjacent ranges merged. Consumers should treat it as a
// page-membership predicate rather than rely on its exact shape.
type Set []Range

// Parse validates input against the grant grammar and returns the
// normalized range set. The grammar is a comma-separated list of tokens,
// each "N" or "N-M" with 1 <= N <= M; whitespace around tokens is ignored.
func Parse(input string) (Set, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, &ParseError{Kind: KindMalformedToken, Token: input}
	}

	var out Set
	for _, raw := range strings.Split(trimmed, ",") {
		tok := strings.TrimSpace(raw)
		r, err := parseToken(tok)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return normalize(out), nil
}

func parseToken(tok string) (Range, error) {
	if tok == "" {
		return Range{}, &ParseError{Kind: KindMalformedToken, Token: tok}
	}

	start, end := tok, tok
	if i := strings.Index(tok, "-"); i >= 0 {
		start, end = tok[:i], tok[i+1:]
	}

	lo, err := parsePage(start, tok)
	if err != nil {
		return Range{}, err
	}
	hi, err := parsePage(end, tok)
	if err != nil {
		return Range{}, err
	}
	if lo > hi {
		return Range{}, &ParseError{Kind: KindInvertedRange, Token: tok}
	}
	return Range{Start: lo, End: hi}, nil
}

func parsePage(s, tok string) (int, error) {
	// strconv.Atoi accepts a leading sign; the grammar does not.
	if s == "" || s[0] == '+' || s[0] == '-' {
		return 0, &ParseError{Kind: KindMalformedToken, Token: tok}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &ParseError{Kind: KindMalformedToken, Token: tok}
	}
	if n < 1 {
		return 0, &ParseError{Kind: KindNonPositivePage, Token: tok}
	}
	return n, nil
}

// normalize sorts ranges and merges overlaps and adjacencies, so
// "1-3,2-5,6" becomes [{1,6}].
func normalize(in Set) Set {
	if len(in) == 0 {
		return in
	}
	sort.Slice(in, func(i, j int) bool {
		if in[i].Start != in[j].Start {
			return in[i].Start < in[j].Start
		}
		return in[i].End < in[j].End
	})

	out := Set{in[0]}
	for _, r := range in[1:] {
		last := &out[len(out)-1]
		if r.Start <= last.End+1 {
			if r.End > last.End {
				last.End = r.End
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

// Contains reports whether page is a member of the set.
func (s Set) Contains(page int) bool {
	for _, r := range s {
		if page >= r.Start && page <= r.End {
			return true
		}
	}
	return false
}

// Max returns the highest page in the set, or 0 for an empty set.
func (s Set) Max() int {
	max := 0
	for _, r := range s {
		if r.End > max {
			max = r.End
		}
	}
	return max
}

// Union merges s with other into a new normalized set. Neither input is
// modified.
func (s Set) Union(other Set) Set {
	merged := make(Set, 0, len(s)+len(other))
	merged = append(merged, s...)
	merged = append(merged, other...)
	return normalize(merged)
}

// String renders the set back into the wire grammar ("1-3,5"). Single-page
// ranges render as a bare number.
func (s Set) String() string {
	var b strings.Builder
	for i, r := range s {
		if i > 0 {
			b.WriteByte(',')
		}
		if r.Start == r.End {
			b.WriteString(strconv.Itoa(r.Start))
		} else {
			fmt.Fprintf(&b, "%d-%d", r.Start, r.End)
		}
	}
	return b.String()
}
