package reconciler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/unascribed/FlexVer/go/flexver"
)

// Comparator orders two version strings, returning a negative number, zero or
// a positive number as a is less than, equal to or greater than b.
type Comparator func(a, b string) int

// LegacyFold folds dotted components positionally as acc*10+component.
// Unparsable components count as zero, including components too long for
// int64; the fold itself wraps on overflow. It only orders versions that
// share a component count with every component below ten: "1.9.0" folds to
// 190 and sorts above "1.10" at 20. Kept for compatibility with classpaths
// built by older launchers.
func LegacyFold(a, b string) int {
	fa, fb := fold(a), fold(b)
	switch {
	case fa < fb:
		return -1
	case fa > fb:
		return 1
	}
	return 0
}

func fold(v string) int64 {
	var acc int64
	for _, part := range strings.Split(v, ".") {
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			n = 0
		}
		acc = acc*10 + n
	}
	return acc
}

// Numeric compares dotted components left to right as integers, padding the
// shorter version with zeros. A component is read up to its first non-digit,
// so "17-SNAPSHOT" reads as 17 and "beta" as 0. Digit runs too long for
// int64 also read as 0.
func Numeric(a, b string) int {
	pa, pb := strings.Split(a, "."), strings.Split(b, ".")
	n := max(len(pa), len(pb))

	for i := range n {
		var ca, cb int64
		if i < len(pa) {
			ca = leadingInt(pa[i])
		}
		if i < len(pb) {
			cb = leadingInt(pb[i])
		}
		switch {
		case ca < cb:
			return -1
		case ca > cb:
			return 1
		}
	}
	return 0
}

func leadingInt(s string) int64 {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// FlexVer orders versions with the FlexVer algorithm, which also understands
// pre-release suffixes.
func FlexVer(a, b string) int {
	return int(flexver.Compare(a, b))
}

// ComparatorByName maps a configuration value to a comparator.
func ComparatorByName(name string) (Comparator, error) {
	switch strings.ToLower(name) {
	case "", "numeric":
		return Numeric, nil
	case "legacy":
		return LegacyFold, nil
	case "flexver":
		return FlexVer, nil
	default:
		return nil, fmt.Errorf("unknown version comparator %q", name)
	}
}
