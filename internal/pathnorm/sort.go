package pathnorm

import (
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Part is one run of a sort key: either digits or non-digits.
type Part struct {
	Digits bool
	Text   string
}

// Key splits the basename of path into alternating non-digit and digit runs.
// The first part is always a (possibly empty) non-digit run so that parts at
// the same position always share a type.
func Key(path string) []Part {
	base := filepath.Base(path)
	folder := cases.Fold()

	parts := make([]Part, 0, 4)
	start := 0
	digits := false
	for i := 0; i <= len(base); i++ {
		atEnd := i == len(base)
		isDigit := !atEnd && base[i] >= '0' && base[i] <= '9'
		if !atEnd && isDigit == digits {
			continue
		}
		run := base[start:i]
		if digits {
			parts = append(parts, Part{Digits: true, Text: run})
		} else {
			parts = append(parts, Part{Text: folder.String(run)})
		}
		if atEnd {
			break
		}
		start = i
		digits = isDigit
	}
	return parts
}

// Compare orders two keys: digit runs numerically, text runs by folded
// code points, and a strict prefix before its extension.
func Compare(a, b []Part) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		var c int
		if a[i].Digits && b[i].Digits {
			c = compareNumeric(a[i].Text, b[i].Text)
		} else {
			c = strings.Compare(a[i].Text, b[i].Text)
		}
		if c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// Less reports whether path a sorts before path b.
func Less(a, b string) bool {
	return Compare(Key(a), Key(b)) < 0
}

// SortAlphanumeric returns a sorted copy of paths. Equal keys keep input order.
func SortAlphanumeric(paths []string) []string {
	keys := make([][]Part, len(paths))
	for i, p := range paths {
		keys[i] = Key(p)
	}
	idx := make([]int, len(paths))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return Compare(keys[idx[i]], keys[idx[j]]) < 0
	})

	out := make([]string, len(paths))
	for i, k := range idx {
		out[i] = paths[k]
	}
	return out
}

// compareNumeric compares digit strings of any length by value.
func compareNumeric(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}
