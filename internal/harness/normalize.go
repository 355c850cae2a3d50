package harness

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"slices"

	"github.com/samber/lo"
)

// SortMode selects how query cells are ordered before comparison.
type SortMode int

const (
	NoSort SortMode = iota
	RowSort
	ValueSort
)

// ParseSortMode parses a query record's third token. An empty token means
// NoSort.
func ParseSortMode(tok string) (SortMode, bool) {
	switch tok {
	case "", "nosort":
		return NoSort, true
	case "rowsort":
		return RowSort, true
	case "valuesort":
		return ValueSort, true
	}
	return NoSort, false
}

func (m SortMode) String() string {
	switch m {
	case RowSort:
		return "rowsort"
	case ValueSort:
		return "valuesort"
	}
	return "nosort"
}

// SortCells returns a sorted copy of cells.
//
// RowSort groups cells into rows of width cells and orders the rows by
// comparing cells left to right. ValueSort orders every cell on its own.
// Both use byte-wise string ordering. NoSort returns cells unchanged.
func SortCells(cells []string, width int, mode SortMode) []string {
	switch mode {
	case RowSort:
		if width <= 0 || len(cells)%width != 0 {
			return cells
		}
		rows := lo.Chunk(cells, width)
		slices.SortFunc(rows, func(a, b []string) int {
			return slices.Compare(a, b)
		})
		return lo.Flatten(rows)
	case ValueSort:
		sorted := slices.Clone(cells)
		slices.Sort(sorted)
		return sorted
	}
	return cells
}

// ShouldHash reports whether n cells exceed a positive threshold.
func ShouldHash(n, threshold int) bool {
	return threshold > 0 && n > threshold
}

// Digest returns the hex MD5 of every cell followed by a newline.
func Digest(cells []string) string {
	h := md5.New()
	for _, c := range cells {
		h.Write([]byte(c))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// DigestLine returns the single result line that replaces hashed cells.
func DigestLine(cells []string) string {
	return fmt.Sprintf("%d values hashing to %s", len(cells), Digest(cells))
}

// Output returns the lines a query produces: the cells themselves, or a
// single digest line when the threshold is exceeded.
func Output(cells []string, threshold int) []string {
	if ShouldHash(len(cells), threshold) {
		return []string{DigestLine(cells)}
	}
	return cells
}
