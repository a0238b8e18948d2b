package core

import (
	"sort"
	"strings"
)

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// SortBy stable-sorts n items with the orderings applied in sequence.
// key returns the sortable value of item i for a field; unknown fields return "" and are ignored.
func SortBy(n int, swap func(i, j int), key func(i int, field string) string, orderings []DBOrdering) {
	if len(orderings) == 0 || n < 2 {
		return
	}
	sort.Stable(&orderedSlice{n: n, swap: swap, key: key, orderings: orderings})
}

type orderedSlice struct {
	n         int
	swap      func(i, j int)
	key       func(i int, field string) string
	orderings []DBOrdering
}

func (s *orderedSlice) Len() int      { return s.n }
func (s *orderedSlice) Swap(i, j int) { s.swap(i, j) }

func (s *orderedSlice) Less(i, j int) bool {
	for _, ord := range s.orderings {
		a := strings.ToLower(s.key(i, ord.Field))
		b := strings.ToLower(s.key(j, ord.Field))
		if a == b {
			continue
		}
		if ord.Ascending {
			return a < b
		}
		return a > b
	}
	return false
}
