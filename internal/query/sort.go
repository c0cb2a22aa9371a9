package query

import "strings"

// SortKey maps an allow-listed sort name to a column and a typed comparator.
type SortKey[T any] struct {
	Column  string
	Compare func(a, b T) int
}

// SortKeys is the explicit allow-list of sortable fields for one entity kind.
// Names are matched case-insensitively.
type SortKeys[T any] map[string]SortKey[T]

// Lookup returns the key registered under name.
func (k SortKeys[T]) Lookup(name string) (SortKey[T], bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return SortKey[T]{}, false
	}
	for registered, key := range k {
		if strings.ToLower(registered) == name {
			return key, true
		}
	}
	return SortKey[T]{}, false
}

// Ordering is a resolved sort key with its direction.
type Ordering[T any] struct {
	Key       SortKey[T]
	Direction Direction
}

func (o Ordering[T]) compare(a, b T) int {
	c := o.Key.Compare(a, b)
	if o.Direction == Descending {
		return -c
	}
	return c
}

func (o Ordering[T]) sql() string {
	if o.Direction == Descending {
		return o.Key.Column + " DESC"
	}
	return o.Key.Column + " ASC"
}
