package query

import "strings"

// Condition is one filter predicate rendered two ways: as a SQL boolean
// expression with ? placeholders for SQL sources, and as a matcher for
// in-memory sources. A zero Condition imposes nothing.
type Condition[T any] struct {
	SQL   string
	Args  []any
	Match func(T) bool
}

// Where builds a Condition from its SQL and in-memory forms.
func Where[T any](sql string, match func(T) bool, args ...any) Condition[T] {
	return Condition[T]{SQL: sql, Args: args, Match: match}
}

// IsZero reports whether the condition carries no predicate.
func (c Condition[T]) IsZero() bool {
	return c.SQL == "" && c.Match == nil
}

// TextField is a text column that takes part in free-text search.
type TextField[T any] struct {
	Column string
	Value  func(T) string
}

// Search builds a case-insensitive substring match ORed across fields.
// It returns false when term is blank or no fields are searchable.
func Search[T any](term string, fields ...TextField[T]) (Condition[T], bool) {
	term = strings.TrimSpace(term)
	if term == "" || len(fields) == 0 {
		return Condition[T]{}, false
	}

	pattern := "%" + escapeLike(term) + "%"
	clauses := make([]string, len(fields))
	args := make([]any, len(fields))
	for i, field := range fields {
		clauses[i] = field.Column + " ILIKE ?"
		args[i] = pattern
	}

	needle := strings.ToLower(term)
	match := func(item T) bool {
		for _, field := range fields {
			if strings.Contains(strings.ToLower(field.Value(item)), needle) {
				return true
			}
		}
		return false
	}

	return Condition[T]{
		SQL:   "(" + strings.Join(clauses, " OR ") + ")",
		Args:  args,
		Match: match,
	}, true
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}
