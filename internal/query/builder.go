// Package query turns a search filter into parameterized SQL fragments.
// The builder accumulates (clause, args...) pairs and renders the WHERE
// fragment plus flat argument list exactly once, so parameter order is
// an invariant of the type rather than a hand-maintained counter.
package query

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidSort is returned when a sort column or order is outside the
// allow-list. The HTTP layer validates first; the builder rejects again
// so dynamic identifiers can never reach the SQL text.
var ErrInvalidSort = errors.New("invalid sort column or order")

// sortColumns is the allow-list of sortable columns mapped to their
// qualified SQL identifiers.
var sortColumns = map[string]string{
	"start_date":     "events.start_date",
	"end_date":       "events.end_date",
	"broadcast_date": "events.broadcast_date",
	"created_at":     "events.created_at",
	"discount_rate":  "events.discount_rate",
	"favorite_count": "events.favorite_count",
}

// Builder accumulates AND-ed predicate clauses with their arguments
type Builder struct {
	conds []string
	args  []interface{}
}

// Where appends one clause and its arguments. Clauses are rendered in
// append order, which fixes the positional-parameter order.
func (b *Builder) Where(cond string, args ...interface{}) *Builder {
	b.conds = append(b.conds, cond)
	b.args = append(b.args, args...)
	return b
}

// SQL renders the combined predicate and the flat argument list
func (b *Builder) SQL() (string, []interface{}) {
	if len(b.conds) == 0 {
		return "", nil
	}
	return strings.Join(b.conds, " AND "), b.args
}

// OrderBy validates column and direction against the allow-lists and
// renders the ORDER BY expression. Unknown identifiers are rejected,
// never interpolated.
func OrderBy(column, order string) (string, error) {
	col, ok := sortColumns[column]
	if !ok {
		return "", errors.Wrapf(ErrInvalidSort, "column %q", column)
	}
	switch strings.ToUpper(order) {
	case "ASC":
		return col + " ASC", nil
	case "DESC":
		return col + " DESC", nil
	}
	return "", errors.Wrapf(ErrInvalidSort, "order %q", order)
}
