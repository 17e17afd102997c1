package storage

import (
	"strings"

	"spendlog/internal/core"
)

// expenseQuery is the WHERE clause for a filtered listing. Every predicate
// is scoped to one owner.
type expenseQuery struct {
	conds []string
	args  []any
}

func buildExpenseQuery(ownerID string, f core.ExpenseFilter) expenseQuery {
	q := expenseQuery{}
	q.add("owner_id = ?", ownerID)

	if f.Category != "" {
		q.add("category = ?", string(f.Category))
	}
	if !f.Day.IsEmpty() {
		// Half-open interval so any time of day on that date matches.
		q.add("date >= ?", formatTime(f.Day.StartOfDay().Time))
		q.add("date < ?", formatTime(f.Day.NextDay().Time))
	}
	if f.Search != "" {
		q.add(`unicode_lower(description) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(f.Search))+"%")
	}
	return q
}

func (q *expenseQuery) add(cond string, arg any) {
	q.conds = append(q.conds, cond)
	q.args = append(q.args, arg)
}

func (q expenseQuery) where() string {
	if len(q.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(q.conds, " AND ")
}

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
