// Package query assembles parameterized Postgres statements.
//
// Predicates and assignments are written with "?" markers and appended
// together with their values.  Markers are numbered into "$1", "$2", ... only
// when a statement is rendered, so the argument list always lines up with the
// placeholders and callers never do index arithmetic.  A literal "?" (for
// instance the JSONB key-exists operator) cannot appear in fragments.
package query

import (
	"fmt"
	"strconv"
	"strings"
)

type fragment struct {
	sql  string
	args []any
}

func newFragment(sql string, args []any) fragment {
	if n := strings.Count(sql, "?"); n != len(args) {
		panic(fmt.Sprintf("query: %q has %d markers but %d args", sql, n, len(args)))
	}
	return fragment{sql: sql, args: args}
}

// numberer rewrites "?" markers into positional placeholders, continuing the
// sequence across every fragment it is fed.
type numberer struct {
	b    strings.Builder
	args []any
}

func (n *numberer) write(sql string, args ...any) {
	for i := 0; i < len(sql); i++ {
		if sql[i] == '?' {
			n.args = append(n.args, args[0])
			args = args[1:]
			n.b.WriteByte('$')
			n.b.WriteString(strconv.Itoa(len(n.args)))
			continue
		}
		n.b.WriteByte(sql[i])
	}
}

// Filter is an ordered set of optional predicates ANDed onto a fixed base
// condition.  The zero value is an empty filter.
type Filter struct {
	clauses []fragment
}

// And appends a predicate and the values for its markers.
func (f *Filter) And(sql string, args ...any) *Filter {
	f.clauses = append(f.clauses, newFragment(sql, args))
	return f
}

// AndIf appends the predicate only when cond holds.
func (f *Filter) AndIf(cond bool, sql string, args ...any) *Filter {
	if cond {
		f.And(sql, args...)
	}
	return f
}

// Len reports how many predicates were added.
func (f *Filter) Len() int { return len(f.clauses) }

func (f *Filter) writeTo(n *numberer) {
	for _, c := range f.clauses {
		n.write(" AND (")
		n.write(c.sql, c.args...)
		n.write(")")
	}
}

// Select describes a paginated read.  Where is the fixed base condition
// (use "TRUE" when there is none); Filter predicates are ANDed after it.
// Page and Count derive their statements from the same predicates, so the
// total always counts exactly the rows the page is cut from.
type Select struct {
	Columns string
	From    string
	Where   string
	OrderBy string
	Filter  Filter
}

func (s *Select) base(n *numberer) {
	where := s.Where
	if where == "" {
		where = "TRUE"
	}
	n.write(" FROM " + s.From + " WHERE " + where)
	s.Filter.writeTo(n)
}

// Count renders the total-count companion statement.
func (s *Select) Count() (string, []any) {
	var n numberer
	n.write("SELECT COUNT(*)")
	s.base(&n)
	return n.b.String(), n.args
}

// Page renders the data statement with ordering and LIMIT/OFFSET bound to
// the final two placeholders.
func (s *Select) Page(p Page) (string, []any) {
	var n numberer
	n.write("SELECT " + s.Columns)
	s.base(&n)
	if s.OrderBy != "" {
		n.write(" ORDER BY " + s.OrderBy)
	}
	n.write(" LIMIT ? OFFSET ?", p.Limit, p.Offset)
	return n.b.String(), n.args
}

// All renders the data statement without pagination.
func (s *Select) All() (string, []any) {
	var n numberer
	n.write("SELECT " + s.Columns)
	s.base(&n)
	if s.OrderBy != "" {
		n.write(" ORDER BY " + s.OrderBy)
	}
	return n.b.String(), n.args
}

// Update builds an UPDATE whose SET list only contains the columns that were
// supplied.
type Update struct {
	table string
	sets  []fragment
	vals  int
}

func NewUpdate(table string) *Update {
	return &Update{table: table}
}

// Set assigns a value to a column.
func (u *Update) Set(column string, value any) *Update {
	u.sets = append(u.sets, newFragment(column+" = ?", []any{value}))
	u.vals++
	return u
}

// SetExpr appends a raw assignment such as "updated_at = NOW()".  It does not
// count towards Len.
func (u *Update) SetExpr(expr string) *Update {
	u.sets = append(u.sets, newFragment(expr, nil))
	return u
}

// Len reports how many value assignments were added with Set.
func (u *Update) Len() int { return u.vals }

// Where renders the statement; where may carry a RETURNING clause.
func (u *Update) Where(where string, args ...any) (string, []any) {
	var n numberer
	n.write("UPDATE " + u.table + " SET ")
	for i, s := range u.sets {
		if i > 0 {
			n.write(", ")
		}
		n.write(s.sql, s.args...)
	}
	w := newFragment(where, args)
	n.write(" WHERE ")
	n.write(w.sql, w.args...)
	return n.b.String(), n.args
}

// InsertRows renders one multi-row INSERT.  Every row must have one value
// per column.  suffix (e.g. "RETURNING id") is appended verbatim.
func InsertRows(table string, columns []string, rows [][]any, suffix string) (string, []any) {
	if len(rows) == 0 {
		panic("query: InsertRows needs at least one row")
	}
	marks := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"

	var n numberer
	n.write("INSERT INTO " + table + " (" + strings.Join(columns, ", ") + ") VALUES ")
	for i, row := range rows {
		if len(row) != len(columns) {
			panic(fmt.Sprintf("query: row %d has %d values for %d columns", i, len(row), len(columns)))
		}
		if i > 0 {
			n.write(", ")
		}
		n.write(marks, row...)
	}
	if suffix != "" {
		n.write(" " + suffix)
	}
	return n.b.String(), n.args
}

// In returns "column IN (?, ?, ...)" with n markers.
func In(column string, n int) string {
	if n <= 0 {
		panic("query: In needs at least one value")
	}
	return column + " IN (" + strings.TrimSuffix(strings.Repeat("?, ", n), ", ") + ")"
}
