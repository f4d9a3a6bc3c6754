package builder

import (
	"fmt"
	"strings"
)

type statementKind int

const (
	kindNone statementKind = iota
	kindSelect
	kindInsert
	kindUpdate
	kindDelete
)

// SQLBuilder helps construct Postgres queries dynamically. Conditions are written with
// "?" placeholders and rebound to $1..$n by Build.
type SQLBuilder struct {
	kind      statementKind
	table     string
	columns   []string
	values    []interface{}
	sets      []setClause
	conds     []condition
	joins     []string
	orderBy   []string
	limit     int
	offset    int
	conflict  string
	returning []string
}

type setClause struct {
	col string
	arg interface{}
}

// condition is one WHERE term. op joins it to the previous term.
type condition struct {
	op    string
	sql   string
	args  []interface{}
	group *SQLBuilder
}

// NewSQLBuilder creates a new instance of SQLBuilder.
func NewSQLBuilder() *SQLBuilder {
	return &SQLBuilder{}
}

// Select specifies the columns to retrieve.
func (b *SQLBuilder) Select(cols ...string) *SQLBuilder {
	b.kind = kindSelect
	b.columns = cols
	return b
}

// Insert specifies the table and columns for insertion.
func (b *SQLBuilder) Insert(table string, cols ...string) *SQLBuilder {
	b.kind = kindInsert
	b.table = table
	b.columns = cols
	return b
}

// Update specifies the table to update.
func (b *SQLBuilder) Update(table string) *SQLBuilder {
	b.kind = kindUpdate
	b.table = table
	return b
}

// Delete specifies the table to delete from.
func (b *SQLBuilder) Delete(table string) *SQLBuilder {
	b.kind = kindDelete
	b.table = table
	return b
}

// From specifies the table to select from.
func (b *SQLBuilder) From(table string) *SQLBuilder {
	b.table = table
	return b
}

// Set adds a column assignment for update.
func (b *SQLBuilder) Set(col string, val interface{}) *SQLBuilder {
	b.sets = append(b.sets, setClause{col: col, arg: val})
	return b
}

// Values specifies the values for insertion.
func (b *SQLBuilder) Values(vals ...interface{}) *SQLBuilder {
	b.values = vals
	return b
}

// Where adds a condition joined with AND.
func (b *SQLBuilder) Where(cond string, args ...interface{}) *SQLBuilder {
	b.conds = append(b.conds, condition{op: "AND", sql: cond, args: args})
	return b
}

// Or adds a condition joined with OR.
func (b *SQLBuilder) Or(cond string, args ...interface{}) *SQLBuilder {
	b.conds = append(b.conds, condition{op: "OR", sql: cond, args: args})
	return b
}

// WhereRaw adds a raw SQL condition with arguments, joined with AND.
func (b *SQLBuilder) WhereRaw(sql string, args ...interface{}) *SQLBuilder {
	return b.Where("("+sql+")", args...)
}

// WhereIn adds "col IN (...)". An empty list matches nothing.
func (b *SQLBuilder) WhereIn(col string, vals ...interface{}) *SQLBuilder {
	if len(vals) == 0 {
		return b.Where("FALSE")
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(vals)), ", ")
	return b.Where(fmt.Sprintf("%s IN (%s)", col, marks), vals...)
}

// WhereGroup adds a parenthesized group joined with AND.
// The provided function receives a new SQLBuilder for building the grouped conditions.
func (b *SQLBuilder) WhereGroup(fn func(*SQLBuilder) *SQLBuilder) *SQLBuilder {
	g := fn(NewSQLBuilder())
	if g == nil || len(g.conds) == 0 {
		return b
	}
	b.conds = append(b.conds, condition{op: "AND", group: g})
	return b
}

// Join adds a JOIN clause.
func (b *SQLBuilder) Join(joinType, table, on string) *SQLBuilder {
	b.joins = append(b.joins, fmt.Sprintf("%s JOIN %s ON %s", joinType, table, on))
	return b
}

// OrderBy adds an ORDER BY clause.
func (b *SQLBuilder) OrderBy(order string) *SQLBuilder {
	b.orderBy = append(b.orderBy, order)
	return b
}

// Limit adds a LIMIT clause.
func (b *SQLBuilder) Limit(limit int) *SQLBuilder {
	b.limit = limit
	return b
}

// Offset adds an OFFSET clause.
func (b *SQLBuilder) Offset(offset int) *SQLBuilder {
	b.offset = offset
	return b
}

// OnConflict appends "ON CONFLICT <clause>" to an insert.
func (b *SQLBuilder) OnConflict(clause string) *SQLBuilder {
	b.conflict = clause
	return b
}

// Returning appends a RETURNING clause.
func (b *SQLBuilder) Returning(cols ...string) *SQLBuilder {
	b.returning = cols
	return b
}

// BuildSafe is Build plus a check that every placeholder has an argument.
func (b *SQLBuilder) BuildSafe() (string, []interface{}, error) {
	raw, args := b.render()
	if n := strings.Count(raw, "?"); n != len(args) {
		return "", nil, fmt.Errorf("placeholder count (%d) does not match argument count (%d)", n, len(args))
	}
	return rebind(raw), args, nil
}

// Build constructs the final SQL string and arguments. It does not mutate the builder,
// so calling it twice returns the same result.
func (b *SQLBuilder) Build() (string, []interface{}) {
	raw, args := b.render()
	return rebind(raw), args
}

func (b *SQLBuilder) render() (string, []interface{}) {
	var sb strings.Builder
	var args []interface{}

	switch b.kind {
	case kindSelect:
		sb.WriteString("SELECT ")
		sb.WriteString(strings.Join(b.columns, ", "))
		sb.WriteString(" FROM ")
		sb.WriteString(b.table)
		for _, join := range b.joins {
			sb.WriteString(" ")
			sb.WriteString(join)
		}
	case kindInsert:
		sb.WriteString("INSERT INTO ")
		sb.WriteString(b.table)
		sb.WriteString(" (")
		sb.WriteString(strings.Join(b.columns, ", "))
		sb.WriteString(") VALUES (")
		sb.WriteString(strings.TrimSuffix(strings.Repeat("?, ", len(b.values)), ", "))
		sb.WriteString(")")
		args = append(args, b.values...)
		if b.conflict != "" {
			sb.WriteString(" ON CONFLICT ")
			sb.WriteString(b.conflict)
		}
	case kindUpdate:
		sb.WriteString("UPDATE ")
		sb.WriteString(b.table)
		sb.WriteString(" SET ")
		for i, s := range b.sets {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(s.col)
			sb.WriteString(" = ?")
			args = append(args, s.arg)
		}
	case kindDelete:
		sb.WriteString("DELETE FROM ")
		sb.WriteString(b.table)
	}

	if len(b.conds) > 0 && b.kind != kindInsert {
		sb.WriteString(" WHERE ")
		args = b.writeConditions(&sb, args)
	}

	if len(b.orderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(b.orderBy, ", "))
	}
	if b.limit > 0 {
		sb.WriteString(fmt.Sprintf(" LIMIT %d", b.limit))
	}
	if b.offset > 0 {
		sb.WriteString(fmt.Sprintf(" OFFSET %d", b.offset))
	}
	if len(b.returning) > 0 {
		sb.WriteString(" RETURNING ")
		sb.WriteString(strings.Join(b.returning, ", "))
	}
	return sb.String(), args
}

func (b *SQLBuilder) writeConditions(sb *strings.Builder, args []interface{}) []interface{} {
	for i, c := range b.conds {
		if i > 0 {
			sb.WriteString(" ")
			sb.WriteString(c.op)
			sb.WriteString(" ")
		}
		if c.group != nil {
			sb.WriteString("(")
			args = c.group.writeConditions(sb, args)
			sb.WriteString(")")
			continue
		}
		sb.WriteString(c.sql)
		args = append(args, c.args...)
	}
	return args
}

// rebind rewrites "?" placeholders to Postgres positional parameters.
func rebind(query string) string {
	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString(fmt.Sprintf("$%d", n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
