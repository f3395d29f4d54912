package types

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"time"
)

// Querier is the subset of *db.DB used by models. It's satisfied by both the
// database and a transaction wrapper.
type Querier interface {
	NewContext() context.Context
	TimeNow() time.Time
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Filter restricts the rows returned by list queries. A nil *Filter matches
// every row.
type Filter struct {
	Where string
	Args  []any
	// Limit caps the number of returned rows if > 0.
	Limit int
}

// NewFilter returns a Filter with a single WHERE condition.
func NewFilter(where string, args []any) *Filter {
	return &Filter{Where: where, Args: args}
}

// And returns a Filter matching rows that match both f and other. Either side
// may be nil.
func (f *Filter) And(other *Filter) *Filter {
	return f.join("AND", other)
}

// Or returns a Filter matching rows that match f or other. Either side may be
// nil.
func (f *Filter) Or(other *Filter) *Filter {
	return f.join("OR", other)
}

func (f *Filter) join(op string, other *Filter) *Filter {
	switch {
	case f == nil:
		return other
	case other == nil:
		return f
	}

	return &Filter{
		Where: fmt.Sprintf("(%s %s %s)", f.Where, op, other.Where),
		Args:  slices.Concat(f.Args, other.Args),
		Limit: max(f.Limit, other.Limit),
	}
}

// Clause returns the WHERE condition, its arguments and the LIMIT clause of
// the filter, ready to be interpolated into a query.
func (f *Filter) Clause() (where string, args []any, limit string) {
	if f == nil || f.Where == "" {
		where = "1=1"
	} else {
		where, args = f.Where, f.Args
	}
	if f != nil && f.Limit > 0 {
		limit = fmt.Sprintf("LIMIT %d", f.Limit)
	}

	return where, args, limit
}
