package dataset

import (
	"iter"
)

// Record is a row that can render its values in schema column order.
type Record interface {
	Values() []any
}

// Tabular is the untyped view sinks write from.
type Tabular interface {
	Schema() Schema
	Len() int
	Values(i int) []any
}

// Table is an immutable, fully materialized set of rows.
type Table[R Record] struct {
	schema Schema
	rows   []R
}

func (t *Table[R]) Schema() Schema { return t.schema }

func (t *Table[R]) Name() string { return t.schema.Name }

func (t *Table[R]) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Row returns a copy of row i.
func (t *Table[R]) Row(i int) R { return t.rows[i] }

func (t *Table[R]) Values(i int) []any { return t.rows[i].Values() }

// All iterates rows in order.
func (t *Table[R]) All() iter.Seq2[int, R] {
	return func(yield func(int, R) bool) {
		if t == nil {
			return
		}
		for i, r := range t.rows {
			if !yield(i, r) {
				return
			}
		}
	}
}

// Builder accumulates rows into a pre-sized buffer. Build hands the buffer
// to an immutable Table; the builder must not be used afterwards.
type Builder[R Record] struct {
	schema Schema
	rows   []R
}

func NewBuilder[R Record](schema Schema, capacity int) *Builder[R] {
	return &Builder[R]{
		schema: schema,
		rows:   make([]R, 0, capacity),
	}
}

func (b *Builder[R]) Append(rows ...R) {
	b.rows = append(b.rows, rows...)
}

func (b *Builder[R]) Len() int { return len(b.rows) }

func (b *Builder[R]) Build() *Table[R] {
	t := &Table[R]{schema: b.schema, rows: b.rows}
	b.rows = nil
	return t
}

// Dataset holds the five generated tables.
type Dataset struct {
	Channels      *Table[Channel]
	Customers     *Table[Customer]
	Subscriptions *Table[Subscription]
	Payments      *Table[Payment]
	Events        *Table[UserEvent]
}

// Table looks up a generated table by name; nil when not generated.
func (d *Dataset) Table(name string) Tabular {
	switch name {
	case TableChannels:
		if d.Channels != nil {
			return d.Channels
		}
	case TableCustomers:
		if d.Customers != nil {
			return d.Customers
		}
	case TableSubscriptions:
		if d.Subscriptions != nil {
			return d.Subscriptions
		}
	case TablePayments:
		if d.Payments != nil {
			return d.Payments
		}
	case TableEvents:
		if d.Events != nil {
			return d.Events
		}
	}
	return nil
}
