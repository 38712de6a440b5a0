package sink

import (
	"fmt"
	"strings"
	"time"

	"github.com/Lumos-Labs-HQ/flowpulse/internal/dataset"
	ierr "github.com/Lumos-Labs-HQ/flowpulse/internal/errors"
	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect captures what differs between the supported SQL targets.
type Dialect struct {
	Name        string
	Driver      string
	Placeholder squirrel.PlaceholderFormat
	Quote       func(string) string
	Types       map[dataset.Kind]string
	// MaxParams is the driver's bind-parameter limit per statement.
	MaxParams int
	// Clear returns the statement that empties a table.
	Clear func(quotedTable string) string
	// DateValue converts a date/timestamp into what the driver stores best.
	DateValue func(t time.Time, kind dataset.Kind) any
}

var (
	SQLite = Dialect{
		Name:        "sqlite",
		Driver:      "sqlite3",
		Placeholder: squirrel.Question,
		Quote:       doubleQuote,
		MaxParams:   32766,
		Types: map[dataset.Kind]string{
			dataset.KindInt:       "INTEGER",
			dataset.KindText:      "TEXT",
			dataset.KindDate:      "TEXT",
			dataset.KindTimestamp: "TEXT",
			dataset.KindMoney:     "NUMERIC",
			dataset.KindBool:      "INTEGER",
		},
		Clear: func(table string) string { return "DELETE FROM " + table },
		// stored as text so dates stay in the same form as the CSV output
		DateValue: func(t time.Time, kind dataset.Kind) any {
			return dataset.FormatValue(dataset.Column{Kind: kind}, t)
		},
	}

	Postgres = Dialect{
		Name:        "postgres",
		Driver:      "pgx",
		Placeholder: squirrel.Dollar,
		Quote:       pq.QuoteIdentifier,
		MaxParams:   65535,
		Types: map[dataset.Kind]string{
			dataset.KindInt:       "BIGINT",
			dataset.KindText:      "TEXT",
			dataset.KindDate:      "DATE",
			dataset.KindTimestamp: "TIMESTAMP",
			dataset.KindMoney:     "NUMERIC(12,2)",
			dataset.KindBool:      "BOOLEAN",
		},
		Clear:     func(table string) string { return fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table) },
		DateValue: func(t time.Time, _ dataset.Kind) any { return t },
	}

	MySQL = Dialect{
		Name:        "mysql",
		Driver:      "mysql",
		Placeholder: squirrel.Question,
		Quote:       func(s string) string { return "`" + strings.ReplaceAll(s, "`", "``") + "`" },
		MaxParams:   65535,
		Types: map[dataset.Kind]string{
			dataset.KindInt:       "BIGINT",
			dataset.KindText:      "VARCHAR(255)",
			dataset.KindDate:      "DATE",
			dataset.KindTimestamp: "DATETIME",
			dataset.KindMoney:     "DECIMAL(12,2)",
			dataset.KindBool:      "BOOLEAN",
		},
		// TRUNCATE is refused on tables referenced by foreign keys
		Clear:     func(table string) string { return "DELETE FROM " + table },
		DateValue: func(t time.Time, _ dataset.Kind) any { return t },
	}
)

// BatchRows caps the configured batch size so one INSERT of a table with
// the given column count stays within MaxParams.
func (d Dialect) BatchRows(batchSize, columns int) int {
	if d.MaxParams > 0 && columns > 0 {
		batchSize = min(batchSize, d.MaxParams/columns)
	}
	return max(batchSize, 1)
}

// DialectFor resolves a format or provider name to its SQL dialect.
func DialectFor(name string) (Dialect, error) {
	switch name {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql":
		return Postgres, nil
	case "mysql":
		return MySQL, nil
	}
	return Dialect{}, ierr.NewErrorf("no SQL dialect for %q", name).
		WithHint("supported dialects: sqlite, postgres, mysql").
		Mark(ierr.ErrConfiguration)
}

func doubleQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// CreateTableSQL renders the DDL for schema, including the primary key and
// foreign keys.
func (d Dialect) CreateTableSQL(schema dataset.Schema) string {
	defs := make([]string, 0, len(schema.Columns)+2)
	for i, col := range schema.Columns {
		def := fmt.Sprintf("%s %s", d.Quote(col.Name), d.Types[col.Kind])
		if i == 0 {
			def += " PRIMARY KEY"
		} else if !col.Nullable {
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}
	for _, col := range schema.Columns {
		if col.References == "" {
			continue
		}
		ref := referencedKey(col.References)
		defs = append(defs, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
			d.Quote(col.Name), d.Quote(col.References), d.Quote(ref)))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)", d.Quote(schema.Name), strings.Join(defs, ",\n  "))
}

// referencedKey names the primary key of a known table.
func referencedKey(table string) string {
	for _, s := range dataset.Schemas() {
		if s.Name == table {
			return s.PrimaryKey().Name
		}
	}
	return "id"
}

// value adapts a row value for the driver.
func (d Dialect) value(col dataset.Column, v any) any {
	if t, ok := v.(time.Time); ok {
		return d.DateValue(t, col.Kind)
	}
	return v
}
