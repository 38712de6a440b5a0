package sink

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/Lumos-Labs-HQ/flowpulse/internal/config"
	"github.com/Lumos-Labs-HQ/flowpulse/internal/dataset"
	ierr "github.com/Lumos-Labs-HQ/flowpulse/internal/errors"
	"go.uber.org/zap"
)

// Sink durably writes whole tables. Each WriteTable call either lands the
// complete table or fails.
type Sink interface {
	WriteTable(ctx context.Context, table dataset.Tabular) error
	Close() error
}

// Preparer is implemented by sinks that need to see the full set of tables
// before the first write, e.g. to clear them in reverse dependency order.
type Preparer interface {
	Prepare(ctx context.Context, tables []dataset.Tabular) error
}

// New builds the sink selected by cfg.Output.Format.
func New(cfg *config.Config, logger *zap.Logger) (Sink, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Output.Format {
	case "", "csv":
		return NewCSV(cfg.Output.Dir, logger), nil
	case "sqlite", "sqlite3":
		path := filepath.Join(cfg.Output.Dir, "flowpulse.sqlite")
		if url, err := cfg.GetDatabaseURL(); err == nil && strings.HasPrefix(url, "sqlite://") {
			path = strings.TrimPrefix(url, "sqlite://")
		}
		return OpenSQL(SQLite, path, cfg.Output, logger)
	case "postgres", "postgresql":
		url, err := cfg.GetDatabaseURL()
		if err != nil {
			return nil, err
		}
		return OpenSQL(Postgres, url, cfg.Output, logger)
	case "mysql":
		url, err := cfg.GetDatabaseURL()
		if err != nil {
			return nil, err
		}
		return OpenSQL(MySQL, strings.TrimPrefix(url, "mysql://"), cfg.Output, logger)
	default:
		return nil, ierr.NewErrorf("unsupported output format: %s", cfg.Output.Format).
			WithHint("supported formats: csv, sqlite, postgres, mysql").
			Mark(ierr.ErrConfiguration)
	}
}

// WriteAll writes ds table by table in order, which must list referenced
// tables before the tables pointing at them.
func WriteAll(ctx context.Context, s Sink, ds *dataset.Dataset, order []string) error {
	tables := make([]dataset.Tabular, 0, len(order))
	for _, name := range order {
		t := ds.Table(name)
		if t == nil {
			return ierr.NewErrorf("table %s was not generated", name).Mark(ierr.ErrIO)
		}
		tables = append(tables, t)
	}

	if p, ok := s.(Preparer); ok {
		if err := p.Prepare(ctx, tables); err != nil {
			return err
		}
	}

	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.WriteTable(ctx, t); err != nil {
			return err
		}
	}
	return nil
}
