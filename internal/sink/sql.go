package sink

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/Lumos-Labs-HQ/flowpulse/internal/config"
	"github.com/Lumos-Labs-HQ/flowpulse/internal/dataset"
	ierr "github.com/Lumos-Labs-HQ/flowpulse/internal/errors"
	"github.com/Masterminds/squirrel"
	"go.uber.org/zap"
)

// SQL writes tables into a database. Tables are created when missing and
// each table is inserted in batches inside its own transaction.
type SQL struct {
	db        *sql.DB
	dialect   Dialect
	qb        squirrel.StatementBuilderType
	truncate  bool
	batchSize int
	logger    *zap.Logger
}

// OpenSQL connects to dsn with the dialect's driver. For SQLite dsn is a
// file path whose parent directory is created if needed.
func OpenSQL(d Dialect, dsn string, out config.Output, logger *zap.Logger) (*SQL, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if d.Driver == SQLite.Driver {
		if dir := filepath.Dir(dsn); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, ierr.WithError(err).WithMessagef("failed to create directory %s", dir).Mark(ierr.ErrIO)
			}
		}
	}

	db, err := sql.Open(d.Driver, dsn)
	if err != nil {
		return nil, ierr.WithError(err).WithMessagef("failed to open %s connection", d.Name).Mark(ierr.ErrIO)
	}
	db.SetMaxOpenConns(2)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, ierr.WithError(err).WithMessagef("failed to connect to %s", d.Name).Mark(ierr.ErrIO)
	}

	batch := out.BatchSize
	if batch <= 0 {
		batch = 100
	}

	return &SQL{
		db:        db,
		dialect:   d,
		qb:        squirrel.StatementBuilder.PlaceholderFormat(d.Placeholder),
		truncate:  out.Truncate,
		batchSize: batch,
		logger:    logger,
	}, nil
}

// Prepare creates every table, then clears them in reverse order when
// truncation is enabled so no foreign key is left dangling.
func (s *SQL) Prepare(ctx context.Context, tables []dataset.Tabular) error {
	for _, t := range tables {
		if _, err := s.db.ExecContext(ctx, s.dialect.CreateTableSQL(t.Schema())); err != nil {
			return ierr.WithError(err).WithMessagef("failed to create table %s", t.Schema().Name).Mark(ierr.ErrIO)
		}
	}
	if !s.truncate {
		return nil
	}

	for i := len(tables) - 1; i >= 0; i-- {
		name := tables[i].Schema().Name
		if _, err := s.db.ExecContext(ctx, s.dialect.Clear(s.dialect.Quote(name))); err != nil {
			return ierr.WithError(err).WithMessagef("failed to truncate %s", name).Mark(ierr.ErrIO)
		}
		s.logger.Info("table truncated", zap.String("table", name))
	}
	return nil
}

func (s *SQL) WriteTable(ctx context.Context, table dataset.Tabular) (err error) {
	schema := table.Schema()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ierr.WithError(err).WithMessagef("failed to begin transaction for %s", schema.Name).Mark(ierr.ErrIO)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Warn("rollback failed", zap.String("table", schema.Name), zap.Error(rbErr))
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, s.dialect.CreateTableSQL(schema)); err != nil {
		return ierr.WithError(err).WithMessagef("failed to create table %s", schema.Name).Mark(ierr.ErrIO)
	}

	columns := make([]string, len(schema.Columns))
	for i, c := range schema.Columns {
		columns[i] = s.dialect.Quote(c.Name)
	}

	batch := s.dialect.BatchRows(s.batchSize, len(columns))
	for start := 0; start < table.Len(); start += batch {
		end := min(start+batch, table.Len())
		insert := s.qb.Insert(s.dialect.Quote(schema.Name)).Columns(columns...)
		for i := start; i < end; i++ {
			insert = insert.Values(s.row(schema, table.Values(i))...)
		}

		query, args, buildErr := insert.ToSql()
		if buildErr != nil {
			err = ierr.WithError(buildErr).WithMessagef("failed to build insert for %s", schema.Name).Mark(ierr.ErrIO)
			return err
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return ierr.WithError(err).WithMessagef("failed to insert batch into %s", schema.Name).Mark(ierr.ErrIO)
		}
	}

	if err = tx.Commit(); err != nil {
		return ierr.WithError(err).WithMessagef("failed to commit %s", schema.Name).Mark(ierr.ErrIO)
	}

	s.logger.Info("table written", zap.String("table", schema.Name), zap.String("dialect", s.dialect.Name), zap.Int("rows", table.Len()))
	return nil
}

func (s *SQL) row(schema dataset.Schema, values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = s.dialect.value(schema.Columns[i], v)
	}
	return out
}

// Count returns the number of rows stored in a table.
func (s *SQL) Count(ctx context.Context, table string) (int, error) {
	query, args, err := s.qb.Select("COUNT(*)").From(s.dialect.Quote(table)).ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, ierr.WithError(err).WithMessagef("failed to count %s", table).Mark(ierr.ErrIO)
	}
	return n, nil
}

func (s *SQL) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
