package sink

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/Lumos-Labs-HQ/flowpulse/internal/dataset"
	ierr "github.com/Lumos-Labs-HQ/flowpulse/internal/errors"
	"go.uber.org/zap"
)

// CSV writes one <table>.csv per table into a directory. Each file is
// written under a temporary name and renamed into place once complete.
type CSV struct {
	dir    string
	logger *zap.Logger
}

func NewCSV(dir string, logger *zap.Logger) *CSV {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CSV{dir: dir, logger: logger}
}

func (c *CSV) Path(table string) string {
	return filepath.Join(c.dir, table+".csv")
}

func (c *CSV) WriteTable(ctx context.Context, table dataset.Tabular) error {
	schema := table.Schema()
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return ierr.WithError(err).
			WithMessagef("failed to create output directory %s", c.dir).
			Mark(ierr.ErrIO)
	}

	tmp, err := os.CreateTemp(c.dir, "."+schema.Name+"-*.csv.tmp")
	if err != nil {
		return ierr.WithError(err).
			WithMessagef("failed to create CSV file for %s", schema.Name).
			Mark(ierr.ErrIO)
	}
	// no-op once the rename succeeded
	defer os.Remove(tmp.Name())

	if err := c.encode(ctx, tmp, table); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return ierr.WithError(err).WithMessagef("failed to close CSV file for %s", schema.Name).Mark(ierr.ErrIO)
	}

	dst := c.Path(schema.Name)
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return ierr.WithError(err).WithMessagef("failed to move %s into place", dst).Mark(ierr.ErrIO)
	}

	c.logger.Info("table written", zap.String("table", schema.Name), zap.String("path", dst), zap.Int("rows", table.Len()))
	return nil
}

func (c *CSV) encode(ctx context.Context, f *os.File, table dataset.Tabular) error {
	schema := table.Schema()
	writer := csv.NewWriter(f)

	if err := writer.Write(schema.ColumnNames()); err != nil {
		return ierr.WithError(err).WithMessagef("failed to write header for %s", schema.Name).Mark(ierr.ErrIO)
	}

	record := make([]string, 0, len(schema.Columns))
	for i := 0; i < table.Len(); i++ {
		if i%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		record = dataset.FormatRow(table, i, record)
		if err := writer.Write(record); err != nil {
			return ierr.WithError(err).WithMessagef("failed to write row %d of %s", i, schema.Name).Mark(ierr.ErrIO)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return ierr.WithError(err).WithMessagef("failed to flush %s", schema.Name).Mark(ierr.ErrIO)
	}
	return nil
}

func (c *CSV) Close() error {
	return nil
}
