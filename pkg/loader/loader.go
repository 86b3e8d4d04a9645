// pkg/loader/loader.go
package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/TheDucky-2/DataLabX/pkg/converter"
	"github.com/TheDucky-2/DataLabX/pkg/model"
)

// Loader reads a file into a table. Row ids are dense, 0..n-1, in file order.
type Loader interface {
	Load(ctx context.Context, path string) (*model.Table, error)
}

// Options configures every loader
type Options struct {
	Logger    *zap.Logger
	Converter *converter.TypeConverter
	// Domain overrides by column name. Other columns are inferred.
	Domains map[string]model.Domain
	// Excel sheet to read; the first sheet when empty
	Sheet string
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Converter == nil {
		o.Converter = converter.NewTypeConverter(o.Logger)
	}
	return o
}

// ForPath picks a loader by file extension
func ForPath(path string, opts Options) (Loader, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return NewCSV(opts), nil
	case ".tsv", ".tab":
		l := NewCSV(opts)
		l.Comma = '\t'
		return l, nil
	case ".json":
		return NewJSON(opts), nil
	case ".parquet", ".pq":
		return NewParquet(opts), nil
	case ".xlsx", ".xlsm", ".xltx":
		return NewExcel(opts), nil
	default:
		return nil, fmt.Errorf("unsupported file type %q", ext)
	}
}

// Load reads a file with the loader ForPath picks
func Load(ctx context.Context, path string, opts Options) (*model.Table, error) {
	l, err := ForPath(path, opts)
	if err != nil {
		return nil, err
	}
	return l.Load(ctx, path)
}

// domainFor returns the override for a column, or infers one from the kind
// its non-null cells share, falling back to the column name
func (o Options) domainFor(name string, cells []model.Cell) model.Domain {
	if d, ok := o.Domains[name]; ok {
		return d
	}

	kind := model.KindNull
	for _, c := range cells {
		if c.IsNull() {
			continue
		}
		if kind != model.KindNull && c.Kind() != kind {
			kind = model.KindString
			break
		}
		kind = c.Kind()
	}

	switch kind {
	case model.KindNumber:
		return model.DomainNumeric
	case model.KindTime:
		return model.DomainDatetime
	default:
		return o.Converter.ColumnDomain(converter.ColumnSpec{Name: name})
	}
}

// buildTable assembles columns from a header and row-major string records.
// Short rows are padded with empty strings; long rows are an error.
func (o Options) buildTable(ctx context.Context, header []string, records [][]string) (*model.Table, error) {
	cells := make([][]model.Cell, len(header))
	for i := range cells {
		cells[i] = make([]model.Cell, len(records))
	}

	for r, rec := range records {
		if r%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if len(rec) > len(header) {
			return nil, fmt.Errorf("row %d has %d fields, header has %d", r+1, len(rec), len(header))
		}
		for i := range header {
			v := ""
			if i < len(rec) {
				v = rec[i]
			}
			cells[i][r] = model.String(v)
		}
	}

	cols := make([]model.Column, len(header))
	for i, name := range header {
		cols[i] = model.NewColumn(name, o.domainFor(name, cells[i]), cells[i]...)
	}
	return model.NewTable(nil, cols...)
}

// checkEvery is how many rows are read between context checks
const checkEvery = 1024

func logLoaded(logger *zap.Logger, format, path string, table *model.Table) {
	logger.Info("Loaded table",
		zap.String("format", format),
		zap.String("path", path),
		zap.Int("rows", table.Len()),
		zap.Int("columns", len(table.ColumnNames())))
}
