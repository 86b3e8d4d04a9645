// pkg/loader/parquet.go
package loader

import (
	"context"
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/TheDucky-2/DataLabX/pkg/model"
)

// Parquet loads a Parquet file through its Arrow representation
type Parquet struct {
	opts Options
	mem  memory.Allocator
}

// NewParquet creates a Parquet loader
func NewParquet(opts Options) *Parquet {
	return &Parquet{opts: opts.withDefaults(), mem: memory.NewGoAllocator()}
}

// Load reads a Parquet file
func (l *Parquet) Load(ctx context.Context, path string) (*model.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer f.Close()

	pf, err := file.NewParquetReader(f, file.WithReadProps(parquet.NewReaderProperties(l.mem)))
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet reader: %w", err)
	}
	defer pf.Close()

	arrowReader, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, l.mem)
	if err != nil {
		return nil, fmt.Errorf("failed to create arrow reader: %w", err)
	}

	tbl, err := arrowReader.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet data: %w", err)
	}
	defer tbl.Release()

	cols := make([]model.Column, 0, tbl.NumCols())
	for i := 0; i < int(tbl.NumCols()); i++ {
		col := tbl.Column(i)
		cells, err := l.opts.Converter.ChunkedToCells(col.Data())
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col.Name(), err)
		}

		domain, ok := l.opts.Domains[col.Name()]
		if !ok {
			domain = l.opts.Converter.ArrowDomain(col.Name(), col.DataType())
		}
		cols = append(cols, model.NewColumn(col.Name(), domain, cells...))
	}

	table, err := model.NewTable(nil, cols...)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	logLoaded(l.opts.Logger, "parquet", path, table)
	return table, nil
}
