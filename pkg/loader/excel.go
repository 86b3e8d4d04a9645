// pkg/loader/excel.go
package loader

import (
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/TheDucky-2/DataLabX/pkg/model"
)

// Excel loads one worksheet. The first row is the header; cells are read as
// displayed text, so empty cells load as empty strings.
type Excel struct {
	opts Options
}

// NewExcel creates a worksheet loader
func NewExcel(opts Options) *Excel {
	return &Excel{opts: opts.withDefaults()}
}

// Load reads a workbook
func (l *Excel) Load(ctx context.Context, path string) (*model.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	sheet := l.opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s has no header", sheet)
	}

	l.opts.Logger.Debug("Reading sheet",
		zap.String("sheet", sheet),
		zap.Int("total_rows", len(rows)))

	table, err := l.opts.buildTable(ctx, rows[0], rows[1:])
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	logLoaded(l.opts.Logger, "excel", path, table)
	return table, nil
}
