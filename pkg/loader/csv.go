// pkg/loader/csv.go
package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/TheDucky-2/DataLabX/pkg/model"
)

// CSV loads delimited text. The first record is the header. Empty fields
// load as empty strings, never as null.
type CSV struct {
	opts  Options
	Comma rune
}

// NewCSV creates a comma-separated loader
func NewCSV(opts Options) *CSV {
	return &CSV{opts: opts.withDefaults(), Comma: ','}
}

// Load reads a CSV file
func (l *CSV) Load(ctx context.Context, path string) (*model.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv file: %w", err)
	}
	defer f.Close()

	table, err := l.Read(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	logLoaded(l.opts.Logger, "csv", path, table)
	return table, nil
}

// Read parses CSV from a reader
func (l *CSV) Read(ctx context.Context, r io.Reader) (*model.Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = l.Comma
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("csv input has no header")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	var records [][]string
	for {
		if len(records)%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv record: %w", err)
		}
		records = append(records, rec)
	}

	return l.opts.buildTable(ctx, header, records)
}
