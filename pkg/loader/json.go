// pkg/loader/json.go
package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/TheDucky-2/DataLabX/pkg/model"
)

// JSON loads an array of flat records, or a single record. Columns appear in
// first-seen key order. JSON null and absent keys load as null.
type JSON struct {
	opts Options
}

// NewJSON creates a JSON records loader
func NewJSON(opts Options) *JSON {
	return &JSON{opts: opts.withDefaults()}
}

// Load reads a JSON file
func (l *JSON) Load(ctx context.Context, path string) (*model.Table, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read json file: %w", err)
	}

	table, err := l.Parse(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	logLoaded(l.opts.Logger, "json", path, table)
	return table, nil
}

// Parse decodes JSON content into a table
func (l *JSON) Parse(ctx context.Context, content []byte) (*model.Table, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(content, &raw); err != nil {
		// Try as single object
		var single json.RawMessage
		if err := json.Unmarshal(content, &single); err != nil {
			return nil, fmt.Errorf("failed to parse json: %w", err)
		}
		raw = []json.RawMessage{single}
	}

	var names []string
	index := make(map[string]int)
	var values [][]interface{} // per column, per row

	for r, msg := range raw {
		if r%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		fields, err := decodeRecord(msg)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", r, err)
		}
		for _, f := range fields {
			i, ok := index[f.key]
			if !ok {
				i = len(names)
				index[f.key] = i
				names = append(names, f.key)
				values = append(values, make([]interface{}, len(raw)))
			}
			values[i][r] = f.value
		}
	}

	cols := make([]model.Column, len(names))
	for i, name := range names {
		cells, err := l.opts.Converter.ToCells(values[i])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", name, err)
		}
		cols[i] = model.NewColumn(name, l.opts.domainFor(name, cells), cells...)
	}

	return model.NewTable(nil, cols...)
}

type field struct {
	key   string
	value interface{}
}

// decodeRecord reads one object keeping key order. Numbers stay json.Number.
func decodeRecord(msg json.RawMessage) ([]field, error) {
	dec := json.NewDecoder(bytes.NewReader(msg))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var fields []field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected key, got %v", tok)
		}

		var v interface{}
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("key %s: %w", key, err)
		}
		fields = append(fields, field{key: key, value: v})
	}
	return fields, nil
}
