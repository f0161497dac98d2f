// Package seed reads seed files: a table, optional column definitions and
// the rows to insert. Files are YAML; JSON is accepted as a YAML subset.
package seed

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/ximilsoft/postgresql-manager/runtime/types"
)

// File is the decoded content of a seed file.
//
//	database: shop        # optional, defaults to the configured database
//	table: users
//	columns:              # optional, added before the rows
//	  - {name: id, type: INT, is_primary: true}
//	  - {name: name, type: VARCHAR}
//	rows:
//	  - {id: 1, name: Alice}
type File struct {
	Database string                   `yaml:"database"`
	Table    string                   `yaml:"table"`
	Columns  []types.ColumnDefinition `yaml:"columns"`
	Rows     []map[string]any         `yaml:"rows"`
}

// ErrNoTable is returned when a seed file does not name a table.
var ErrNoTable = errors.New("seed file has no table")

// Load reads and decodes path.
func Load(fs afero.Fs, path string) (*File, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes a seed document. Several documents in one file are rejected.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoTable
		}
		return nil, fmt.Errorf("invalid seed file: %w", err)
	}
	var extra File
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, errors.New("invalid seed file: expected a single document")
	}

	if f.Table == "" {
		return nil, ErrNoTable
	}
	return &f, nil
}

// Payload returns the rows as row payloads.
func (f *File) Payload() []types.Row {
	rows := make([]types.Row, len(f.Rows))
	for i, r := range f.Rows {
		rows[i] = types.Row(r)
	}
	return rows
}
