package client

import (
	"database/sql"
	"strings"

	"github.com/ximilsoft/postgresql-manager/runtime/types"
)

// binaryTypes are driver type names whose values stay []byte.
var binaryTypes = map[string]struct{}{
	"BYTEA": {}, "BLOB": {}, "BINARY": {}, "VARBINARY": {},
	"TINYBLOB": {}, "MEDIUMBLOB": {}, "LONGBLOB": {},
}

// ScanRows reads every row into a column-to-value map. Text returned as
// []byte by the driver is converted to string; binary columns are kept as is.
func ScanRows(rows *sql.Rows) ([]types.Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	binary := make([]bool, len(columns))
	for i, ct := range colTypes {
		_, binary[i] = binaryTypes[strings.ToUpper(ct.DatabaseTypeName())]
	}

	results := []types.Row{}
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		row := make(types.Row, len(columns))
		for i, col := range columns {
			v := values[i]
			if b, ok := v.([]byte); ok && !binary[i] {
				v = string(b)
			}
			row[col] = v
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// dropColumn removes col from every row.
func dropColumn(rows []types.Row, col string) {
	for _, r := range rows {
		delete(r, col)
	}
}
