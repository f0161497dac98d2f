package types

// SkippedColumn is a column definition that was not applied.
type SkippedColumn struct {
	Column ColumnDefinition
	Reason error
}

// ColumnsResult reports the outcome of adding several columns.
type ColumnsResult struct {
	Added   []string
	Skipped []SkippedColumn // rejected before reaching the database
	Failed  []SkippedColumn // rejected by the database
}

// Requested returns how many definitions were submitted.
func (r ColumnsResult) Requested() int {
	return len(r.Added) + len(r.Skipped) + len(r.Failed)
}

// Complete reports whether every requested column was added.
func (r ColumnsResult) Complete() bool {
	return len(r.Added) > 0 && len(r.Skipped) == 0 && len(r.Failed) == 0
}

// Partial reports whether some, but not all, columns were added.
func (r ColumnsResult) Partial() bool {
	return len(r.Added) > 0 && (len(r.Skipped) > 0 || len(r.Failed) > 0)
}

// RowFailure is a row of a batch that could not be inserted.
type RowFailure struct {
	Index int
	Row   Row
	Err   error
}

// InsertResult reports the outcome of a batch insert.
type InsertResult struct {
	IDs    []any
	Failed []RowFailure
}

// Inserted returns how many rows were written.
func (r InsertResult) Inserted() int {
	return len(r.IDs)
}
