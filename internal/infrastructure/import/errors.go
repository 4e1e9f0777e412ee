package csvimport

import (
	"errors"
	"strconv"
)

// Row error codes
const (
	ErrCodeImportMalformedRow    = "IMPORT_MALFORMED_ROW"
	ErrCodeImportRequiredField   = "IMPORT_REQUIRED_FIELD"
	ErrCodeImportInvalidType     = "IMPORT_INVALID_TYPE"
	ErrCodeImportInvalidRange    = "IMPORT_INVALID_RANGE"
	ErrCodeImportValidation      = "IMPORT_VALIDATION"
	ErrCodeImportDuplicateInFile = "IMPORT_DUPLICATE_IN_FILE"
)

var (
	ErrEmptyFile     = errors.New("csv file is empty")
	ErrMissingHeader = errors.New("csv file has no header row")
	ErrNoDataRows    = errors.New("csv file has no data rows")
)

const defaultErrorLimit = 100

// RowError points at one cell, or a whole line when Column is empty.
// Row is the line in the file, the header being line 1.
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

func (e RowError) Error() string {
	at := "line " + strconv.Itoa(e.Row)
	if e.Column != "" {
		at += " column " + e.Column
	}
	return at + ": " + e.Message
}

func NewRowError(row int, column, code, message string) RowError {
	return RowError{Row: row, Column: column, Code: code, Message: message}
}

// RowErrors keeps the first errors up to its limit and counts the rest
type RowErrors struct {
	kept  []RowError
	limit int
	total int
}

// NewRowErrors uses a limit of 100 when limit is not positive
func NewRowErrors(limit int) *RowErrors {
	if limit <= 0 {
		limit = defaultErrorLimit
	}
	return &RowErrors{limit: limit}
}

func (c *RowErrors) Add(e RowError) {
	c.total++
	if len(c.kept) < c.limit {
		c.kept = append(c.kept, e)
	}
}

// List returns the kept errors in the order they were added
func (c *RowErrors) List() []RowError { return c.kept }

// Total counts every error added, kept or not
func (c *RowErrors) Total() int { return c.total }

func (c *RowErrors) Empty() bool { return c.total == 0 }

func (c *RowErrors) Truncated() bool { return c.total > len(c.kept) }
