package csvimport

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Source encodings
const (
	EncodingUTF8        = "utf-8"
	EncodingWindows1252 = "windows-1252"
)

const sniffSize = 64 << 10

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Reader reads a CSV file whose first record names the columns. Input that
// is not UTF-8 is decoded as Windows-1252, the code page of French-locale
// Excel exports.
type Reader struct {
	csv      *csv.Reader
	encoding string
	columns  []string
	index    map[string]int
	line     int
}

// Option tunes the underlying csv.Reader
type Option func(*csv.Reader)

// WithDelimiter sets the field separator, a comma by default
func WithDelimiter(sep rune) Option {
	return func(r *csv.Reader) { r.Comma = sep }
}

// NewReader sniffs the encoding from the start of src
func NewReader(src io.Reader, opts ...Option) (*Reader, error) {
	buf := bufio.NewReaderSize(src, sniffSize)
	head, err := buf.Peek(sniffSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	truncated := err == nil

	bom := bytes.HasPrefix(head, utf8BOM)
	if bom {
		head = head[len(utf8BOM):]
		_, _ = buf.Discard(len(utf8BOM))
	}
	if len(bytes.TrimSpace(head)) == 0 {
		return nil, ErrEmptyFile
	}

	r := &Reader{encoding: EncodingUTF8, index: make(map[string]int)}
	var text io.Reader = buf
	if !bom && !looksUTF8(head, truncated) {
		r.encoding = EncodingWindows1252
		text = transform.NewReader(buf, charmap.Windows1252.NewDecoder())
	}

	r.csv = csv.NewReader(text)
	r.csv.LazyQuotes = true
	r.csv.TrimLeadingSpace = true
	r.csv.FieldsPerRecord = -1
	for _, opt := range opts {
		opt(r.csv)
	}
	return r, nil
}

// looksUTF8 tolerates a rune cut in half by the end of a truncated sample
func looksUTF8(b []byte, truncated bool) bool {
	if utf8.Valid(b) {
		return true
	}
	if !truncated {
		return false
	}
	for cut := 1; cut < utf8.UTFMax && cut < len(b); cut++ {
		if utf8.Valid(b[:len(b)-cut]) && !utf8.FullRune(b[len(b)-cut:]) {
			return true
		}
	}
	return false
}

func (r *Reader) Encoding() string { return r.encoding }

// ReadHeader reads the column names, trimmed and lower-cased
func (r *Reader) ReadHeader() error {
	record, err := r.csv.Read()
	switch {
	case errors.Is(err, io.EOF):
		return ErrMissingHeader
	case err != nil:
		return fmt.Errorf("read csv header: %w", err)
	}

	r.line, _ = r.csv.FieldPos(0)
	r.columns = make([]string, len(record))
	for i, name := range record {
		name = strings.ToLower(strings.TrimSpace(name))
		r.columns[i] = name
		if name != "" {
			r.index[name] = i
		}
	}
	if len(r.index) == 0 {
		return ErrMissingHeader
	}
	return nil
}

func (r *Reader) Columns() []string { return r.columns }

func (r *Reader) Has(column string) bool {
	_, ok := r.index[column]
	return ok
}

// Missing lists the required columns absent from the header
func (r *Reader) Missing(required []string) []string {
	return lo.Reject(required, func(c string, _ int) bool { return r.Has(c) })
}

// Row is one record keyed by column name. Short records read as empty cells.
type Row struct {
	Line   int
	Fields map[string]string
}

func (r *Row) Get(column string) string { return r.Fields[column] }

func (r *Row) Blank() bool {
	return lo.EveryBy(lo.Values(r.Fields), func(v string) bool { return v == "" })
}

// Next returns the following record, or io.EOF after the last one
func (r *Reader) Next() (*Row, error) {
	record, err := r.csv.Read()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	if err != nil {
		line := r.line + 1
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			line = parseErr.StartLine
		}
		return nil, NewRowError(line, "", ErrCodeImportMalformedRow, err.Error())
	}

	r.line, _ = r.csv.FieldPos(0)
	row := &Row{Line: r.line, Fields: make(map[string]string, len(r.index))}
	for name, i := range r.index {
		if i < len(record) {
			row.Fields[name] = strings.TrimSpace(record[i])
		} else {
			row.Fields[name] = ""
		}
	}
	return row, nil
}

// ReadAll returns the remaining rows, skipping those with every cell empty
func (r *Reader) ReadAll() ([]*Row, error) {
	var rows []*Row
	for {
		row, err := r.Next()
		switch {
		case errors.Is(err, io.EOF):
			return rows, nil
		case err != nil:
			return rows, err
		case !row.Blank():
			rows = append(rows, row)
		}
	}
}
