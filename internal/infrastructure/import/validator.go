package csvimport

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Kind is what a cell must parse as
type Kind int

const (
	KindText Kind = iota
	KindInt
	KindDecimal
)

// FieldRule constrains one column. Rules are values; each builder method
// returns a modified copy.
type FieldRule struct {
	column   string
	kind     Kind
	required bool
	floor    *decimal.Decimal
	check    func(string) error
}

// Field starts an optional text rule for column
func Field(column string) FieldRule { return FieldRule{column: column} }

func (r FieldRule) Required() FieldRule {
	r.required = true
	return r
}

func (r FieldRule) Int() FieldRule {
	r.kind = KindInt
	return r
}

func (r FieldRule) Decimal() FieldRule {
	r.kind = KindDecimal
	return r
}

// AtLeast bounds numeric cells from below
func (r FieldRule) AtLeast(floor decimal.Decimal) FieldRule {
	r.floor = &floor
	return r
}

// Custom runs fn once the cell has parsed and passed its bound
func (r FieldRule) Custom(fn func(string) error) FieldRule { r.check = fn; return r }

// verify returns the code and message of the first failed constraint, or
// an empty code
func (r FieldRule) verify(value string) (code, message string) {
	if value == "" {
		if r.required {
			return ErrCodeImportRequiredField, "value is required"
		}
		return "", ""
	}

	var n decimal.Decimal
	switch r.kind {
	case KindInt:
		i, err := strconv.Atoi(value)
		if err != nil {
			return ErrCodeImportInvalidType, "expected an integer"
		}
		n = decimal.NewFromInt(int64(i))
	case KindDecimal:
		d, err := decimal.NewFromString(value)
		if err != nil {
			return ErrCodeImportInvalidType, "expected a decimal number"
		}
		n = d
	}
	if r.floor != nil && r.kind != KindText && n.LessThan(*r.floor) {
		return ErrCodeImportInvalidRange, "must be at least " + r.floor.String()
	}

	if r.check != nil {
		if err := r.check(value); err != nil {
			return ErrCodeImportValidation, err.Error()
		}
	}
	return "", ""
}

// Validator checks rows against its rules, column by column, and collects
// every failure
type Validator struct {
	rules []FieldRule
	errs  *RowErrors
}

func NewValidator(rules []FieldRule, maxErrors int) *Validator {
	return &Validator{rules: rules, errs: NewRowErrors(maxErrors)}
}

// Validate reports whether row passed every rule
func (v *Validator) Validate(row *Row) bool {
	ok := true
	for _, rule := range v.rules {
		value := row.Get(rule.column)
		code, message := rule.verify(value)
		if code == "" {
			continue
		}
		ok = false
		v.errs.Add(RowError{Row: row.Line, Column: rule.column, Code: code, Message: message, Value: value})
	}
	return ok
}

func (v *Validator) Errors() *RowErrors { return v.errs }
