// Package ynap normalizes bank-exported CSV transaction files into the
// five-column format used by YNAB (Date, Payee, Category, Memo, Amount)
// and applies declarative transformation rules to the resulting records.
package ynap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	strftime "github.com/ncruces/go-strftime"
	"gopkg.in/yaml.v3"
)

var (
	ErrShortRow     = errors.New("row has fewer columns than the column mapping")
	ErrMissingExtra = errors.New("extra column requires a field name")
)

// canonicalDateLayout is the output date form for every record.
const canonicalDateLayout = "2006-01-02"

// DecimalSeparator describes the decimal-mark convention of an amount
// column, and how to normalize it to a plain period-decimal numeral.
type DecimalSeparator int

const (
	// Period amounts use `.` as the decimal mark and `,` for grouping.
	Period DecimalSeparator = iota
	// Comma amounts use `,` as the decimal mark and `.` for grouping.
	Comma
)

// Simplify strips the grouping marks from s and normalizes the decimal
// mark to a period. It is purely textual and never fails.
func (d DecimalSeparator) Simplify(s string) string {
	if d == Comma {
		s = strings.ReplaceAll(s, ".", "")
		return strings.ReplaceAll(s, ",", ".")
	}
	return strings.ReplaceAll(s, ",", "")
}

func (d DecimalSeparator) String() string {
	if d == Comma {
		return "comma"
	}
	return "period"
}

// UnmarshalYAML decodes "period" or "comma".
func (d *DecimalSeparator) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	switch s {
	case "period":
		*d = Period
	case "comma":
		*d = Comma
	default:
		return fmt.Errorf("unknown decimal separator %q", s)
	}
	return nil
}

// FieldKind enumerates the ways an input CSV column can be interpreted.
type FieldKind int

const (
	FieldIgnore FieldKind = iota
	FieldDate
	FieldPayee
	FieldCategory
	FieldMemo
	FieldInflow
	FieldOutflow
	FieldExtra
)

// Field describes how one input CSV column populates a Record. A column
// mapping is an ordered slice of Fields, positionally aligned with the
// input columns.
type Field struct {
	Kind FieldKind

	// Layout is the Go reference layout used to parse a FieldDate cell.
	// Empty means the cell is already in canonical YYYY-MM-DD form.
	Layout string

	// Separator applies to FieldInflow and FieldOutflow columns.
	Separator DecimalSeparator

	// Name is the record slot a FieldExtra column is stored under.
	Name string
}

// UnmarshalYAML decodes the {type: ..., args: ...} column form used by
// bank format files, e.g.
//
//   - type: date
//     args: "%m/%d/%Y"
//   - type: payee
//   - type: outflow
//     args: period
func (f *Field) UnmarshalYAML(value *yaml.Node) error {
	var doc struct {
		Type string    `yaml:"type"`
		Args yaml.Node `yaml:"args"`
	}
	if err := value.Decode(&doc); err != nil {
		return err
	}

	switch doc.Type {
	case "ignore":
		f.Kind = FieldIgnore
	case "date":
		f.Kind = FieldDate
		var pattern string
		if !doc.Args.IsZero() {
			if err := doc.Args.Decode(&pattern); err != nil {
				return err
			}
		}
		layout, err := DateLayout(pattern)
		if err != nil {
			return fmt.Errorf("date column: %w", err)
		}
		f.Layout = layout
	case "payee":
		f.Kind = FieldPayee
	case "category":
		f.Kind = FieldCategory
	case "memo":
		f.Kind = FieldMemo
	case "inflow", "outflow":
		f.Kind = FieldInflow
		if doc.Type == "outflow" {
			f.Kind = FieldOutflow
		}
		if !doc.Args.IsZero() {
			if err := doc.Args.Decode(&f.Separator); err != nil {
				return err
			}
		}
	case "extra":
		f.Kind = FieldExtra
		if !doc.Args.IsZero() {
			if err := doc.Args.Decode(&f.Name); err != nil {
				return err
			}
		}
		if f.Name == "" {
			return ErrMissingExtra
		}
	default:
		return fmt.Errorf("unknown column type %q", doc.Type)
	}
	return nil
}

// DateLayout converts a bank-file date pattern into a Go reference
// layout. Patterns containing '%' are interpreted as strftime patterns
// (the dialect bank format files are written in); anything else is taken
// to already be a Go layout. An empty pattern stays empty, meaning the
// column is already canonical.
func DateLayout(pattern string) (string, error) {
	if pattern == "" || !strings.ContainsRune(pattern, '%') {
		return pattern, nil
	}
	return strftime.Layout(pattern)
}

// Record is one transaction in canonical form: the five YNAB slots plus
// any extra named fields carried along for rule matching. Transformed
// reports whether any rule has rewritten the record.
type Record struct {
	Date     string
	Payee    string
	Category string
	Memo     string
	Amount   string

	Extra map[string]string

	Transformed bool
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{Extra: make(map[string]string)}
}

// NewRecordFromRow maps one raw CSV row into a Record, interpreting
// column i of the row per mapping entry i. The row must have at least as
// many cells as the mapping has entries.
//
// If a row maps both an inflow and an outflow column with non-empty
// cells, the later column wins the shared amount slot; empty amount
// cells never overwrite an amount set by an earlier column.
func NewRecordFromRow(row []string, columns []Field) (*Record, error) {
	if len(row) < len(columns) {
		return nil, fmt.Errorf("%w: have %d, want %d", ErrShortRow, len(row), len(columns))
	}

	r := NewRecord()
	for i, col := range columns {
		v := row[i]
		switch col.Kind {
		case FieldIgnore:
			continue
		case FieldDate:
			if col.Layout == "" {
				r.Date = v
				continue
			}
			date, err := time.Parse(col.Layout, v)
			if err != nil {
				return nil, fmt.Errorf("column %d: unable to parse date(%s): %w", i+1, v, err)
			}
			r.Date = date.Format(canonicalDateLayout)
		case FieldPayee:
			r.Payee = v
		case FieldCategory:
			r.Category = v
		case FieldMemo:
			r.Memo = v
		case FieldInflow:
			if v != "" {
				r.Amount = col.Separator.Simplify(v)
			}
		case FieldOutflow:
			if v != "" {
				r.Amount = "-" + col.Separator.Simplify(v)
			}
		case FieldExtra:
			r.Extra[col.Name] = v
		}
	}
	return r, nil
}

// Get returns the value of a canonical or extra field. The second return
// is false only for extra keys that are not present; canonical slots
// always exist.
func (r *Record) Get(key string) (string, bool) {
	switch key {
	case "date":
		return r.Date, true
	case "payee":
		return r.Payee, true
	case "category":
		return r.Category, true
	case "memo":
		return r.Memo, true
	case "amount":
		return r.Amount, true
	default:
		v, ok := r.Extra[key]
		return v, ok
	}
}

// Replace swaps the value of a field for a new one and returns the
// previous value. For extra keys the second return is false when the key
// did not exist before; canonical slots always report true.
func (r *Record) Replace(key, value string) (string, bool) {
	var slot *string
	switch key {
	case "date":
		slot = &r.Date
	case "payee":
		slot = &r.Payee
	case "category":
		slot = &r.Category
	case "memo":
		slot = &r.Memo
	case "amount":
		slot = &r.Amount
	default:
		prev, ok := r.Extra[key]
		r.Extra[key] = value
		return prev, ok
	}
	prev := *slot
	*slot = value
	return prev, true
}

// Keys lists the canonical slot names followed by the extra field names.
func (r *Record) Keys() []string {
	keys := []string{"date", "payee", "category", "memo", "amount"}
	for k := range r.Extra {
		keys = append(keys, k)
	}
	return keys
}

// Header is the output CSV header row.
func Header() []string {
	return []string{"Date", "Payee", "Category", "Memo", "Amount"}
}

// Row renders the record as an output CSV row, aligned with Header.
func (r *Record) Row() []string {
	return []string{r.Date, r.Payee, r.Category, r.Memo, r.Amount}
}
