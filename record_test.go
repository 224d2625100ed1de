package ynap

import (
	"errors"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestSimplify(t *testing.T) {
	tests := []struct {
		sep  DecimalSeparator
		in   string
		want string
	}{
		{Period, "4.50", "4.50"},
		{Period, "1,234.50", "1234.50"},
		{Period, "12,345,678.99", "12345678.99"},
		{Comma, "4,50", "4.50"},
		{Comma, "1.234,50", "1234.50"},
		{Comma, "2.000,00", "2000.00"},
		{Period, "", ""},
	}

	for _, tt := range tests {
		if got := tt.sep.Simplify(tt.in); got != tt.want {
			t.Errorf("%s.Simplify(%q) = %q, want %q", tt.sep, tt.in, got, tt.want)
		}
	}
}

func TestNewRecordFromRow(t *testing.T) {
	columns := []Field{
		{Kind: FieldDate, Layout: "01/02/2006"},
		{Kind: FieldPayee},
		{Kind: FieldIgnore},
		{Kind: FieldCategory},
		{Kind: FieldMemo},
		{Kind: FieldOutflow, Separator: Period},
		{Kind: FieldExtra, Name: "reference"},
	}

	row := []string{"01/15/2023", "Coffee Shop", "junk", "Dining", "latte", "1,234.50", "INV-1"}
	r, err := NewRecordFromRow(row, columns)
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]string{
		"date":      "2023-01-15",
		"payee":     "Coffee Shop",
		"category":  "Dining",
		"memo":      "latte",
		"amount":    "-1234.50",
		"reference": "INV-1",
	}
	for key, value := range want {
		got, ok := r.Get(key)
		if !ok {
			t.Errorf("Get(%q) reported missing", key)
		}
		if got != value {
			t.Errorf("Get(%q) = %q, want %q", key, got, value)
		}
	}
	if r.Transformed {
		t.Error("fresh record should not be marked transformed")
	}
}

func TestNewRecordFromRowVerbatimDate(t *testing.T) {
	r, err := NewRecordFromRow([]string{"2023-01-15"}, []Field{{Kind: FieldDate}})
	if err != nil {
		t.Fatal(err)
	}
	if r.Date != "2023-01-15" {
		t.Errorf("expected verbatim date, got %q", r.Date)
	}
}

func TestNewRecordFromRowShortRow(t *testing.T) {
	columns := []Field{{Kind: FieldPayee}, {Kind: FieldMemo}}
	_, err := NewRecordFromRow([]string{"only one"}, columns)
	if !errors.Is(err, ErrShortRow) {
		t.Errorf("expected ErrShortRow, got %v", err)
	}
}

func TestNewRecordFromRowBadDate(t *testing.T) {
	columns := []Field{{Kind: FieldDate, Layout: "01/02/2006"}}
	if _, err := NewRecordFromRow([]string{"2023-01-15"}, columns); err == nil {
		t.Error("expected date parse error")
	}
}

func TestNewRecordFromRowAmountColumns(t *testing.T) {
	columns := []Field{
		{Kind: FieldOutflow, Separator: Comma},
		{Kind: FieldInflow, Separator: Comma},
	}

	tests := []struct {
		name string
		row  []string
		want string
	}{
		{"outflow only", []string{"1.234,50", ""}, "-1234.50"},
		{"inflow only", []string{"", "2.000,00"}, "2000.00"},
		{"both set, later column wins", []string{"10,00", "20,00"}, "20.00"},
		{"neither", []string{"", ""}, ""},
	}

	for _, tt := range tests {
		r, err := NewRecordFromRow(tt.row, columns)
		if err != nil {
			t.Fatalf("%s: %s", tt.name, err)
		}
		if r.Amount != tt.want {
			t.Errorf("%s: amount = %q, want %q", tt.name, r.Amount, tt.want)
		}
	}
}

func TestRecordReplace(t *testing.T) {
	r := NewRecord()
	r.Payee = "Old Payee"

	prev, ok := r.Replace("payee", "New Payee")
	if !ok || prev != "Old Payee" {
		t.Errorf("Replace(payee) = (%q, %v), want (Old Payee, true)", prev, ok)
	}
	if r.Payee != "New Payee" {
		t.Errorf("payee = %q after replace", r.Payee)
	}

	// Canonical slots report their previous value even when empty.
	if prev, ok := r.Replace("memo", "note"); !ok || prev != "" {
		t.Errorf("Replace(memo) = (%q, %v), want (\"\", true)", prev, ok)
	}

	// Extra keys report false the first time only.
	if _, ok := r.Replace("check", "42"); ok {
		t.Error("Replace on absent extra key should report false")
	}
	if prev, ok := r.Replace("check", "43"); !ok || prev != "42" {
		t.Errorf("Replace(check) = (%q, %v), want (42, true)", prev, ok)
	}

	if v, ok := r.Get("nope"); ok || v != "" {
		t.Errorf("Get(nope) = (%q, %v), want (\"\", false)", v, ok)
	}
}

func TestFieldUnmarshalYAML(t *testing.T) {
	doc := `
- type: ignore
- type: date
  args: "%m/%d/%Y"
- type: date
- type: payee
- type: inflow
  args: comma
- type: outflow
- type: extra
  args: reference
`
	var columns []Field
	if err := yaml.Unmarshal([]byte(doc), &columns); err != nil {
		t.Fatal(err)
	}

	want := []Field{
		{Kind: FieldIgnore},
		{Kind: FieldDate, Layout: "01/02/2006"},
		{Kind: FieldDate},
		{Kind: FieldPayee},
		{Kind: FieldInflow, Separator: Comma},
		{Kind: FieldOutflow, Separator: Period},
		{Kind: FieldExtra, Name: "reference"},
	}
	if len(columns) != len(want) {
		t.Fatalf("expected %d columns, got %d", len(want), len(columns))
	}
	for i, w := range want {
		if columns[i] != w {
			t.Errorf("column %d = %+v, want %+v", i, columns[i], w)
		}
	}
}

func TestFieldUnmarshalYAMLErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown type", `[{type: banana}]`},
		{"extra without name", `[{type: extra}]`},
		{"bad separator", `[{type: inflow, args: semicolon}]`},
		{"bad date pattern", `[{type: date, args: "%W"}]`},
	}

	for _, tt := range tests {
		var columns []Field
		if err := yaml.Unmarshal([]byte(tt.doc), &columns); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}
