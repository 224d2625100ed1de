package ynap

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"gopkg.in/yaml.v3"
)

var ErrBadDelimiter = errors.New("delimiter must be a single character")

// Regexp wraps a compiled regular expression so it can be declared
// directly in YAML documents.
type Regexp struct {
	*regexp.Regexp
}

func (re *Regexp) UnmarshalYAML(value *yaml.Node) error {
	var expr string
	if err := value.Decode(&expr); err != nil {
		return err
	}
	compiled, err := regexp.Compile(expr)
	if err != nil {
		return err
	}
	re.Regexp = compiled
	return nil
}

// BankFormat describes one bank's CSV export layout: which leading lines
// and junk lines to drop, the cell delimiter, and how each column maps
// into a Record.
type BankFormat struct {
	Name             string   `yaml:"name"`
	FilePattern      *Regexp  `yaml:"file_pattern,omitempty"`
	IgnorePatterns   []Regexp `yaml:"ignore_patterns"`
	IgnoreHeaderRows int      `yaml:"ignore_header_rows"`
	Delimiter        string   `yaml:"delimiter"`
	Columns          []Field  `yaml:"columns"`
}

// DecodeBankFormat reads a YAML bank format file. A missing delimiter
// defaults to a comma.
func DecodeBankFormat(r io.Reader) (*BankFormat, error) {
	var format BankFormat
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&format); err != nil {
		return nil, fmt.Errorf("unable to parse bank format: %w", err)
	}
	if format.Delimiter == "" {
		format.Delimiter = ","
	}
	if utf8.RuneCountInString(format.Delimiter) != 1 {
		return nil, fmt.Errorf("%w: %q", ErrBadDelimiter, format.Delimiter)
	}
	return &format, nil
}

// LoadBankFormat reads a YAML bank format file from disk.
func LoadBankFormat(path string) (*BankFormat, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	format, err := DecodeBankFormat(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return format, nil
}

// Matches reports whether the format's file_pattern matches the given
// filename. Formats without a pattern never match.
func (f *BankFormat) Matches(filename string) bool {
	return f.FilePattern != nil && f.FilePattern.MatchString(filename)
}

// ReadRecords decodes, filters, and parses one bank CSV export into
// records. Input bytes are taken as UTF-8, falling back to ISO 8859-1
// when they are not valid UTF-8. The configured number of header lines
// is skipped and every line matching an ignore pattern is dropped before
// CSV parsing. Any malformed row or date aborts the whole batch.
func (f *BankFormat) ReadRecords(r io.Reader) ([]*Record, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	input, err := decodeText(raw)
	if err != nil {
		return nil, err
	}

	var filtered strings.Builder
	for i, line := range splitLines(input) {
		if i < f.IgnoreHeaderRows || f.ignoreLine(line) {
			continue
		}
		filtered.WriteString(line)
		filtered.WriteString("\n")
	}

	reader := csv.NewReader(strings.NewReader(filtered.String()))
	reader.Comma, _ = utf8.DecodeRuneInString(f.Delimiter)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error parsing CSV file: %w", err)
	}

	records := make([]*Record, 0, len(rows))
	for i, row := range rows {
		record, err := NewRecordFromRow(row, f.Columns)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		records = append(records, record)
	}
	return records, nil
}

// ReadFile reads and converts a bank CSV export from disk.
func (f *BankFormat) ReadFile(path string) ([]*Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	records, err := f.ReadRecords(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

func (f *BankFormat) ignoreLine(line string) bool {
	for _, p := range f.IgnorePatterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

// decodeText interprets raw bytes as UTF-8, falling back to a lossy
// ISO 8859-1 decode for legacy bank exports.
func decodeText(raw []byte) (string, error) {
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("unable to decode input: %w", err)
	}
	return string(decoded), nil
}

// splitLines splits on newlines, tolerating CRLF endings and a missing
// final newline.
func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// WriteRecords writes the fixed five-column output CSV, header first,
// one row per record in input order.
func WriteRecords(w io.Writer, records []*Record) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header()); err != nil {
		return err
	}
	for _, r := range records {
		if err := writer.Write(r.Row()); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
