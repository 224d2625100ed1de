package ynap

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	ErrInvalidCommand = errors.New("invalid template command")
	ErrEmptyValue     = errors.New("value cannot be empty")
)

// placeholderPattern matches `${name}` and `${name|command}`.
var placeholderPattern = regexp.MustCompile(`\$\{(\w+)(?:\|(\w+))?\}`)

// Interpolate expands every `${name}` and `${name|command}` placeholder
// in tmpl, resolving each name left to right through an independent call
// to lookup. A template without placeholders is returned unchanged
// without invoking lookup at all.
func Interpolate(tmpl string, lookup func(key string) string) (string, error) {
	if !placeholderPattern.MatchString(tmpl) {
		return tmpl, nil
	}

	var b strings.Builder
	index := 0
	for _, m := range placeholderPattern.FindAllStringSubmatchIndex(tmpl, -1) {
		b.WriteString(tmpl[index:m[0]])
		index = m[1]

		key := tmpl[m[2]:m[3]]
		value := lookup(key)

		if m[4] >= 0 {
			var err error
			value, err = applyCommand(tmpl[m[4]:m[5]], key, value)
			if err != nil {
				return "", err
			}
		}
		b.WriteString(value)
	}
	b.WriteString(tmpl[index:])

	return b.String(), nil
}

// ValidateTemplate reports whether every placeholder command in tmpl is
// known, without resolving any values. Used to lint rule files before a
// run.
func ValidateTemplate(tmpl string) error {
	for _, m := range placeholderPattern.FindAllStringSubmatch(tmpl, -1) {
		switch m[2] {
		case "", "title_case", "lowercase", "uppercase", "not_empty":
		default:
			return fmt.Errorf("%w: %s", ErrInvalidCommand, m[2])
		}
	}
	return nil
}

func applyCommand(command, key, value string) (string, error) {
	switch command {
	case "title_case":
		return cases.Title(language.Und).String(value), nil
	case "lowercase":
		return strings.ToLower(value), nil
	case "uppercase":
		return strings.ToUpper(value), nil
	case "not_empty":
		if value == "" {
			return "", fmt.Errorf("value of key %q: %w", key, ErrEmptyValue)
		}
		return value, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidCommand, command)
	}
}
