package ynap

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"
)

// Transformer is one rule in the cleanup pipeline. Match reports whether
// the rule would fire on the record; Transform applies it, reporting
// whether it fired. Transformers are built once from configuration and
// are read-only while records are processed.
type Transformer interface {
	Match(r *Record) bool
	Transform(r *Record) (bool, error)
}

// Matcher rewrites record fields. Every search pattern must match its
// field for the rule to fire; named capture groups from all patterns are
// pooled and made available to the replacement templates.
type Matcher struct {
	search  map[string]*regexp.Regexp
	replace map[string]string
}

// NewMatcher compiles a matcher from per-field search expressions and
// replacement templates.
func NewMatcher(search, replace map[string]string) (*Matcher, error) {
	compiled := make(map[string]*regexp.Regexp, len(search))
	for field, expr := range search {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("match pattern for field %q: %w", field, err)
		}
		compiled[field] = re
	}
	return &Matcher{search: compiled, replace: replace}, nil
}

// Match reports whether every search pattern matches its field on the
// record. An empty search set matches vacuously.
func (m *Matcher) Match(r *Record) bool {
	for field, re := range m.search {
		v, ok := r.Get(field)
		if !ok || !re.MatchString(v) {
			return false
		}
	}
	return true
}

// Transform fires the rule: if all search patterns match, each
// replacement template is interpolated against the pooled named captures
// (falling back to the record's current field values, then to the empty
// string) and written into its field. Returns false without touching the
// record if any pattern fails to match.
//
// When two search patterns name the same capture group, the pattern on
// the later field (in sorted field order) wins. Search fields are
// normally disjoint, so this only matters in the degenerate case.
func (m *Matcher) Transform(r *Record) (bool, error) {
	captures := make(map[string]string)
	for _, field := range sortedKeys(m.search) {
		re := m.search[field]
		v, ok := r.Get(field)
		if !ok {
			return false, nil
		}
		loc := re.FindStringSubmatchIndex(v)
		if loc == nil {
			return false, nil
		}
		for i, name := range re.SubexpNames() {
			if name == "" || loc[2*i] < 0 {
				continue
			}
			captures[name] = v[loc[2*i]:loc[2*i+1]]
		}
	}

	for _, field := range sortedKeys(m.replace) {
		value, err := Interpolate(m.replace[field], func(key string) string {
			if v, ok := captures[key]; ok {
				return v
			}
			if v, ok := r.Get(key); ok {
				return v
			}
			return ""
		})
		if err != nil {
			return false, err
		}
		r.Replace(field, value)
	}

	r.Transformed = true
	return true, nil
}

// Payees canonicalizes the payee slot: each canonical payee name owns a
// set of alias patterns, and a record whose payee matches any alias is
// renamed to the canonical name.
//
// In strict mode (used for rule files) every alias set is checked and a
// diagnostic is written when more than one matches; the first match (in
// sorted name order) still wins. Outside strict mode the first match
// wins silently.
type Payees struct {
	aliases map[string][]*regexp.Regexp
	names   []string

	strict   bool
	warnings io.Writer
}

// NewPayees compiles a payee resolver from canonical-name to alias-list
// configuration. Each alias is matched as a literal substring unless it
// is written as `^...$`, in which case it is used as a regular
// expression verbatim.
func NewPayees(aliases map[string][]string, caseInsensitive, strict bool) (*Payees, error) {
	p := &Payees{
		aliases:  make(map[string][]*regexp.Regexp, len(aliases)),
		names:    make([]string, 0, len(aliases)),
		strict:   strict,
		warnings: os.Stderr,
	}
	for name, patterns := range aliases {
		set := make([]*regexp.Regexp, 0, len(patterns))
		for _, alias := range patterns {
			re, err := compileAlias(alias, caseInsensitive)
			if err != nil {
				return nil, fmt.Errorf("payee %q: alias %q: %w", name, alias, err)
			}
			set = append(set, re)
		}
		p.aliases[name] = set
		p.names = append(p.names, name)
	}
	sort.Strings(p.names)
	return p, nil
}

// WarnTo redirects strict-mode ambiguity diagnostics, which otherwise go
// to standard error.
func (p *Payees) WarnTo(w io.Writer) {
	p.warnings = w
}

// Match reports whether any alias set matches the record's payee.
func (p *Payees) Match(r *Record) bool {
	for _, set := range p.aliases {
		if matchAny(set, r.Payee) {
			return true
		}
	}
	return false
}

// Transform renames the payee to the first canonical name whose alias
// set matches the original payee text. In strict mode later matches are
// reported as ambiguous but never override the first; the run continues.
func (p *Payees) Transform(r *Record) (bool, error) {
	matches := 0
	original := r.Payee
	for _, name := range p.names {
		if !matchAny(p.aliases[name], original) {
			continue
		}
		matches++
		if !p.strict {
			r.Payee = name
			break
		}
		switch matches {
		case 1:
			r.Payee = name
		case 2:
			fmt.Fprintf(p.warnings, "warning: multiple aliases match payee: %s\n", original)
			fmt.Fprintf(p.warnings, "       | - %s\n", r.Payee)
			fmt.Fprintf(p.warnings, "       | - %s\n", name)
		default:
			fmt.Fprintf(p.warnings, "       | - %s\n", name)
		}
	}
	return matches != 0, nil
}

func compileAlias(alias string, caseInsensitive bool) (*regexp.Regexp, error) {
	expr := alias
	if !strings.HasPrefix(alias, "^") || !strings.HasSuffix(alias, "$") {
		// Plain aliases are literal substrings; only `^...$` opts into
		// full regular-expression semantics.
		expr = regexp.QuoteMeta(alias)
	}
	if caseInsensitive {
		expr = "(?i)" + expr
	}
	return regexp.Compile(expr)
}

func matchAny(set []*regexp.Regexp, s string) bool {
	for _, re := range set {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// Chain applies an ordered sequence of rules to each record. Match
// reports whether any member matches; Transform applies every member
// regardless of whether earlier ones fired.
type Chain []Transformer

func (c Chain) Match(r *Record) bool {
	for _, t := range c {
		if t.Match(r) {
			return true
		}
	}
	return false
}

func (c Chain) Transform(r *Record) (bool, error) {
	fired := false
	for _, t := range c {
		ok, err := t.Transform(r)
		if err != nil {
			return false, err
		}
		fired = fired || ok
	}
	return fired, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
