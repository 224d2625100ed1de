package ynap

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// RuleConfig is one declarative rewrite rule from a rule file.
type RuleConfig struct {
	Label   string            `yaml:"label,omitempty"`
	Match   map[string]string `yaml:"match"`
	Replace map[string]string `yaml:"replace"`
}

// Compile builds the Matcher for this rule.
func (c RuleConfig) Compile() (*Matcher, error) {
	m, err := NewMatcher(c.Match, c.Replace)
	if err != nil && c.Label != "" {
		return nil, fmt.Errorf("rule %q: %w", c.Label, err)
	}
	return m, err
}

// Rules is a declarative rule file: rewrite rules applied before payee
// resolution, the payee alias table, and rewrite rules applied after.
// All three sections are optional.
type Rules struct {
	PreTransform  []RuleConfig        `yaml:"pre_transform"`
	Payees        map[string][]string `yaml:"payees"`
	PostTransform []RuleConfig        `yaml:"post_transform"`
}

// DecodeRules reads a YAML rule file.
func DecodeRules(r io.Reader) (*Rules, error) {
	var rules Rules
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&rules); err != nil && err != io.EOF {
		return nil, fmt.Errorf("unable to parse rules: %w", err)
	}
	return &rules, nil
}

// LoadRules reads a YAML rule file from disk.
func LoadRules(path string) (*Rules, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rules, err := DecodeRules(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}

// Chain compiles the canonical pipeline: pre-transform rules in
// declaration order, then a strict payee resolver, then post-transform
// rules in declaration order. Payee cleanup runs after the raw-field
// rewriting so post-transform rules see the canonicalized payee name.
func (r *Rules) Chain() (Chain, error) {
	chain := make(Chain, 0, len(r.PreTransform)+len(r.PostTransform)+1)
	for _, rc := range r.PreTransform {
		m, err := rc.Compile()
		if err != nil {
			return nil, fmt.Errorf("pre_transform: %w", err)
		}
		chain = append(chain, m)
	}

	payees, err := NewPayees(r.Payees, true, true)
	if err != nil {
		return nil, fmt.Errorf("payees: %w", err)
	}
	chain = append(chain, payees)

	for _, rc := range r.PostTransform {
		m, err := rc.Compile()
		if err != nil {
			return nil, fmt.Errorf("post_transform: %w", err)
		}
		chain = append(chain, m)
	}
	return chain, nil
}
