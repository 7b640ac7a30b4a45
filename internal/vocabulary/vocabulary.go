// Package vocabulary holds the curated term lists that drive extraction and scoring.
// A Vocabulary is plain data: the built-in Default can be replaced from a YAML file so
// that tests and deployments can substitute their own lists.
package vocabulary

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Domain is a clinical area grouping keywords. Categories are informational only;
// extraction flattens them.
type Domain struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// ContextRule emits Terms when Pattern matches a note.
type ContextRule struct {
	Name    string   `yaml:"name"`
	Pattern string   `yaml:"pattern"`
	Terms   []string `yaml:"terms"`
}

// Vocabulary is a versioned set of term lists.
type Vocabulary struct {
	Version      string        `yaml:"version"`
	Domains      []Domain      `yaml:"domains"`
	Medications  []string      `yaml:"medications"`
	LabNames     []string      `yaml:"lab_names"`
	Specificity  []string      `yaml:"specificity"`
	ContextRules []ContextRule `yaml:"context_rules"`
}

// Keywords returns every domain keyword in list order, without duplicates.
func (v *Vocabulary) Keywords() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, d := range v.Domains {
		for _, k := range d.Keywords {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	return out
}

// SpecificitySet returns the specificity terms lower-cased, as a set.
func (v *Vocabulary) SpecificitySet() map[string]struct{} {
	set := make(map[string]struct{}, len(v.Specificity))
	for _, t := range v.Specificity {
		set[strings.ToLower(t)] = struct{}{}
	}
	return set
}

// Validate checks that every list is usable: keywords, medications and lab names must be
// non-empty lower-case strings, specificity terms must be vocabulary keywords, and context
// patterns must compile.
func (v *Vocabulary) Validate() error {
	keywords := make(map[string]struct{})
	for _, d := range v.Domains {
		for _, k := range d.Keywords {
			if err := checkTerm("keyword", k); err != nil {
				return fmt.Errorf("domain %q: %w", d.Name, err)
			}
			keywords[k] = struct{}{}
		}
	}
	if len(keywords) == 0 {
		return fmt.Errorf("vocabulary has no keywords")
	}
	for _, m := range v.Medications {
		if err := checkTerm("medication", m); err != nil {
			return err
		}
	}
	for _, l := range v.LabNames {
		if err := checkTerm("lab name", l); err != nil {
			return err
		}
	}
	for _, s := range v.Specificity {
		if _, ok := keywords[strings.ToLower(s)]; !ok {
			return fmt.Errorf("specificity term %q is not a vocabulary keyword", s)
		}
	}
	for _, r := range v.ContextRules {
		if _, err := regexp.Compile(r.Pattern); err != nil {
			return fmt.Errorf("context rule %q: %w", r.Name, err)
		}
		if len(r.Terms) == 0 {
			return fmt.Errorf("context rule %q emits no terms", r.Name)
		}
	}
	return nil
}

func checkTerm(kind, term string) error {
	if strings.TrimSpace(term) == "" {
		return fmt.Errorf("empty %s", kind)
	}
	if term != strings.ToLower(term) {
		return fmt.Errorf("%s %q must be lower-case", kind, term)
	}
	return nil
}

// Load reads a vocabulary from a YAML file and validates it.
func Load(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary: %w", err)
	}
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary: %w", err)
	}
	if err := v.Validate(); err != nil {
		return nil, fmt.Errorf("invalid vocabulary %s: %w", path, err)
	}
	return &v, nil
}

// LoadOrDefault loads path, or returns Default when path is empty.
func LoadOrDefault(path string) (*Vocabulary, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}
