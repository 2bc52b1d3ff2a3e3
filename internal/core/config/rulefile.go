// internal/core/config/rulefile.go
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/solatis/xpathrewriter/internal/rules"
)

// RuleFile is the YAML document holding replacement rules:
//
//	replacements:
//	  - '"/ddms:Resource/ddms:title":"title"'
//	  - pattern: /ddms:Resource/.*/@ICSM:releasableTo
//	    replacement: security.releasableTo
type RuleFile struct {
	Replacements []RuleEntry `yaml:"replacements"`
}

// RuleEntry is one rule, written either raw or as a pattern/replacement map.
type RuleEntry struct {
	Raw string
}

// UnmarshalYAML accepts a scalar raw rule or a {pattern, replacement} map.
func (e *RuleEntry) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Decode(&e.Raw)
	case yaml.MappingNode:
		var m struct {
			Pattern     string `yaml:"pattern"`
			Replacement string `yaml:"replacement"`
		}
		if err := node.Decode(&m); err != nil {
			return err
		}
		if m.Pattern == "" {
			return fmt.Errorf("line %d: rule map requires a pattern", node.Line)
		}
		e.Raw = rules.FormatRule(m.Pattern, m.Replacement)
		return nil
	default:
		return fmt.Errorf("line %d: rule must be a string or a pattern/replacement map", node.Line)
	}
}

// ParseRuleFile decodes a rule file and returns its raw rules in order.
// Rules are not compiled here; the rule table drops malformed ones.
func ParseRuleFile(data []byte) ([]string, error) {
	var f RuleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	raw := make([]string, 0, len(f.Replacements))
	for _, e := range f.Replacements {
		raw = append(raw, e.Raw)
	}
	return raw, nil
}

// LoadRuleFile reads and decodes a rule file.
func LoadRuleFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file: %w", err)
	}
	raw, err := ParseRuleFile(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rule file %s: %w", path, err)
	}
	return raw, nil
}

// StaticRules returns the configured rules followed by the rules of each
// rule file, in order.
func (c *XPathConfig) StaticRules() ([]string, error) {
	raw := append([]string(nil), c.Replacements...)
	for _, path := range c.RuleFiles {
		fileRules, err := LoadRuleFile(path)
		if err != nil {
			return nil, err
		}
		raw = append(raw, fileRules...)
	}
	return raw, nil
}
