// internal/rules/table.go
package rules

import (
	"log/slog"
	"sync/atomic"

	"github.com/solatis/xpathrewriter/internal/types"
)

/*
 * Rule table.
 *
 * A Table holds the active RuleSet behind an atomic pointer. Rebuild parses
 * the new raw rules into a fresh RuleSet off to the side and publishes it
 * with one Store, so a reader sees either the old set or the new set and
 * never a partially built one. No locks are taken on either path.
 *
 * A RuleSet is immutable after construction. Rewriting takes one Snapshot
 * per request so every XPath node in a tree is resolved against the same
 * rules even if Rebuild runs mid-request.
 *
 * Lookup is a linear scan in insertion order; the first rule whose pattern
 * matches the whole expression wins. Rebuild keeps at most types.MaxRules
 * accepted rules and drops the rest with a warning.
 */

// RuleSet is an immutable ordered list of compiled rules.
type RuleSet struct {
	rules []*Rule
}

// NewRuleSet parses raw rules in order. Malformed rules are logged at warn
// level and skipped.
func NewRuleSet(raw []string, logger *slog.Logger) *RuleSet {
	if logger == nil {
		logger = slog.Default()
	}

	set := &RuleSet{rules: make([]*Rule, 0, len(raw))}
	for i, r := range raw {
		if len(set.rules) == types.MaxRules {
			logger.Warn("rule table full, dropping remaining rules",
				"max_rules", types.MaxRules,
				"dropped", len(raw)-i)
			break
		}

		rule, err := ParseRule(r)
		if err != nil {
			logger.Warn("dropping xpath replacement rule",
				"index", i,
				"rule", r,
				"error", err)
			continue
		}

		logger.Debug("accepted xpath replacement rule",
			"pattern", rule.Pattern,
			"replacement", rule.Replacement)
		set.rules = append(set.rules, rule)
	}
	return set
}

// FindReplacement returns the replacement of the first rule whose pattern
// matches expression, or false when none does. A nil RuleSet is empty.
func (s *RuleSet) FindReplacement(expression string) (string, bool) {
	if s == nil {
		return "", false
	}
	for _, rule := range s.rules {
		if rule.Matches(expression) {
			return rule.Replacement, true
		}
	}
	return "", false
}

// Len returns the number of rules.
func (s *RuleSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rules)
}

// Rules returns the rules in table order. The slice is a copy; the rules
// themselves are shared and read-only.
func (s *RuleSet) Rules() []Rule {
	if s == nil {
		return nil
	}
	out := make([]Rule, len(s.rules))
	for i, r := range s.rules {
		out[i] = *r
	}
	return out
}

// Raw returns the rules in raw form, in table order.
func (s *RuleSet) Raw() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.rules))
	for i, r := range s.rules {
		out[i] = r.String()
	}
	return out
}

// Table is the swappable holder of the active RuleSet. The zero value is an
// empty table that logs through slog.Default.
type Table struct {
	active atomic.Pointer[RuleSet]
	logger *slog.Logger
}

// NewTable creates an empty table.
func NewTable(logger *slog.Logger) *Table {
	return &Table{logger: logger}
}

// Rebuild replaces the active rules with the rules parsed from raw and
// returns the number accepted. A nil or empty raw leaves the table empty.
func (t *Table) Rebuild(raw []string) int {
	set := NewRuleSet(raw, t.logger)
	t.active.Store(set)

	t.log().Info("xpath replacement rules rebuilt",
		"supplied", len(raw),
		"accepted", set.Len())
	return set.Len()
}

// Snapshot returns the active RuleSet. The result is never nil.
func (t *Table) Snapshot() *RuleSet {
	if set := t.active.Load(); set != nil {
		return set
	}
	return &RuleSet{}
}

// FindReplacement looks expression up in the active rules.
func (t *Table) FindReplacement(expression string) (string, bool) {
	return t.Snapshot().FindReplacement(expression)
}

// Len returns the number of active rules.
func (t *Table) Len() int {
	return t.Snapshot().Len()
}

// Rules returns a copy of the active rules in table order.
func (t *Table) Rules() []Rule {
	return t.Snapshot().Rules()
}

func (t *Table) log() *slog.Logger {
	if t.logger == nil {
		return slog.Default()
	}
	return t.logger
}
