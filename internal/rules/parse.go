// internal/rules/parse.go
package rules

import (
	"fmt"
	"regexp"

	"github.com/solatis/xpathrewriter/internal/types"
)

/*
 * Rule parsing.
 *
 * A raw rule is two double-quoted segments joined by a colon:
 *
 *   "/ddms:Resource/ddms:security/@ICSM:releasableTo":"security.releasableTo"
 *
 * The first segment is a regular expression (RE2 syntax) matched against the
 * whole XPath expression; the second is the attribute name that replaces it.
 * Quotes inside either segment are not escaped. The shape match is greedy, so
 * the split happens at the last `":"` in the string.
 *
 * The pattern is compiled anchored as ^(?:p)$. Rule.Pattern keeps the source
 * text so listings and FormatRule show what the operator wrote.
 *
 * Failure modes all wrap types.ErrMalformedRule:
 *   - empty input: types.ErrEmptyRule
 *   - longer than types.MaxRuleLength: types.ErrRuleTooLong
 *   - shape mismatch: types.ErrMalformedRule
 *   - pattern does not compile: types.ErrInvalidPattern
 */

var ruleShape = regexp.MustCompile(`^"(.*)":"(.*)"$`)

// Rule is one compiled XPath replacement rule.
type Rule struct {
	Pattern     string // source pattern text, unanchored
	Replacement string // attribute name substituted for matching expressions

	matcher *regexp.Regexp
}

// Matches reports whether the pattern matches the whole expression.
// Safe for concurrent use.
func (r *Rule) Matches(expression string) bool {
	return r.matcher.MatchString(expression)
}

// String returns the raw form of the rule.
func (r *Rule) String() string {
	return FormatRule(r.Pattern, r.Replacement)
}

// ParseRule compiles one raw rule string.
func ParseRule(raw string) (*Rule, error) {
	if raw == "" {
		return nil, types.ErrEmptyRule
	}
	if len(raw) > types.MaxRuleLength {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", types.ErrRuleTooLong, len(raw), types.MaxRuleLength)
	}

	m := ruleShape.FindStringSubmatch(raw)
	if m == nil {
		return nil, fmt.Errorf("%w: expected \"<pattern>\":\"<replacement>\", got %q", types.ErrMalformedRule, raw)
	}
	pattern, replacement := m[1], m[2]

	// Compile unanchored first so a pattern like `a)|(b` cannot escape the
	// anchoring group.
	if _, err := regexp.Compile(pattern); err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrInvalidPattern, err)
	}
	matcher, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrInvalidPattern, err)
	}

	return &Rule{Pattern: pattern, Replacement: replacement, matcher: matcher}, nil
}

// FormatRule renders a pattern and replacement in raw rule form.
func FormatRule(pattern, replacement string) string {
	return `"` + pattern + `":"` + replacement + `"`
}
