// internal/core/api/source.go
package api

import (
	"context"
	"fmt"

	"github.com/solatis/xpathrewriter/internal/core/config"
)

// ExpressionLister returns stored rule expressions in table order.
// Implemented by *db.RuleStore.
type ExpressionLister interface {
	Expressions(ctx context.Context) ([]string, error)
}

// ConfiguredSource concatenates the configured rules, the rule files and,
// when enabled, the stored rules, in that order.
type ConfiguredSource struct {
	xpath  config.XPathConfig
	stored ExpressionLister
}

// NewConfiguredSource creates a source. stored may be nil.
func NewConfiguredSource(xpath config.XPathConfig, stored ExpressionLister) *ConfiguredSource {
	return &ConfiguredSource{xpath: xpath, stored: stored}
}

// Load reads every source. Rule files are re-read on each call.
func (c *ConfiguredSource) Load(ctx context.Context) ([]string, error) {
	raw, err := c.xpath.StaticRules()
	if err != nil {
		return nil, err
	}
	if !c.xpath.LoadFromDB || c.stored == nil {
		return raw, nil
	}

	stored, err := c.stored.Expressions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read stored rules: %w", err)
	}
	return append(raw, stored...), nil
}
