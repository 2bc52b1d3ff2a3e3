// internal/core/db/rules.go
package db

/*
 * Persistent rule source.
 *
 * xpath_rules holds raw rule strings with an explicit position; the active
 * table is the enabled rules in ascending position. Expressions are checked
 * with rules.ParseRule before they are written so the database never holds
 * a rule the table would drop.
 */

import (
	"context"
	"fmt"
	"time"

	"github.com/solatis/xpathrewriter/internal/rules"
	"github.com/solatis/xpathrewriter/internal/types"
)

// RuleStore reads and writes persisted replacement rules.
type RuleStore struct {
	queries *Queries
	now     func() time.Time
}

// NewRuleStore creates a store over loaded queries.
func NewRuleStore(queries *Queries) (*RuleStore, error) {
	if queries == nil {
		return nil, fmt.Errorf("queries cannot be nil")
	}
	return &RuleStore{queries: queries, now: time.Now}, nil
}

// List returns stored rules in position order.
func (s *RuleStore) List(ctx context.Context, enabledOnly bool) ([]types.StoredRule, error) {
	var stored []types.StoredRule
	var err error
	if enabledOnly {
		err = s.queries.SelectContext(ctx, "list-enabled-rules", &stored, true)
	} else {
		err = s.queries.SelectContext(ctx, "list-rules", &stored)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	return stored, nil
}

// Expressions returns the raw strings of the enabled rules in position order,
// ready for Rewriter.Configure.
func (s *RuleStore) Expressions(ctx context.Context) ([]string, error) {
	stored, err := s.List(ctx, true)
	if err != nil {
		return nil, err
	}
	raw := make([]string, len(stored))
	for i, r := range stored {
		raw[i] = r.Expression
	}
	return raw, nil
}

// Add appends an enabled rule after the current last position.
func (s *RuleStore) Add(ctx context.Context, expression string) (*types.StoredRule, error) {
	if _, err := rules.ParseRule(expression); err != nil {
		return nil, err
	}

	rule := types.StoredRule{
		RuleID:     types.NewRuleID(),
		Expression: expression,
		Enabled:    true,
		CreatedAt:  s.now().UTC(),
	}

	err := s.queries.InTx(ctx, func(tx *TxQueries) error {
		if err := tx.GetContext(ctx, "next-rule-position", &rule.Position); err != nil {
			return fmt.Errorf("failed to read next position: %w", err)
		}
		return insertRule(ctx, tx, rule)
	})
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

// Replace swaps the whole stored table for expressions, keeping their order.
// Nothing is written when any expression is malformed.
func (s *RuleStore) Replace(ctx context.Context, expressions []string) ([]types.StoredRule, error) {
	if len(expressions) > types.MaxRules {
		return nil, fmt.Errorf("%d rules exceeds maximum of %d", len(expressions), types.MaxRules)
	}
	for i, expr := range expressions {
		if _, err := rules.ParseRule(expr); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
	}

	now := s.now().UTC()
	stored := make([]types.StoredRule, len(expressions))
	for i, expr := range expressions {
		stored[i] = types.StoredRule{
			RuleID:     types.NewRuleID(),
			Position:   i,
			Expression: expr,
			Enabled:    true,
			CreatedAt:  now,
		}
	}

	err := s.queries.InTx(ctx, func(tx *TxQueries) error {
		if _, err := tx.ExecContext(ctx, "delete-all-rules"); err != nil {
			return fmt.Errorf("failed to clear rules: %w", err)
		}
		for _, r := range stored {
			if err := insertRule(ctx, tx, r); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// Remove deletes a rule by id.
func (s *RuleStore) Remove(ctx context.Context, id types.RuleID) error {
	res, err := s.queries.ExecContext(ctx, "delete-rule", string(id))
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}
	return expectOneRow(res, id)
}

// SetEnabled enables or disables a rule without changing its position.
func (s *RuleStore) SetEnabled(ctx context.Context, id types.RuleID, enabled bool) error {
	res, err := s.queries.ExecContext(ctx, "set-rule-enabled", enabled, string(id))
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}
	return expectOneRow(res, id)
}

func insertRule(ctx context.Context, tx *TxQueries, r types.StoredRule) error {
	_, err := tx.ExecContext(ctx, "insert-rule",
		string(r.RuleID), r.Position, r.Expression, r.Enabled, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert rule at position %d: %w", r.Position, err)
	}
	return nil
}

func expectOneRow(res interface{ RowsAffected() (int64, error) }, id types.RuleID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", types.ErrRuleNotFound, id)
	}
	return nil
}
