// internal/core/db/queries.go
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/qustavo/dotsql"
)

//go:embed queries/*.sql
var queriesFS embed.FS

// Queries runs the named statements in queries/*.sql. Statements are
// written with ? placeholders and rebound for the connection's driver.
type Queries struct {
	dot *dotsql.DotSql
	db  *sqlx.DB
}

// LoadQueries parses every embedded query file.
func LoadQueries(db *sqlx.DB) (*Queries, error) {
	var combined strings.Builder

	err := fs.WalkDir(queriesFS, "queries", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".sql" {
			return nil
		}
		content, err := queriesFS.ReadFile(p)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", p, err)
		}
		combined.Write(content)
		combined.WriteByte('\n')
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load query files: %w", err)
	}

	dot, err := dotsql.LoadFromString(combined.String())
	if err != nil {
		return nil, fmt.Errorf("failed to parse queries: %w", err)
	}

	return &Queries{dot: dot, db: db}, nil
}

// raw returns the named statement rebound for binder.
func (q *Queries) raw(name string, binder interface{ Rebind(string) string }) (string, error) {
	query, err := q.dot.Raw(name)
	if err != nil {
		return "", fmt.Errorf("query not found: %s", name)
	}
	return binder.Rebind(query), nil
}

// Exec runs a named statement.
func (q *Queries) Exec(name string, args ...interface{}) (sql.Result, error) {
	return q.ExecContext(context.Background(), name, args...)
}

// Get scans a single row of a named query into dest.
func (q *Queries) Get(name string, dest interface{}, args ...interface{}) error {
	return q.GetContext(context.Background(), name, dest, args...)
}

// Select scans all rows of a named query into the slice dest.
func (q *Queries) Select(name string, dest interface{}, args ...interface{}) error {
	return q.SelectContext(context.Background(), name, dest, args...)
}

func (q *Queries) ExecContext(ctx context.Context, name string, args ...interface{}) (sql.Result, error) {
	query, err := q.raw(name, q.db)
	if err != nil {
		return nil, err
	}
	return q.db.ExecContext(ctx, query, args...)
}

func (q *Queries) GetContext(ctx context.Context, name string, dest interface{}, args ...interface{}) error {
	query, err := q.raw(name, q.db)
	if err != nil {
		return err
	}
	return q.db.GetContext(ctx, dest, query, args...)
}

func (q *Queries) SelectContext(ctx context.Context, name string, dest interface{}, args ...interface{}) error {
	query, err := q.raw(name, q.db)
	if err != nil {
		return err
	}
	return q.db.SelectContext(ctx, dest, query, args...)
}

// InTx runs fn inside a transaction, committing when fn returns nil.
func (q *Queries) InTx(ctx context.Context, fn func(tx *TxQueries) error) error {
	tx, err := q.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(&TxQueries{q: q, tx: tx}); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// TxQueries runs named statements inside one transaction.
type TxQueries struct {
	q  *Queries
	tx *sqlx.Tx
}

func (t *TxQueries) ExecContext(ctx context.Context, name string, args ...interface{}) (sql.Result, error) {
	query, err := t.q.raw(name, t.tx)
	if err != nil {
		return nil, err
	}
	return t.tx.ExecContext(ctx, query, args...)
}

func (t *TxQueries) GetContext(ctx context.Context, name string, dest interface{}, args ...interface{}) error {
	query, err := t.q.raw(name, t.tx)
	if err != nil {
		return err
	}
	return t.tx.GetContext(ctx, dest, query, args...)
}
