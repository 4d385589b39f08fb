// Package sqlregistry stores registry entries in SQLite. Several typed
// registries can share one database file; each uses its own namespace.
package sqlregistry

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/logger"
	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/ports"
)

//go:embed schema.sql
var schema string

// DB is an open registry database.
type DB struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*DB, error) {
	const op = "sqlregistry.open"

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &domain.OpError{Op: op, Kind: domain.KindExecution, Path: path, Err: err}
		}
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, &domain.OpError{Op: op, Kind: domain.KindExecution, Path: path, Err: err}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &domain.OpError{Op: op, Kind: domain.KindExecution, Path: path, Err: err}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, &domain.OpError{Op: op, Kind: domain.KindExecution, Path: path, Err: fmt.Errorf("apply schema: %w", err)}
	}
	logger.L().Debug("registry.db.open", "path", path)
	return &DB{db: db, path: path}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Registry is a ports.Registry backed by one namespace of a DB.
type Registry[T any] struct {
	db        *DB
	namespace string
}

// New returns the registry stored under namespace.
func New[T any](db *DB, namespace string) *Registry[T] {
	return &Registry[T]{db: db, namespace: namespace}
}

var (
	_ ports.Registry[domain.License]         = (*Registry[domain.License])(nil)
	_ ports.RegistryReplacer[domain.License] = (*Registry[domain.License])(nil)
)

func (r *Registry[T]) Put(ctx context.Context, e domain.RegistryEntry[T]) (domain.RegistryEntry[T], error) {
	const op = "sqlregistry.put"

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	payload, err := json.Marshal(e.Entry)
	if err != nil {
		return domain.RegistryEntry[T]{}, &domain.OpError{Op: op, Kind: domain.KindInvalidArgument, Path: e.ID, Err: err}
	}

	tx, err := r.db.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.RegistryEntry[T]{}, &domain.OpError{Op: op, Kind: domain.KindExecution, Path: e.ID, Err: err}
	}
	defer tx.Rollback()

	if err := r.put(ctx, tx, e, payload); err != nil {
		return domain.RegistryEntry[T]{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.RegistryEntry[T]{}, &domain.OpError{Op: op, Kind: domain.KindExecution, Path: e.ID, Err: err}
	}
	return e.Clone(), nil
}

// put writes e and its keys inside tx.
func (r *Registry[T]) put(ctx context.Context, tx *sql.Tx, e domain.RegistryEntry[T], payload []byte) error {
	const op = "sqlregistry.put"

	if _, err := tx.ExecContext(ctx, `DELETE FROM entry_keys WHERE namespace = ? AND entry_id = ?`, r.namespace, e.ID); err != nil {
		return &domain.OpError{Op: op, Kind: domain.KindExecution, Path: e.ID, Err: err}
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO entries (namespace, id, type, description, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (namespace, id) DO UPDATE SET
			type = excluded.type,
			description = excluded.description,
			payload = excluded.payload,
			updated_at = CURRENT_TIMESTAMP`,
		r.namespace, e.ID, e.Type, e.Description, string(payload))
	if err != nil {
		return &domain.OpError{Op: op, Kind: domain.KindExecution, Path: e.ID, Err: err}
	}
	for i, k := range e.Keys {
		if _, err := tx.ExecContext(ctx, `INSERT INTO entry_keys (namespace, entry_id, pos, key) VALUES (?, ?, ?, ?)`,
			r.namespace, e.ID, i, k); err != nil {
			return &domain.OpError{Op: op, Kind: domain.KindExecution, Path: e.ID, Err: err}
		}
	}
	return nil
}

// Replace swaps the namespace content in one transaction.
func (r *Registry[T]) Replace(ctx context.Context, entries []domain.RegistryEntry[T]) error {
	const op = "sqlregistry.replace"

	tx, err := r.db.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.OpError{Op: op, Kind: domain.KindExecution, Path: r.namespace, Err: err}
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM entry_keys WHERE namespace = ?`,
		`DELETE FROM entries WHERE namespace = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, r.namespace); err != nil {
			return &domain.OpError{Op: op, Kind: domain.KindExecution, Path: r.namespace, Err: err}
		}
	}
	for _, e := range entries {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		payload, err := json.Marshal(e.Entry)
		if err != nil {
			return &domain.OpError{Op: op, Kind: domain.KindInvalidArgument, Path: e.ID, Err: err}
		}
		if err := r.put(ctx, tx, e, payload); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return &domain.OpError{Op: op, Kind: domain.KindExecution, Path: r.namespace, Err: err}
	}
	return nil
}

func (r *Registry[T]) Retrieve(ctx context.Context, id string) (domain.RegistryEntry[T], bool, error) {
	out, err := r.query(ctx, `SELECT id, type, description, payload FROM entries WHERE namespace = ? AND id = ?`, r.namespace, id)
	if err != nil {
		return domain.RegistryEntry[T]{}, false, err
	}
	if len(out) == 0 {
		return domain.RegistryEntry[T]{}, false, nil
	}
	return out[0], true, nil
}

// Lookup returns entries holding every key. Duplicate keys in the request are
// collapsed so they do not inflate the required count.
func (r *Registry[T]) Lookup(ctx context.Context, keys ...string) ([]domain.RegistryEntry[T], error) {
	uniq := dedupe(keys)
	if len(uniq) == 0 {
		return r.Entries(ctx)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(uniq)), ", ")
	args := make([]any, 0, len(uniq)+3)
	args = append(args, r.namespace, r.namespace)
	for _, k := range uniq {
		args = append(args, k)
	}
	args = append(args, len(uniq))

	//nolint:gosec // placeholders are literal "?" strings
	q := `
		SELECT e.id, e.type, e.description, e.payload
		FROM entries e
		WHERE e.namespace = ? AND e.id IN (
			SELECT k.entry_id FROM entry_keys k
			WHERE k.namespace = ? AND k.key IN (` + placeholders + `)
			GROUP BY k.entry_id
			HAVING COUNT(DISTINCT k.key) = ?
		)
		ORDER BY e.id`
	return r.query(ctx, q, args...)
}

func (r *Registry[T]) Entries(ctx context.Context) ([]domain.RegistryEntry[T], error) {
	return r.query(ctx, `SELECT id, type, description, payload FROM entries WHERE namespace = ? ORDER BY id`, r.namespace)
}

func (r *Registry[T]) Types(ctx context.Context) ([]string, error) {
	rows, err := r.db.db.QueryContext(ctx, `SELECT DISTINCT type FROM entries WHERE namespace = ? ORDER BY type`, r.namespace)
	if err != nil {
		return nil, &domain.OpError{Op: "sqlregistry.types", Kind: domain.KindExecution, Err: err}
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, &domain.OpError{Op: "sqlregistry.types", Kind: domain.KindExecution, Err: err}
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Registry[T]) Delete(ctx context.Context, id string) error {
	_, err := r.db.db.ExecContext(ctx, `DELETE FROM entries WHERE namespace = ? AND id = ?`, r.namespace, id)
	if err != nil {
		return &domain.OpError{Op: "sqlregistry.delete", Kind: domain.KindExecution, Path: id, Err: err}
	}
	return nil
}

func (r *Registry[T]) query(ctx context.Context, q string, args ...any) ([]domain.RegistryEntry[T], error) {
	const op = "sqlregistry.query"

	rows, err := r.db.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, &domain.OpError{Op: op, Kind: domain.KindExecution, Err: err}
	}

	out := []domain.RegistryEntry[T]{}
	for rows.Next() {
		var (
			e       domain.RegistryEntry[T]
			payload string
		)
		if err := rows.Scan(&e.ID, &e.Type, &e.Description, &payload); err != nil {
			rows.Close()
			return nil, &domain.OpError{Op: op, Kind: domain.KindExecution, Err: err}
		}
		if err := json.Unmarshal([]byte(payload), &e.Entry); err != nil {
			rows.Close()
			return nil, &domain.OpError{Op: op, Kind: domain.KindIntegrity, Path: e.ID, Err: err}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, &domain.OpError{Op: op, Kind: domain.KindExecution, Err: err}
	}
	rows.Close()

	for i := range out {
		keys, err := r.keys(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Keys = keys
	}
	return out, nil
}

func (r *Registry[T]) keys(ctx context.Context, id string) ([]string, error) {
	rows, err := r.db.db.QueryContext(ctx, `SELECT key FROM entry_keys WHERE namespace = ? AND entry_id = ? ORDER BY pos`, r.namespace, id)
	if err != nil {
		return nil, &domain.OpError{Op: "sqlregistry.keys", Kind: domain.KindExecution, Path: id, Err: err}
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, &domain.OpError{Op: "sqlregistry.keys", Kind: domain.KindExecution, Path: id, Err: err}
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func dedupe(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
