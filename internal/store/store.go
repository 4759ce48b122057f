// Package store is a typed wrapper over the document table family. Every
// entity lives as a single jsonb document keyed by id; writes support an
// optimistic-concurrency precondition expressed as attribute equality, and
// reads by a secondary attribute go through a declared expression index with
// an explicit sequential-scan fallback while the index does not exist yet.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var (
	// ErrNotFound means the requested document does not exist.
	ErrNotFound = errors.New("store: item not found")
	// ErrConditionFailed means a conditional write lost its precondition:
	// either the document changed since it was read, or a conditional insert
	// hit an existing id. Callers interpret it domain-specifically.
	ErrConditionFailed = errors.New("store: condition failed")
	// ErrValidation means the request itself was malformed (empty id, empty
	// update set).
	ErrValidation = errors.New("store: invalid request")
)

// Index declares a secondary access path on one document attribute. Name is
// the Postgres index name the migrations create; it is checked against
// pg_indexes at startup so a cold boot before the migration ran degrades to a
// logged sequential scan instead of failing.
type Index struct {
	Attr string
	Name string
}

// Table provides document access for one entity family.
type Table[T any] struct {
	pool    *pgxpool.Pool
	name    string
	indexed map[string]bool
}

// NewTable wraps one document table and resolves the index-or-scan strategy
// for each declared secondary index.
func NewTable[T any](ctx context.Context, pool *pgxpool.Pool, name string, indexes ...Index) (*Table[T], error) {
	t := &Table[T]{pool: pool, name: name, indexed: make(map[string]bool, len(indexes))}
	if len(indexes) == 0 {
		return t, nil
	}

	existing, err := existingIndexes(ctx, pool)
	if err != nil {
		return nil, fmt.Errorf("store: failed to inspect indexes for table %s: %w", name, err)
	}
	for _, idx := range indexes {
		t.indexed[idx.Attr] = existing[idx.Name]
		if !existing[idx.Name] {
			log.Warn().
				Str("table", name).
				Str("attr", idx.Attr).
				Str("index", idx.Name).
				Msg("store: secondary index missing, queries on this attribute fall back to a sequential scan")
		}
	}
	return t, nil
}

func existingIndexes(ctx context.Context, pool *pgxpool.Pool) (map[string]bool, error) {
	rows, err := pool.Query(ctx, `SELECT indexname FROM pg_indexes WHERE schemaname = current_schema()`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	existing := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		existing[name] = true
	}
	return existing, rows.Err()
}

// Get returns the document with the given id.
func (t *Table[T]) Get(ctx context.Context, id string) (*T, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", ErrValidation)
	}

	var doc []byte
	err := t.pool.QueryRow(ctx, fmt.Sprintf(`SELECT doc FROM %s WHERE id = $1`, t.name), id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: failed to get %s/%s: %w", t.name, id, err)
	}
	return t.decode(doc)
}

// Insert writes a new document and fails with ErrConditionFailed if the id is
// already taken (the conditional-put-on-id form).
func (t *Table[T]) Insert(ctx context.Context, id string, v T) error {
	doc, err := t.encode(v)
	if err != nil {
		return err
	}

	tag, err := t.pool.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, doc) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`, t.name), id, doc)
	if err != nil {
		return fmt.Errorf("store: failed to insert %s/%s: %w", t.name, id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s/%s already exists", ErrConditionFailed, t.name, id)
	}
	return nil
}

// Put writes the document unconditionally, replacing any previous version.
func (t *Table[T]) Put(ctx context.Context, id string, v T) error {
	doc, err := t.encode(v)
	if err != nil {
		return err
	}

	_, err = t.pool.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, doc) VALUES ($1, $2) ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc`, t.name), id, doc)
	if err != nil {
		return fmt.Errorf("store: failed to put %s/%s: %w", t.name, id, err)
	}
	return nil
}

// Update merges set into the stored document and returns the post-image.
// When precond is non-empty the write only applies while every precondition
// attribute still equals its expected value; losing that race returns
// ErrConditionFailed. Nil-valued attributes in set are stripped before the
// merge.
func (t *Table[T]) Update(ctx context.Context, id string, set map[string]any, precond map[string]any) (*T, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", ErrValidation)
	}
	set = stripAbsent(set)
	if len(set) == 0 {
		return nil, fmt.Errorf("%w: empty update for %s/%s", ErrValidation, t.name, id)
	}
	patch, err := json.Marshal(set)
	if err != nil {
		return nil, fmt.Errorf("store: failed to encode update for %s/%s: %w", t.name, id, err)
	}

	var doc []byte
	if len(precond) == 0 {
		err = t.pool.QueryRow(ctx,
			fmt.Sprintf(`UPDATE %s SET doc = doc || $2 WHERE id = $1 RETURNING doc`, t.name),
			id, patch).Scan(&doc)
	} else {
		var cond []byte
		cond, err = json.Marshal(precond)
		if err != nil {
			return nil, fmt.Errorf("store: failed to encode precondition for %s/%s: %w", t.name, id, err)
		}
		err = t.pool.QueryRow(ctx,
			fmt.Sprintf(`UPDATE %s SET doc = doc || $2 WHERE id = $1 AND doc @> $3 RETURNING doc`, t.name),
			id, patch, cond).Scan(&doc)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, t.missOrLostCondition(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: failed to update %s/%s: %w", t.name, id, err)
	}
	return t.decode(doc)
}

// missOrLostCondition tells a missing row apart from a lost precondition.
func (t *Table[T]) missOrLostCondition(ctx context.Context, id string) error {
	var exists bool
	err := t.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, t.name), id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("store: failed to re-check %s/%s: %w", t.name, id, err)
	}
	if exists {
		return fmt.Errorf("%w: %s/%s", ErrConditionFailed, t.name, id)
	}
	return ErrNotFound
}

// Delete removes the document. Deleting a missing id returns ErrNotFound.
func (t *Table[T]) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty id", ErrValidation)
	}

	tag, err := t.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, t.name), id)
	if err != nil {
		return fmt.Errorf("store: failed to delete %s/%s: %w", t.name, id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// QueryByIndex returns every document whose attribute equals value, newest
// first. A missing index does not change the result, only the access path.
func (t *Table[T]) QueryByIndex(ctx context.Context, attr, value string) ([]T, error) {
	if !validAttr(attr) {
		return nil, fmt.Errorf("%w: bad index attribute %q", ErrValidation, attr)
	}
	if !t.indexed[attr] {
		log.Debug().Str("table", t.name).Str("attr", attr).Msg("store: serving index query with a sequential scan")
	}

	rows, err := t.pool.Query(ctx,
		fmt.Sprintf(`SELECT doc FROM %s WHERE doc->>'%s' = $1 ORDER BY doc->>'createdAt' DESC`, t.name, attr), value)
	if err != nil {
		return nil, fmt.Errorf("store: failed to query %s by %s: %w", t.name, attr, err)
	}
	return t.collect(rows)
}

// Scan returns every document, optionally narrowed by attribute equality,
// newest first.
func (t *Table[T]) Scan(ctx context.Context, filter map[string]any) ([]T, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if len(filter) == 0 {
		rows, err = t.pool.Query(ctx,
			fmt.Sprintf(`SELECT doc FROM %s ORDER BY doc->>'createdAt' DESC`, t.name))
	} else {
		var cond []byte
		cond, err = json.Marshal(filter)
		if err != nil {
			return nil, fmt.Errorf("store: failed to encode scan filter for %s: %w", t.name, err)
		}
		rows, err = t.pool.Query(ctx,
			fmt.Sprintf(`SELECT doc FROM %s WHERE doc @> $1 ORDER BY doc->>'createdAt' DESC`, t.name), cond)
	}
	if err != nil {
		return nil, fmt.Errorf("store: failed to scan %s: %w", t.name, err)
	}
	return t.collect(rows)
}

func (t *Table[T]) collect(rows pgx.Rows) ([]T, error) {
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("store: failed to scan row from %s: %w", t.name, err)
		}
		v, err := t.decode(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: failed iterating rows from %s: %w", t.name, err)
	}
	return out, nil
}

func (t *Table[T]) encode(v T) ([]byte, error) {
	doc, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("store: failed to encode document for %s: %w", t.name, err)
	}
	return doc, nil
}

func (t *Table[T]) decode(doc []byte) (*T, error) {
	var v T
	if err := json.Unmarshal(doc, &v); err != nil {
		return nil, fmt.Errorf("store: failed to decode document from %s: %w", t.name, err)
	}
	return &v, nil
}

// validAttr accepts plain identifiers only. Attribute names are spliced into
// the SQL text, so anything else is rejected before it gets near a query.
func validAttr(attr string) bool {
	if attr == "" {
		return false
	}
	for _, r := range attr {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return false
		}
	}
	return true
}

// stripAbsent drops nil-valued attributes so an unset optional field never
// writes a JSON null into the document.
func stripAbsent(set map[string]any) map[string]any {
	out := make(map[string]any, len(set))
	for k, v := range set {
		if v == nil {
			continue
		}
		out[k] = v
	}
	return out
}
