package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
)

const kvTable = "kv_store"

var (
	ErrBuildQuery = errors.New("db: failed to build query")
	ErrExecQuery  = errors.New("db: failed to execute query")
)

// KVStore keeps one JSON document per namespace.
type KVStore struct {
	db  Executor
	now func() time.Time
}

func NewKVStore(db Executor) *KVStore {
	return &KVStore{db: db, now: time.Now}
}

// Get returns the document stored under namespace, or nil when there is none.
func (s *KVStore) Get(ctx context.Context, namespace string) ([]byte, error) {
	query, args, err := squirrel.Select("value").
		From(kvTable).
		Where(squirrel.Eq{"namespace": namespace}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Get - build select query: %v", ErrBuildQuery, err)
	}

	var value string
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Get - execute select: %v", ErrExecQuery, err)
	}
	return []byte(value), nil
}

// Put inserts or replaces the document under namespace.
func (s *KVStore) Put(ctx context.Context, namespace string, value []byte) error {
	query, args, err := squirrel.Insert(kvTable).
		Columns("namespace", "value", "updated_at").
		Values(namespace, string(value), s.now().UTC()).
		Suffix("ON CONFLICT(namespace) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Put - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: Put - execute insert: %v", ErrExecQuery, err)
	}
	return nil
}

// Namespaces lists the stored namespaces with their last update time.
func (s *KVStore) Namespaces(ctx context.Context) (map[string]time.Time, error) {
	query, args, err := squirrel.Select("namespace", "updated_at").
		From(kvTable).
		OrderBy("namespace").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Namespaces - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: Namespaces - execute select: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	out := make(map[string]time.Time)
	for rows.Next() {
		var (
			namespace string
			updatedAt time.Time
		)
		if err := rows.Scan(&namespace, &updatedAt); err != nil {
			return nil, fmt.Errorf("%w: Namespaces - scan: %v", ErrExecQuery, err)
		}
		out[namespace] = updatedAt
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: Namespaces - rows: %v", ErrExecQuery, err)
	}
	return out, nil
}
