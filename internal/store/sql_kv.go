package store

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"time"

	"github.com/jmoiron/sqlx"
)

// SQLKV keeps entries in the kv_store table created by migrations.Run.
type SQLKV struct {
	db *sqlx.DB
}

func NewSQLKV(db *sqlx.DB) *SQLKV {
	return &SQLKV{db: db}
}

func (s *SQLKV) Get(ctx context.Context, key string) (string, bool, error) {
	var payload string
	err := s.db.GetContext(ctx, &payload, s.db.Rebind(`SELECT payload FROM kv_store WHERE store_key = ?`), key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return payload, true, nil
}

// Put replaces every entry inside one transaction. Delete-then-insert keeps
// the statement portable across sqlite, mysql and postgres.
func (s *SQLKV) Put(ctx context.Context, entries map[string]string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	del := tx.Rebind(`DELETE FROM kv_store WHERE store_key = ?`)
	ins := tx.Rebind(`INSERT INTO kv_store (store_key, payload, updated_at) VALUES (?, ?, ?)`)
	now := time.Now().UTC()

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		if _, err := tx.ExecContext(ctx, del, key); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, ins, key, entries[key], now); err != nil {
			return err
		}
	}
	return tx.Commit()
}
