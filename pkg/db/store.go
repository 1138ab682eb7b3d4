package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/japaniel/creamy/pkg/upload"
)

// DBExecutor is an interface that allows methods to accept either *sqlx.DB or *sqlx.Tx
type DBExecutor interface {
	sqlx.ExtContext
}

// Store implements upload.Store on a SQL database.
type Store struct {
	conn *sqlx.DB
	now  func() time.Time
}

var _ upload.Store = (*Store)(nil)

// NewStore wraps an initialized connection (see InitDB).
func NewStore(conn *sqlx.DB) *Store {
	return &Store{
		conn: conn,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// RunInTx runs fn inside a transaction and commits when it returns nil.
func RunInTx(ctx context.Context, conn *sqlx.DB, fn func(ctx context.Context, tx *sqlx.Tx) error) error {
	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // ignored if committed
	}()
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Create inserts a new upload and returns it.
func (s *Store) Create(ctx context.Context, text, filename string) (upload.Record, error) {
	row := uploadRow{Text: text, Filename: filename, CreatedAt: s.now()}
	id, err := insertUpload(ctx, s.conn, row)
	if err != nil {
		return upload.Record{}, err
	}
	row.ID = id
	return row.record(), nil
}

func insertUpload(ctx context.Context, db DBExecutor, row uploadRow) (int64, error) {
	query := db.Rebind(`INSERT INTO uploads (text, filename, created_at) VALUES (?, ?, ?)`)
	if db.DriverName() == "postgres" {
		var id int64
		if err := sqlx.GetContext(ctx, db, &id, query+" RETURNING id", row.Text, row.Filename, row.CreatedAt); err != nil {
			return 0, fmt.Errorf("insert upload: %w", err)
		}
		return id, nil
	}
	res, err := db.ExecContext(ctx, query, row.Text, row.Filename, row.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert upload: %w", err)
	}
	return res.LastInsertId()
}

// List returns uploads newest first.
func (s *Store) List(ctx context.Context) ([]upload.Summary, error) {
	var rows []uploadRow
	if err := sqlx.SelectContext(ctx, s.conn, &rows,
		`SELECT id, text, filename, created_at FROM uploads ORDER BY id DESC`); err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	out := make([]upload.Summary, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.record().Summarize())
	}
	return out, nil
}

// Get returns the upload with the given id.
func (s *Store) Get(ctx context.Context, id string) (upload.Record, error) {
	row, err := getUpload(ctx, s.conn, id)
	if err != nil {
		return upload.Record{}, err
	}
	return row.record(), nil
}

func getUpload(ctx context.Context, db DBExecutor, id string) (uploadRow, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return uploadRow{}, upload.ErrNotFound
	}
	var row uploadRow
	err = sqlx.GetContext(ctx, db, &row,
		db.Rebind(`SELECT id, text, filename, created_at FROM uploads WHERE id = ?`), n)
	if errors.Is(err, sql.ErrNoRows) {
		return uploadRow{}, upload.ErrNotFound
	}
	if err != nil {
		return uploadRow{}, fmt.Errorf("get upload %d: %w", n, err)
	}
	return row, nil
}

// TextByFilename returns the text of the oldest upload with the given filename.
func (s *Store) TextByFilename(ctx context.Context, filename string) (string, error) {
	var text string
	err := sqlx.GetContext(ctx, s.conn, &text,
		s.conn.Rebind(`SELECT text FROM uploads WHERE filename = ? ORDER BY id ASC LIMIT 1`), filename)
	if errors.Is(err, sql.ErrNoRows) {
		return "", upload.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get upload text by filename: %w", err)
	}
	return text, nil
}

// Texts returns the text of every upload in insertion order.
func (s *Store) Texts(ctx context.Context) ([]string, error) {
	var texts []string
	if err := sqlx.SelectContext(ctx, s.conn, &texts, `SELECT text FROM uploads ORDER BY id ASC`); err != nil {
		return nil, fmt.Errorf("list upload texts: %w", err)
	}
	return texts, nil
}

// Delete removes the upload with the given id and returns it.
func (s *Store) Delete(ctx context.Context, id string) (upload.Record, error) {
	var deleted uploadRow
	err := RunInTx(ctx, s.conn, func(ctx context.Context, tx *sqlx.Tx) error {
		row, err := getUpload(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM uploads WHERE id = ?`), row.ID); err != nil {
			return fmt.Errorf("delete upload %d: %w", row.ID, err)
		}
		deleted = row
		return nil
	})
	if err != nil {
		return upload.Record{}, err
	}
	return deleted.record(), nil
}

// DeleteAll removes every upload and returns the removed records.
func (s *Store) DeleteAll(ctx context.Context) ([]upload.Record, error) {
	var rows []uploadRow
	err := RunInTx(ctx, s.conn, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := sqlx.SelectContext(ctx, tx, &rows,
			`SELECT id, text, filename, created_at FROM uploads ORDER BY id ASC`); err != nil {
			return fmt.Errorf("list uploads: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM uploads`); err != nil {
			return fmt.Errorf("delete uploads: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]upload.Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.record())
	}
	return out, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.conn.Close()
}
