package store

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sojunghan/territory-cli/internal/model"
)

// SQLiteStore implements ClaimStore using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// One writer at a time; the registry serializes mutations anyway.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS claims (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	owner      TEXT NOT NULL,
	address    TEXT NOT NULL DEFAULT '',
	lat        REAL NOT NULL,
	lon        REAL NOT NULL,
	kind       TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_claims_owner ON claims(owner);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ListClaims(ctx context.Context) ([]model.Claim, error) {
	return listSQLite(ctx, s.db)
}

type sqlQueryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func listSQLite(ctx context.Context, db sqlQueryer) ([]model.Claim, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, owner, address, lat, lon, kind, created_at FROM claims ORDER BY created_at, seq`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list claims")
	}
	defer rows.Close()

	var claims []model.Claim
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.ID, &r.Owner, &r.Address, &r.Lat, &r.Lon, &r.Kind, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan claim")
		}
		claims = append(claims, r.Claim())
	}
	return claims, eris.Wrap(rows.Err(), "sqlite: list claims iterate")
}

func (s *SQLiteStore) InsertClaim(ctx context.Context, c model.Claim) error {
	return eris.Wrapf(insertSQLite(ctx, s.db, ToRow(c)), "sqlite: insert claim %s", c.ID)
}

// InsertClaimChecked runs inside BEGIN IMMEDIATE, which takes the database
// write lock before the claims are read.
func (s *SQLiteStore) InsertClaimChecked(ctx context.Context, c model.Claim, check func([]model.Claim) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return eris.Wrap(err, "sqlite: acquire connection")
	}
	defer conn.Close() //nolint:errcheck

	if _, err := conn.ExecContext(ctx, `BEGIN IMMEDIATE`); err != nil {
		return eris.Wrap(err, "sqlite: begin checked insert")
	}
	committed := false
	defer func() {
		if !committed {
			conn.ExecContext(context.Background(), `ROLLBACK`) //nolint:errcheck
		}
	}()

	stored, err := listSQLite(ctx, conn)
	if err != nil {
		return err
	}
	if err := check(stored); err != nil {
		return err
	}
	if err := insertSQLite(ctx, conn, ToRow(c)); err != nil {
		return eris.Wrapf(err, "sqlite: insert claim %s", c.ID)
	}
	if _, err := conn.ExecContext(ctx, `COMMIT`); err != nil {
		return eris.Wrap(err, "sqlite: commit checked insert")
	}
	committed = true
	return nil
}

func (s *SQLiteStore) DeleteClaim(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM claims WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete claim %s", id)
	}
	return checkRowsAffected(res, id)
}

func (s *SQLiteStore) ReplaceClaims(ctx context.Context, claims []model.Claim) error {
	if len(claims) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin replace")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, c := range claims {
		res, err := tx.ExecContext(ctx, `DELETE FROM claims WHERE id = ?`, c.ID)
		if err != nil {
			return eris.Wrapf(err, "sqlite: replace delete %s", c.ID)
		}
		if err := checkRowsAffected(res, c.ID); err != nil {
			return err
		}
		if err := insertSQLite(ctx, tx, ToRow(c)); err != nil {
			return eris.Wrapf(err, "sqlite: replace insert %s", c.ID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit replace")
}

type sqlExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertSQLite(ctx context.Context, db sqlExecer, r Row) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO claims (id, owner, address, lat, lon, kind, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Owner, r.Address, r.Lat, r.Lon, r.Kind, r.CreatedAt.UTC(),
	)
	return err
}

// helpers

func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "claim %s", id)
	}
	return nil
}
