package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sojunghan/territory-cli/internal/db"
	"github.com/sojunghan/territory-cli/internal/model"
)

// PostgresStore implements ClaimStore using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS claims (
	seq        BIGSERIAL,
	id         TEXT PRIMARY KEY,
	owner      TEXT NOT NULL,
	address    TEXT NOT NULL DEFAULT '',
	lat        DOUBLE PRECISION NOT NULL,
	lon        DOUBLE PRECISION NOT NULL,
	kind       TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_claims_owner ON claims(owner);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) ListClaims(ctx context.Context) ([]model.Claim, error) {
	return listPostgres(ctx, s.pool)
}

type pgQueryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func listPostgres(ctx context.Context, q pgQueryer) ([]model.Claim, error) {
	rows, err := q.Query(ctx,
		`SELECT id, owner, address, lat, lon, kind, created_at FROM claims ORDER BY created_at, seq`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list claims")
	}
	defer rows.Close()

	var claims []model.Claim
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.ID, &r.Owner, &r.Address, &r.Lat, &r.Lon, &r.Kind, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan claim")
		}
		claims = append(claims, r.Claim())
	}
	return claims, eris.Wrap(rows.Err(), "postgres: list claims iterate")
}

const postgresInsert = `INSERT INTO claims (id, owner, address, lat, lon, kind, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`

func (s *PostgresStore) InsertClaim(ctx context.Context, c model.Claim) error {
	r := ToRow(c)
	_, err := s.pool.Exec(ctx, postgresInsert, r.ID, r.Owner, r.Address, r.Lat, r.Lon, r.Kind, r.CreatedAt)
	return eris.Wrapf(err, "postgres: insert claim %s", c.ID)
}

// claimsLockKey identifies the transaction-scoped advisory lock that
// serializes checked inserts across processes.
const claimsLockKey int64 = 0x636c61696d73

// InsertClaimChecked takes pg_advisory_xact_lock before reading, so the
// read sees every claim committed by an earlier checked insert.
func (s *PostgresStore) InsertClaimChecked(ctx context.Context, c model.Claim, check func([]model.Claim) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin checked insert")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, claimsLockKey); err != nil {
		return eris.Wrap(err, "postgres: lock claims")
	}
	stored, err := listPostgres(ctx, tx)
	if err != nil {
		return err
	}
	if err := check(stored); err != nil {
		return err
	}
	r := ToRow(c)
	if _, err := tx.Exec(ctx, postgresInsert, r.ID, r.Owner, r.Address, r.Lat, r.Lon, r.Kind, r.CreatedAt); err != nil {
		return eris.Wrapf(err, "postgres: insert claim %s", c.ID)
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit checked insert")
}

func (s *PostgresStore) DeleteClaim(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM claims WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete claim %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "claim %s", id)
	}
	return nil
}

func (s *PostgresStore) ReplaceClaims(ctx context.Context, claims []model.Claim) error {
	if len(claims) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin replace")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, c := range claims {
		tag, err := tx.Exec(ctx, `DELETE FROM claims WHERE id = $1`, c.ID)
		if err != nil {
			return eris.Wrapf(err, "postgres: replace delete %s", c.ID)
		}
		if tag.RowsAffected() == 0 {
			return eris.Wrapf(ErrNotFound, "claim %s", c.ID)
		}
		r := ToRow(c)
		if _, err := tx.Exec(ctx, postgresInsert, r.ID, r.Owner, r.Address, r.Lat, r.Lon, r.Kind, r.CreatedAt); err != nil {
			return eris.Wrapf(err, "postgres: replace insert %s", c.ID)
		}
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit replace")
}
