package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/Astemirdum/bookstore-storefront/storefront/internal/model"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/session"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	DriverSQLite = "sqlite3"
	DriverPgx    = "pgx"

	stateTableName = `client_state`
)

// Persister stores the session in a SQL table keyed by session.StorageKey.
type Persister struct {
	db      *sql.DB
	qb      sq.StatementBuilderType
	dialect string
	log     *zap.Logger
}

// Open connects and applies the schema migrations.
func Open(ctx context.Context, log *zap.Logger, driver, dsn string) (*Persister, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "sql open %s", driver)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "sql ping")
	}
	p, err := New(db, log, driver)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := p.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

func New(db *sql.DB, log *zap.Logger, driver string) (*Persister, error) {
	p := &Persister{db: db, log: log.Named("sqlstore")}
	switch driver {
	case DriverSQLite:
		p.qb = sq.StatementBuilder.PlaceholderFormat(sq.Question)
		p.dialect = "sqlite3"
	case DriverPgx:
		p.qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
		p.dialect = "postgres"
	default:
		return nil, errors.Errorf("unsupported session driver %q", driver)
	}
	return p, nil
}

func (p *Persister) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(p.dialect); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return errors.Wrap(goose.Up(p.db, "migrations"), "goose up")
}

func (p *Persister) Close() error {
	return p.db.Close()
}

func (p *Persister) Load(ctx context.Context) (model.Session, error) {
	q, args, err := p.qb.Select("state_value").
		From(stateTableName).
		Where(sq.Eq{"state_key": session.StorageKey}).
		ToSql()
	if err != nil {
		return model.Session{}, err
	}
	var raw string
	err = p.db.QueryRowContext(ctx, q, args...).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return model.Session{}, nil
	case isUndefinedTable(err):
		p.log.Warn("client_state table missing, treating as logged out")
		return model.Session{}, nil
	case err != nil:
		return model.Session{}, errors.Wrap(err, "select session")
	}
	var sess model.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return model.Session{}, errors.Wrap(err, "decode session")
	}
	return sess, nil
}

func (p *Persister) Save(ctx context.Context, sess model.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	q, args, err := p.qb.Insert(stateTableName).
		Columns("state_key", "state_value", "updated_at").
		Values(session.StorageKey, string(raw), time.Now().UTC()).
		Suffix("ON CONFLICT (state_key) DO UPDATE SET state_value = excluded.state_value, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, q, args...)
	return errors.Wrap(err, "upsert session")
}

func (p *Persister) Delete(ctx context.Context) error {
	q, args, err := p.qb.Delete(stateTableName).
		Where(sq.Eq{"state_key": session.StorageKey}).
		ToSql()
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, q, args...)
	if isUndefinedTable(err) {
		return nil
	}
	return errors.Wrap(err, "delete session")
}

func isUndefinedTable(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UndefinedTable
	}
	return strings.Contains(err.Error(), "no such table")
}
