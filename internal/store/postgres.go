package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

const pgUniqueViolation = "23505"

var postgresDialect = dialect{
	goose:           goose.DialectPostgres,
	numberedParams:  true,
	uniqueViolation: postgresUniqueViolation,
}

// OpenPostgres connects to PostgreSQL through the pgx database/sql driver
func OpenPostgres(dsn string) (*SQLStore, error) {
	if dsn == "" {
		return nil, errors.New("postgres: empty DSN")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	return newSQLStore(db, postgresDialect), nil
}

func postgresUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
