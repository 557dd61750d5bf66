package migrations

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	chstore "options-income-lab/internal/storage/clickhouse"
)

// errQuotedSemicolon rejects files the statement splitter would cut apart.
var errQuotedSemicolon = errors.New("semicolon inside string literal")

// RunClickhouseMigrations creates the dsn's database when missing, applies
// every embedded SQL file and returns a connection to that database.
// ClickHouse DDL is not transactional, so every statement must be
// idempotent (CREATE ... IF NOT EXISTS).
func RunClickhouseMigrations(ctx context.Context, dsn string) (*chstore.Conn, error) {
	db, err := databaseFromDSN(dsn)
	if err != nil {
		return nil, err
	}

	files, err := load(ClickhouseFS, "clickhouse")
	if err != nil {
		return nil, err
	}
	plan := make([][]string, len(files))
	for i, m := range files {
		if plan[i], err = splitStatements(m.sql); err != nil {
			return nil, fmt.Errorf("migration %s: %w", m.name, err)
		}
	}

	if err := createDatabase(ctx, dsn, db); err != nil {
		return nil, err
	}

	conn, err := chstore.NewConnWithDatabase(ctx, dsn, db)
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse %s: %w", db, err)
	}

	for i, m := range files {
		for _, stmt := range plan[i] {
			if err := conn.Exec(ctx, stmt); err != nil {
				conn.Close()
				return nil, fmt.Errorf("apply migration %s: %w", m.name, err)
			}
		}
	}
	return conn, nil
}

func createDatabase(ctx context.Context, dsn, db string) error {
	admin, err := chstore.NewConnWithDatabase(ctx, dsn, "")
	if err != nil {
		return fmt.Errorf("connect clickhouse admin: %w", err)
	}
	defer admin.Close()

	if err := admin.Exec(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", db)); err != nil {
		return fmt.Errorf("create database %s: %w", db, err)
	}
	return nil
}

// splitStatements cuts input on top-level semicolons. The driver runs one
// statement per Exec. Line comments are dropped; a semicolon inside a
// single-quoted literal is an error.
func splitStatements(input string) ([]string, error) {
	var (
		stmts    []string
		cur      strings.Builder
		inString bool
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			stmts = append(stmts, s)
		}
		cur.Reset()
	}

	for i := 0; i < len(input); i++ {
		ch := input[i]
		switch {
		case inString && ch == '\'' && i+1 < len(input) && input[i+1] == '\'':
			cur.WriteString("''")
			i++
		case ch == '\'':
			inString = !inString
			cur.WriteByte(ch)
		case inString && ch == ';':
			return nil, errQuotedSemicolon
		case !inString && ch == '-' && i+1 < len(input) && input[i+1] == '-':
			for i < len(input) && input[i] != '\n' {
				i++
			}
			cur.WriteByte('\n')
		case !inString && ch == ';':
			flush()
		default:
			cur.WriteByte(ch)
		}
	}
	flush()
	return stmts, nil
}

func databaseFromDSN(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse clickhouse dsn: %w", err)
	}
	db := strings.TrimPrefix(u.Path, "/")
	if db == "" {
		return "", fmt.Errorf("clickhouse dsn %q has no database", u.Redacted())
	}
	return db, nil
}
