package db

import (
	"context"
	"database/sql"
	"fmt"
)

func init() {
	RegisterMigration(Migration{
		Version:     1,
		Description: "Create todos table",
		Up:          migration001_todos,
	})
}

func migration001_todos(ctx context.Context, conn *sql.DB, dialect Dialect) error {
	var ddl string
	switch dialect {
	case DialectSQLite:
		ddl = `
			CREATE TABLE IF NOT EXISTS todos (
				id           INTEGER PRIMARY KEY AUTOINCREMENT,
				title        VARCHAR(100) NOT NULL,
				is_completed BOOLEAN NOT NULL DEFAULT 0
			)
		`
	case DialectPostgres:
		ddl = `
			CREATE TABLE IF NOT EXISTS todos (
				id           SERIAL PRIMARY KEY,
				title        VARCHAR(100) NOT NULL,
				is_completed BOOLEAN NOT NULL DEFAULT FALSE
			)
		`
	case DialectMySQL:
		ddl = `
			CREATE TABLE IF NOT EXISTS todos (
				id           INTEGER NOT NULL AUTO_INCREMENT,
				title        VARCHAR(100) NOT NULL,
				is_completed BOOLEAN NOT NULL DEFAULT FALSE,
				PRIMARY KEY (id)
			)
		`
	default:
		return fmt.Errorf("unsupported dialect %q", dialect)
	}

	_, err := conn.ExecContext(ctx, ddl)
	return err
}
